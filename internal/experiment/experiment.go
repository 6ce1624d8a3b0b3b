// Package experiment wires a configuration into a plant, a simulation and a
// control-effort evaluation.
package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/trajcost/internal/config"
	"github.com/san-kum/trajcost/internal/control"
	"github.com/san-kum/trajcost/internal/dynamo"
	"github.com/san-kum/trajcost/internal/goal"
	"github.com/san-kum/trajcost/internal/integrators"
	"github.com/san-kum/trajcost/internal/model"
	"github.com/san-kum/trajcost/internal/optim"
	"github.com/san-kum/trajcost/internal/problem"
	"github.com/san-kum/trajcost/internal/sim"
	"go.uber.org/zap"
)

type Experiment struct {
	cfg    *config.Config
	reg    *Registry
	logger *zap.Logger
}

type Result struct {
	Plant      *model.Plant
	Goal       *goal.ControlGoal
	Trajectory *dynamo.Trajectory
	Breakdown  *problem.Breakdown
}

func New(cfg *config.Config, reg *Registry, logger *zap.Logger) *Experiment {
	if reg == nil {
		reg = NewRegistry()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Experiment{cfg: cfg, reg: reg, logger: logger}
}

func (e *Experiment) Config() *config.Config { return e.cfg }

// Plant builds the configured system and controller. The controller output is
// scaled by the configured gain.
func (e *Experiment) Plant() (*model.Plant, error) {
	sys, err := e.reg.GetModel(e.cfg.Model, map[string]float64{"masses": float64(e.cfg.Masses)})
	if err != nil {
		return nil, err
	}
	params := e.cfg.GetControllerParams(sys.ControlDim())
	ctrl, err := e.reg.GetController(e.cfg.Controller, sys, params)
	if err != nil {
		return nil, err
	}
	if gain := params["gain"]; gain != 1 {
		ctrl = control.NewScaled(ctrl, gain)
	}
	return model.NewPlant(sys, ctrl), nil
}

// Problem builds the configured goal, adds it with unit weight and binds it
// to plant.
func (e *Experiment) Problem(plant *model.Plant) (*problem.Problem, *goal.ControlGoal, error) {
	rule, err := integrators.ParseRule(e.cfg.Quadrature)
	if err != nil {
		return nil, nil, err
	}
	g := e.cfg.NewGoal()
	g.SetLogger(e.logger)

	p := problem.New(problem.WithRule(rule), problem.WithLogger(e.logger))
	p.AddGoal(g, 1)
	if err := p.Initialize(plant); err != nil {
		return nil, nil, err
	}
	return p, g, nil
}

func (e *Experiment) Simulate(ctx context.Context, plant *model.Plant) (*dynamo.Trajectory, error) {
	integrator, err := e.reg.GetIntegrator(e.cfg.Integrator)
	if err != nil {
		return nil, err
	}
	s := sim.New(plant.System(), integrator, plant.Controller())
	s.SetLogger(e.logger)

	x0 := dynamo.State(e.cfg.GetInitState())
	return s.Run(ctx, x0, sim.Config{Dt: e.cfg.Dt, Duration: e.cfg.Duration, ValidateState: true})
}

// Run binds the goal before simulating so configuration mistakes surface
// without paying for a simulation.
func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	plant, err := e.Plant()
	if err != nil {
		return nil, err
	}
	prob, g, err := e.Problem(plant)
	if err != nil {
		return nil, err
	}
	traj, err := e.Simulate(ctx, plant)
	if err != nil {
		return nil, err
	}
	b, err := prob.Evaluate(ctx, traj)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("experiment evaluated",
		zap.String("model", e.cfg.Model),
		zap.Int("nodes", traj.Len()),
		zap.Float64("total", b.Total),
	)
	return &Result{Plant: plant, Goal: g, Trajectory: traj, Breakdown: b}, nil
}

// Evaluate scores a previously recorded trajectory against the current goal
// configuration.
func (e *Experiment) Evaluate(ctx context.Context, traj *dynamo.Trajectory) (*Result, error) {
	plant, err := e.Plant()
	if err != nil {
		return nil, err
	}
	prob, g, err := e.Problem(plant)
	if err != nil {
		return nil, err
	}
	b, err := prob.Evaluate(ctx, traj)
	if err != nil {
		return nil, err
	}
	return &Result{Plant: plant, Goal: g, Trajectory: traj, Breakdown: b}, nil
}

// Builder returns a grid-search builder that simulates a fresh plant per
// point. "gain" scales the controller output; any other parameter is set on
// the controller.
func (e *Experiment) Builder() optim.Builder {
	return func(ctx context.Context, params map[string]float64) (*dynamo.Trajectory, error) {
		cfg := e.cfg.Clone()
		if gain, ok := params["gain"]; ok {
			cfg.ControllerParams.Gain = gain
		}
		point := New(cfg, e.reg, e.logger)
		plant, err := point.Plant()
		if err != nil {
			return nil, err
		}
		ctrl := plant.Controller()
		if s, ok := ctrl.(*control.Scaled); ok {
			ctrl = s.Inner
		}
		for name, v := range params {
			if name == "gain" {
				continue
			}
			c, ok := ctrl.(dynamo.Configurable)
			if !ok {
				return nil, fmt.Errorf("controller %s has no parameter %q", cfg.Controller, name)
			}
			if err := c.SetParam(name, v); err != nil {
				return nil, err
			}
		}
		return point.Simulate(ctx, plant)
	}
}
