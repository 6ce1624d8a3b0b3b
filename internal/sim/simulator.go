// Package sim rolls a controlled system forward and records the trajectory
// that cost terms are evaluated on.
package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/trajcost/internal/control"
	"github.com/san-kum/trajcost/internal/dynamo"
	"go.uber.org/zap"
)

type Simulator struct {
	dyn        dynamo.System
	integrator dynamo.Integrator
	controller dynamo.Controller
	logger     *zap.Logger
}

// New builds a simulator. A nil controller applies zero control.
func New(dyn dynamo.System, integrator dynamo.Integrator, controller dynamo.Controller) *Simulator {
	if controller == nil {
		controller = control.NewNone(dyn.ControlDim())
	}
	return &Simulator{
		dyn:        dyn,
		integrator: integrator,
		controller: controller,
		logger:     zap.NewNop(),
	}
}

func (s *Simulator) SetLogger(l *zap.Logger) {
	if l != nil {
		s.logger = l
	}
}

// Run records one node per step, including the final one, each carrying
// the control applied from that state. On cancellation or divergence the
// nodes recorded so far are returned with the error.
func (s *Simulator) Run(ctx context.Context, x0 dynamo.State, cfg Config) (*dynamo.Trajectory, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}
	if len(x0) != s.dyn.StateDim() {
		return nil, fmt.Errorf("%w: initial state has %d entries, want %d",
			dynamo.ErrDimensionMismatch, len(x0), s.dyn.StateDim())
	}

	steps := int(math.Round(cfg.Duration / cfg.Dt))
	traj := &dynamo.Trajectory{Nodes: make([]dynamo.Node, 0, steps+1)}

	x := x0.Clone()
	t := 0.0

	for i := 0; ; i++ {
		select {
		case <-ctx.Done():
			return traj, ctx.Err()
		default:
		}

		u := s.controller.Compute(x, t)
		traj.Nodes = append(traj.Nodes, dynamo.Node{Time: t, X: x.Clone(), U: u.Clone()})
		if i == steps {
			break
		}

		x = s.integrator.Step(s.dyn, x, u, t, cfg.Dt)
		t = float64(i+1) * cfg.Dt

		if cfg.ValidateState && !x.IsValid() {
			s.logger.Warn("simulation diverged", zap.Int("step", i+1), zap.Float64("t", t))
			return traj, &dynamo.SimError{Step: i + 1, Time: t, Wrapped: dynamo.ErrInvalidState}
		}
	}

	s.logger.Debug("simulation finished", zap.Int("nodes", traj.Len()), zap.Float64("duration", t))
	return traj, nil
}

func (s *Simulator) validateConfig(cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f", cfg.Duration)
	}
	return nil
}
