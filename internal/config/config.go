package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/san-kum/trajcost/internal/goal"
	"github.com/san-kum/trajcost/internal/integrators"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDt       = 0.01
	DefaultDuration = 5.0
	DefaultY        = 4.0
	DefaultTargetY  = 5.0
	DefaultMasses   = 3
	DefaultKp       = 10.0
	DefaultKi       = 0.1
	DefaultKd       = 5.0
	DefaultGoalName = "control_effort"
)

var ErrInvalidConfig = errors.New("config: invalid")

type Config struct {
	Model            string           `yaml:"model"`
	Integrator       string           `yaml:"integrator"`
	Controller       string           `yaml:"controller"`
	Quadrature       string           `yaml:"quadrature"`
	Dt               float64          `yaml:"dt"`
	Duration         float64          `yaml:"duration"`
	Masses           int              `yaml:"masses"`
	InitState        InitStateConfig  `yaml:"init_state"`
	ControllerParams ControllerConfig `yaml:"controller_params"`
	Goal             GoalConfig       `yaml:"goal"`
}

type InitStateConfig struct {
	X     float64 `yaml:"x"`
	Y     float64 `yaml:"y"`
	Theta float64 `yaml:"theta"`
	VX    float64 `yaml:"vx"`
	VY    float64 `yaml:"vy"`
	Omega float64 `yaml:"omega"`
	Pos   float64 `yaml:"pos"`
	Vel   float64 `yaml:"vel"`
}

type ControllerConfig struct {
	Kp     float64 `yaml:"kp"`
	Ki     float64 `yaml:"ki"`
	Kd     float64 `yaml:"kd"`
	Target float64 `yaml:"target"`
	Gain   float64 `yaml:"gain"`
}

// GoalConfig configures the control-effort goal. Weights keep the order they
// were written in.
type GoalConfig struct {
	Name                 string          `yaml:"name"`
	Exponent             float64         `yaml:"exponent"`
	DivideByDisplacement bool            `yaml:"divide_by_displacement"`
	Weights              *goal.WeightSet `yaml:"weights,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:      "drone",
		Integrator: "rk4",
		Controller: "lqr",
		Quadrature: string(integrators.Trapezoid),
		Dt:         DefaultDt,
		Duration:   DefaultDuration,
		Masses:     DefaultMasses,
		InitState: InitStateConfig{
			Y:   DefaultY,
			Pos: 1.0,
		},
		ControllerParams: ControllerConfig{
			Kp:     DefaultKp,
			Ki:     DefaultKi,
			Kd:     DefaultKd,
			Target: DefaultTargetY,
			Gain:   1.0,
		},
		Goal: GoalConfig{
			Name:     DefaultGoalName,
			Exponent: goal.DefaultExponent,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the settings that cannot be checked later by the parts
// they configure. Goal weights and exponent are validated when the goal is
// bound to a model.
func (c *Config) Validate() error {
	switch {
	case c.Model == "":
		return fmt.Errorf("%w: model is empty", ErrInvalidConfig)
	case c.Dt <= 0:
		return fmt.Errorf("%w: dt must be positive, got %g", ErrInvalidConfig, c.Dt)
	case c.Duration <= 0:
		return fmt.Errorf("%w: duration must be positive, got %g", ErrInvalidConfig, c.Duration)
	case c.Model == "masschain" && c.Masses < 1:
		return fmt.Errorf("%w: masschain needs at least one mass, got %d", ErrInvalidConfig, c.Masses)
	case c.Goal.Name == "":
		return fmt.Errorf("%w: goal name is empty", ErrInvalidConfig)
	}
	if _, err := integrators.ParseRule(c.Quadrature); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Clone returns a copy that shares nothing with c.
func (c *Config) Clone() *Config {
	out := *c
	if c.Goal.Weights != nil {
		out.Goal.Weights = c.Goal.Weights.Clone()
	}
	return &out
}

func (c *Config) GetInitState() []float64 {
	switch c.Model {
	case "cartpole":
		return []float64{c.InitState.Pos, c.InitState.Vel, c.InitState.Theta, c.InitState.Omega}
	case "drone":
		return []float64{c.InitState.X, c.InitState.Y, c.InitState.Theta, c.InitState.VX, c.InitState.VY, c.InitState.Omega}
	case "masschain":
		n := c.Masses
		if n < 1 {
			n = DefaultMasses
		}
		state := make([]float64, 2*n)
		state[0], state[1] = c.InitState.Pos, c.InitState.Vel
		return state
	default:
		return nil
	}
}

func (c *Config) GetControllerParams(controlDim int) map[string]float64 {
	return map[string]float64{
		"dim":    float64(controlDim),
		"kp":     c.ControllerParams.Kp,
		"ki":     c.ControllerParams.Ki,
		"kd":     c.ControllerParams.Kd,
		"target": c.ControllerParams.Target,
		"gain":   c.ControllerParams.Gain,
	}
}

// NewGoal builds an unbound goal from the goal block.
func (c *Config) NewGoal() *goal.ControlGoal {
	g := goal.NewControlGoal(c.Goal.Name)
	g.SetExponent(c.Goal.Exponent)
	g.SetDivideByDisplacement(c.Goal.DivideByDisplacement)
	if c.Goal.Weights != nil {
		g.SetWeights(c.Goal.Weights)
	}
	return g
}
