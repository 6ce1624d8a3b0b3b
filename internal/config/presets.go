package config

import (
	"sort"

	"github.com/san-kum/trajcost/internal/goal"
)

func preset(model string, edit func(*Config)) *Config {
	cfg := DefaultConfig()
	cfg.Model = model
	edit(cfg)
	return cfg
}

var Presets = map[string]map[string]*Config{
	"drone": {
		"hover": preset("drone", func(c *Config) {
			c.InitState = InitStateConfig{Y: 5}
			c.ControllerParams.Target = 5
		}),
		"climb": preset("drone", func(c *Config) {
			c.InitState = InitStateConfig{Y: 2}
			c.ControllerParams.Target = 6
			c.Duration = 8
			c.Goal.DivideByDisplacement = true
		}),
		"lopsided": preset("drone", func(c *Config) {
			c.InitState = InitStateConfig{Y: 4, Theta: 0.2}
			c.Goal.Weights = goal.NewWeightSet(
				goal.Weight{Name: "thrust_left", Weight: 2},
				goal.Weight{Name: "thrust_right", Weight: 0.5},
			)
		}),
	},
	"cartpole": {
		"balance": preset("cartpole", func(c *Config) {
			c.InitState = InitStateConfig{Theta: 0.1}
		}),
		"recover": preset("cartpole", func(c *Config) {
			c.InitState = InitStateConfig{Theta: 0.5}
			c.Duration = 10
			c.Goal.Exponent = 4
		}),
		"freefall": preset("cartpole", func(c *Config) {
			c.Controller = "none"
			c.InitState = InitStateConfig{Theta: 0.1}
		}),
	},
	"masschain": {
		"pluck": preset("masschain", func(c *Config) {
			c.Controller = "none"
			c.InitState = InitStateConfig{Pos: 1}
		}),
		"damped": preset("masschain", func(c *Config) {
			c.InitState = InitStateConfig{Pos: 1}
			c.Quadrature = "simpson"
		}),
		"push": preset("masschain", func(c *Config) {
			c.Controller = "pid"
			c.Masses = 4
			c.ControllerParams.Target = 0.5
			c.Goal.DivideByDisplacement = true
			c.Goal.Weights = goal.NewWeightSet(goal.Weight{Name: "force_3", Weight: 0})
		}),
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(model, preset string) *Config {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	cfg, ok := modelPresets[preset]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets(model string) []string {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modelPresets))
	for name := range modelPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
