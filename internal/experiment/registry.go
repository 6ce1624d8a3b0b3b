package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/trajcost/internal/control"
	"github.com/san-kum/trajcost/internal/dynamo"
	"github.com/san-kum/trajcost/internal/integrators"
	"github.com/san-kum/trajcost/internal/model"
	"github.com/san-kum/trajcost/internal/physics"
)

type (
	ModelFactory      func(params map[string]float64) model.System
	ControllerFactory func(sys model.System, params map[string]float64) (dynamo.Controller, error)
)

type Registry struct {
	models      map[string]ModelFactory
	integrators map[string]func() dynamo.Integrator
	controllers map[string]ControllerFactory
}

func NewRegistry() *Registry {
	r := &Registry{
		models:      make(map[string]ModelFactory),
		integrators: make(map[string]func() dynamo.Integrator),
		controllers: make(map[string]ControllerFactory),
	}

	r.models["drone"] = func(map[string]float64) model.System { return physics.NewDrone() }
	r.models["cartpole"] = func(map[string]float64) model.System { return physics.NewCartPole() }
	r.models["masschain"] = func(params map[string]float64) model.System {
		n := int(params["masses"])
		if n < 1 {
			n = 3
		}
		return physics.NewMassChain(n)
	}

	r.integrators["euler"] = func() dynamo.Integrator { return integrators.NewEuler() }
	r.integrators["rk4"] = func() dynamo.Integrator { return integrators.NewRK4() }

	r.controllers["none"] = func(sys model.System, _ map[string]float64) (dynamo.Controller, error) {
		return control.NewNone(sys.ControlDim()), nil
	}
	r.controllers["pid"] = func(sys model.System, params map[string]float64) (dynamo.Controller, error) {
		return control.NewPID(params["kp"], params["ki"], params["kd"], params["target"], sys.ControlDim()), nil
	}
	r.controllers["lqr"] = newLQR

	return r
}

func newLQR(sys model.System, params map[string]float64) (dynamo.Controller, error) {
	switch s := sys.(type) {
	case *physics.Drone:
		return control.NewDroneLQR(params["target"], s.HoverThrust()), nil
	case *physics.CartPole:
		return control.NewCartPoleLQR(), nil
	case *physics.MassChain:
		return control.NewDiagonalLQR(s.ControlDim(), params["kp"], params["kd"]), nil
	}
	return nil, fmt.Errorf("no lqr gains for %T", sys)
}

func (r *Registry) RegisterModel(name string, fn ModelFactory) { r.models[name] = fn }

func (r *Registry) RegisterController(name string, fn ControllerFactory) { r.controllers[name] = fn }

func (r *Registry) GetModel(name string, params map[string]float64) (model.System, error) {
	fn, ok := r.models[name]
	if !ok {
		return nil, fmt.Errorf("unknown model: %s", name)
	}
	return fn(params), nil
}

func (r *Registry) GetIntegrator(name string) (dynamo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}

func (r *Registry) GetController(name string, sys model.System, params map[string]float64) (dynamo.Controller, error) {
	fn, ok := r.controllers[name]
	if !ok {
		return nil, fmt.Errorf("unknown controller: %s", name)
	}
	return fn(sys, params)
}

func (r *Registry) ListModels() []string      { return sortedKeys(r.models) }
func (r *Registry) ListIntegrators() []string { return sortedKeys(r.integrators) }
func (r *Registry) ListControllers() []string { return sortedKeys(r.controllers) }

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
