package physics

import (
	"fmt"

	"github.com/san-kum/trajcost/internal/dynamo"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
)

// MassChain is a line of masses joined by springs between two walls, with
// one force actuator per mass.
// State: [x1, v1, x2, v2, ..., xN, vN] where x is displacement along the chain.
type MassChain struct {
	n       int
	k       float64 // spring constant
	m       float64 // mass of each particle
	damping float64
}

func NewMassChain(n int) *MassChain {
	return &MassChain{
		n:       n,
		k:       100.0,
		m:       DefaultMass,
		damping: 0.1,
	}
}

func (mc *MassChain) StateDim() int   { return mc.n * 2 }
func (mc *MassChain) ControlDim() int { return mc.n }

func (mc *MassChain) Actuators() []string {
	names := make([]string, mc.n)
	for i := range names {
		names[i] = fmt.Sprintf("force_%d", i)
	}
	return names
}

func (mc *MassChain) ControlLayout() map[string]int {
	layout := make(map[string]int, mc.n)
	for i := 0; i < mc.n; i++ {
		layout[fmt.Sprintf("force_%d", i)] = i
	}
	return layout
}

func (mc *MassChain) Derive(state dynamo.State, u dynamo.Control, _ float64) dynamo.State {
	deriv := make(dynamo.State, mc.n*2)

	for i := 0; i < mc.n; i++ {
		x := state[i*2]
		v := state[i*2+1]

		// walls at both ends are fixed at zero displacement
		xLeft, xRight := 0.0, 0.0
		if i > 0 {
			xLeft = state[(i-1)*2]
		}
		if i < mc.n-1 {
			xRight = state[(i+1)*2]
		}

		force := mc.k*(xLeft-x) + mc.k*(xRight-x) - mc.damping*v
		if i < len(u) {
			force += u[i]
		}

		deriv[i*2] = v
		deriv[i*2+1] = force / mc.m
	}

	return deriv
}

// MassCenter returns the mean displacement, placed on the x axis.
func (mc *MassChain) MassCenter(state dynamo.State) r3.Vec {
	if mc.n == 0 {
		return r3.Vec{}
	}
	xs := make([]float64, mc.n)
	for i := range xs {
		xs[i] = state[i*2]
	}
	return r3.Vec{X: floats.Sum(xs) / float64(mc.n)}
}

func (mc *MassChain) DefaultState() dynamo.State {
	state := make(dynamo.State, mc.n*2)
	if mc.n > 0 {
		state[0] = 1.0
	}
	if mc.n > 2 {
		state[2] = 0.5
	}
	return state
}

func (mc *MassChain) GetParams() map[string]float64 {
	return map[string]float64{
		"k":       mc.k,
		"mass":    mc.m,
		"damping": mc.damping,
	}
}

func (mc *MassChain) SetParam(name string, value float64) error {
	switch name {
	case "k":
		mc.k = value
	case "mass":
		mc.m = value
	case "damping":
		mc.damping = value
	default:
		return fmt.Errorf("masschain: unknown param: %s", name)
	}
	return nil
}
