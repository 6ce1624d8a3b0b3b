package control

import "github.com/san-kum/trajcost/internal/dynamo"

type None struct {
	dim int
}

func NewNone(dim int) *None {
	return &None{dim: dim}
}

func (n *None) Compute(x dynamo.State, t float64) dynamo.Control {
	return make(dynamo.Control, n.dim)
}

// Scaled multiplies every output of Inner by Gain.
type Scaled struct {
	Inner dynamo.Controller
	Gain  float64
}

func NewScaled(inner dynamo.Controller, gain float64) *Scaled {
	return &Scaled{Inner: inner, Gain: gain}
}

func (s *Scaled) Compute(x dynamo.State, t float64) dynamo.Control {
	u := s.Inner.Compute(x, t)
	for i := range u {
		u[i] *= s.Gain
	}
	return u
}
