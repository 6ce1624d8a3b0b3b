package dynamo

import (
	"math"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// Control is the actuator input vector. Its layout is owned by the system
// that consumes it.
type Control []float64

func (u Control) Clone() Control {
	if u == nil {
		return nil
	}
	c := make(Control, len(u))
	copy(c, u)
	return c
}

type System interface {
	Derive(x State, u Control, t float64) State
	StateDim() int
	ControlDim() int
}

type Integrator interface {
	Step(dyn System, x State, u Control, t float64, dt float64) State
}

type Controller interface {
	Compute(x State, t float64) Control
}

type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

// Node is one instant of a trajectory. U may be nil until the owning model
// realizes the node.
type Node struct {
	Time float64
	X    State
	U    Control
}

type Trajectory struct {
	Nodes []Node
}

func (tr *Trajectory) Len() int { return len(tr.Nodes) }

func (tr *Trajectory) Initial() (*Node, error) {
	if len(tr.Nodes) == 0 {
		return nil, ErrEmptyTrajectory
	}
	return &tr.Nodes[0], nil
}

func (tr *Trajectory) Final() (*Node, error) {
	if len(tr.Nodes) == 0 {
		return nil, ErrEmptyTrajectory
	}
	return &tr.Nodes[len(tr.Nodes)-1], nil
}

func (tr *Trajectory) Times() []float64 {
	times := make([]float64, len(tr.Nodes))
	for i := range tr.Nodes {
		times[i] = tr.Nodes[i].Time
	}
	return times
}

// Clone deep-copies every node so the copy can be realized independently.
func (tr *Trajectory) Clone() *Trajectory {
	out := &Trajectory{Nodes: make([]Node, len(tr.Nodes))}
	for i, n := range tr.Nodes {
		out.Nodes[i] = Node{Time: n.Time, X: n.X.Clone(), U: n.U.Clone()}
	}
	return out
}
