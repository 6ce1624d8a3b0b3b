// Package model adapts physics systems and control laws into the model a
// goal binds to.
package model

import (
	"fmt"

	"github.com/san-kum/trajcost/internal/dynamo"
	"github.com/san-kum/trajcost/internal/goal"
	"gonum.org/v1/gonum/spatial/r3"
)

// System is a dynamical system that names its actuators.
type System interface {
	dynamo.System
	Actuators() []string
	ControlLayout() map[string]int
	MassCenter(x dynamo.State) r3.Vec
}

// Plant pairs a System with the controller that drives it. Nodes recorded
// without controls are realized by evaluating the controller at the node.
type Plant struct {
	sys    System
	ctrl   dynamo.Controller
	names  []string
	layout map[string]int
}

var _ goal.Model = (*Plant)(nil)

func NewPlant(sys System, ctrl dynamo.Controller) *Plant {
	return &Plant{
		sys:    sys,
		ctrl:   ctrl,
		names:  sys.Actuators(),
		layout: sys.ControlLayout(),
	}
}

func (p *Plant) System() System                { return p.sys }
func (p *Plant) Controller() dynamo.Controller { return p.ctrl }

func (p *Plant) ControlNames() []string {
	return append([]string(nil), p.names...)
}

func (p *Plant) ControlIndexMap() map[string]int {
	out := make(map[string]int, len(p.layout))
	for k, v := range p.layout {
		out[k] = v
	}
	return out
}

// CheckControlOrder verifies that the i-th actuator name sits at position i
// of the control vector and that the layout has nothing else in it.
func (p *Plant) CheckControlOrder() error {
	if len(p.names) != p.sys.ControlDim() {
		return fmt.Errorf("%w: %d actuator names for %d controls", goal.ErrControlOrder, len(p.names), p.sys.ControlDim())
	}
	if len(p.layout) != len(p.names) {
		return fmt.Errorf("%w: layout has %d entries for %d actuators", goal.ErrControlOrder, len(p.layout), len(p.names))
	}
	for i, name := range p.names {
		idx, ok := p.layout[name]
		if !ok {
			return fmt.Errorf("%w: actuator %q missing from layout", goal.ErrControlOrder, name)
		}
		if idx != i {
			return fmt.Errorf("%w: actuator %q declared at %d, laid out at %d", goal.ErrControlOrder, name, i, idx)
		}
	}
	return nil
}

func (p *Plant) Realize(n *dynamo.Node) error {
	if len(n.X) != p.sys.StateDim() {
		return fmt.Errorf("realize t=%.4f: %w: state has %d entries, want %d",
			n.Time, dynamo.ErrDimensionMismatch, len(n.X), p.sys.StateDim())
	}
	switch len(n.U) {
	case p.sys.ControlDim():
		return nil
	case 0:
	default:
		return fmt.Errorf("realize t=%.4f: %w: node has %d controls, want %d",
			n.Time, dynamo.ErrDimensionMismatch, len(n.U), p.sys.ControlDim())
	}
	if p.ctrl == nil {
		return fmt.Errorf("realize t=%.4f: %w: node has no controls and no controller",
			n.Time, dynamo.ErrDimensionMismatch)
	}
	u := p.ctrl.Compute(n.X, n.Time)
	if len(u) != p.sys.ControlDim() {
		return fmt.Errorf("realize t=%.4f: %w: controller produced %d controls, want %d",
			n.Time, dynamo.ErrDimensionMismatch, len(u), p.sys.ControlDim())
	}
	n.U = u
	return nil
}

func (p *Plant) Controls(n *dynamo.Node) dynamo.Control { return n.U }

func (p *Plant) MassCenter(n *dynamo.Node) r3.Vec { return p.sys.MassCenter(n.X) }
