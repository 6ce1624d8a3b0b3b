package goal_test

import (
	"fmt"

	"github.com/san-kum/trajcost/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
)

// fakeModel reads controls straight from the node and the mass center from
// the first three state entries.
type fakeModel struct {
	names    []string
	layout   map[string]int
	orderErr error
	realized int
}

func newFakeModel(names ...string) *fakeModel {
	layout := make(map[string]int, len(names))
	for i, n := range names {
		layout[n] = i
	}
	return &fakeModel{names: names, layout: layout}
}

func (m *fakeModel) ControlNames() []string          { return m.names }
func (m *fakeModel) ControlIndexMap() map[string]int { return m.layout }
func (m *fakeModel) CheckControlOrder() error        { return m.orderErr }

func (m *fakeModel) Realize(n *dynamo.Node) error {
	m.realized++
	if len(n.U) != len(m.names) {
		return fmt.Errorf("node has %d controls, want %d", len(n.U), len(m.names))
	}
	return nil
}

func (m *fakeModel) Controls(n *dynamo.Node) dynamo.Control { return n.U }

func (m *fakeModel) MassCenter(n *dynamo.Node) r3.Vec {
	var v [3]float64
	copy(v[:], n.X)
	return r3.Vec{X: v[0], Y: v[1], Z: v[2]}
}
