package goal

import (
	"io"

	"github.com/san-kum/trajcost/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
)

// Model is the dynamical model a goal binds to. Implementations own the
// control layout; goals only read it.
type Model interface {
	// ControlNames lists actuator channels in control-vector order.
	ControlNames() []string
	// ControlIndexMap maps each channel name to its control-vector position.
	ControlIndexMap() map[string]int
	// CheckControlOrder fails if the internal layout disagrees with ControlNames.
	CheckControlOrder() error
	// Realize brings velocity-level quantities of n, including its
	// controls, up to date.
	Realize(n *dynamo.Node) error
	Controls(n *dynamo.Node) dynamo.Control
	MassCenter(n *dynamo.Node) r3.Vec
}

// Input is what the surrounding quadrature hands to Cost once the path
// integral is known.
type Input struct {
	Integral float64
	Initial  *dynamo.Node
	Final    *dynamo.Node
}

// Goal is one term of a trajectory-optimization objective.
//
// Initialize must finish before any Integrand or Cost call. After that the
// goal is read-only and Integrand/Cost may run concurrently.
type Goal interface {
	Name() string
	Initialize(m Model) error
	NumIntegrals() int
	NumOutputs() int
	Integrand(n *dynamo.Node) (float64, error)
	Cost(in Input) ([]float64, error)
	Describe(w io.Writer) error
}
