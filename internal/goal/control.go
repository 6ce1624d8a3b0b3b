package goal

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/san-kum/trajcost/internal/dynamo"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	DefaultExponent = 2.0
	DefaultWeight   = 1.0
)

// BoundControl links a control-vector position to its weight and name.
type BoundControl struct {
	Index  int
	Weight float64
	Name   string
}

// ControlGoal penalizes actuator effort: the integrand is
// sum_i w_i * |u[i]|^p over bound controls. Controls default to weight 1;
// a weight of exactly 0 drops the control from the sum.
type ControlGoal struct {
	name                 string
	weights              *WeightSet
	exponent             float64
	divideByDisplacement bool
	logger               *zap.Logger

	// frozen by Initialize
	model       Model
	bound       []BoundControl
	p           float64
	divide      bool
	minLen      int
	initialized bool
}

var _ Goal = (*ControlGoal)(nil)

func NewControlGoal(name string) *ControlGoal {
	return &ControlGoal{
		name:     name,
		weights:  NewWeightSet(),
		exponent: DefaultExponent,
		logger:   zap.NewNop(),
	}
}

func (g *ControlGoal) Name() string { return g.name }

func (g *ControlGoal) SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	g.logger = l
}

func (g *ControlGoal) SetWeightForControl(name string, weight float64) {
	g.weights.SetWeight(name, weight)
}

// SetWeights replaces the weight table with a copy of ws.
func (g *ControlGoal) SetWeights(ws *WeightSet) {
	if ws == nil {
		g.weights = NewWeightSet()
		return
	}
	g.weights = ws.Clone()
}

func (g *ControlGoal) Weights() *WeightSet { return g.weights }

func (g *ControlGoal) SetExponent(p float64) { g.exponent = p }
func (g *ControlGoal) Exponent() float64     { return g.exponent }

func (g *ControlGoal) SetDivideByDisplacement(on bool) { g.divideByDisplacement = on }
func (g *ControlGoal) DivideByDisplacement() bool      { return g.divideByDisplacement }

func (g *ControlGoal) NumIntegrals() int { return 1 }
func (g *ControlGoal) NumOutputs() int   { return 1 }

// Bound returns a copy of the frozen control list.
func (g *ControlGoal) Bound() []BoundControl {
	out := make([]BoundControl, len(g.bound))
	copy(out, g.bound)
	return out
}

// Initialize resolves weights against m's control names and freezes the
// result. On error the goal keeps its previous binding, if any.
func (g *ControlGoal) Initialize(m Model) error {
	names := m.ControlNames()

	if err := m.CheckControlOrder(); err != nil {
		if !errors.Is(err, ErrControlOrder) {
			err = fmt.Errorf("%w: %v", ErrControlOrder, err)
		}
		return fmt.Errorf("goal %q: %w", g.name, err)
	}
	indexMap := m.ControlIndexMap()

	known := make(map[string]struct{}, len(names))
	for _, name := range names {
		known[name] = struct{}{}
	}
	for _, w := range g.weights.Entries() {
		if _, ok := known[w.Name]; !ok {
			return &ConfigError{Goal: g.name, Field: "control", Value: strconv.Quote(w.Name), Err: ErrUnrecognizedControl}
		}
		if math.IsNaN(w.Weight) || math.IsInf(w.Weight, 0) {
			return &ConfigError{Goal: g.name, Field: "weight", Value: fmt.Sprintf("%s=%g", w.Name, w.Weight), Err: ErrInvalidWeight}
		}
	}

	bound := make([]BoundControl, 0, len(names))
	minLen := 0
	for _, name := range names {
		weight := DefaultWeight
		if w, ok := g.weights.Get(name); ok {
			weight = w
		}
		if weight == 0 {
			continue
		}
		idx, ok := indexMap[name]
		if !ok || idx < 0 {
			return fmt.Errorf("goal %q: %w: no index for %q", g.name, ErrControlOrder, name)
		}
		bound = append(bound, BoundControl{Index: idx, Weight: weight, Name: name})
		if idx+1 > minLen {
			minLen = idx + 1
		}
	}

	if !(g.exponent >= 2) || math.IsInf(g.exponent, 1) {
		return &ConfigError{Goal: g.name, Field: "exponent", Value: strconv.FormatFloat(g.exponent, 'g', -1, 64), Err: ErrInvalidExponent}
	}

	g.model = m
	g.bound = bound
	g.p = g.exponent
	g.divide = g.divideByDisplacement
	g.minLen = minLen
	g.initialized = true

	g.logger.Debug("control goal initialized",
		zap.String("goal", g.name),
		zap.Int("controls", len(names)),
		zap.Int("bound", len(bound)),
		zap.Float64("exponent", g.p),
		zap.Bool("divide_by_displacement", g.divide),
	)
	return nil
}

// Integrand realizes n and returns the weighted effort at that instant.
func (g *ControlGoal) Integrand(n *dynamo.Node) (float64, error) {
	if !g.initialized {
		return 0, ErrNotInitialized
	}
	if err := g.model.Realize(n); err != nil {
		return 0, err
	}
	u := g.model.Controls(n)
	if len(u) < g.minLen {
		return 0, fmt.Errorf("goal %q: %w: %d controls, need %d", g.name, dynamo.ErrDimensionMismatch, len(u), g.minLen)
	}

	sum := 0.0
	if g.p == 2 {
		for _, b := range g.bound {
			v := u[b.Index]
			sum += b.Weight * v * v
		}
		return sum, nil
	}
	for _, b := range g.bound {
		sum += b.Weight * math.Pow(math.Abs(u[b.Index]), g.p)
	}
	return sum, nil
}

// Cost turns the path integral into the goal value, dividing by the
// mass-center displacement between the endpoints when enabled.
func (g *ControlGoal) Cost(in Input) ([]float64, error) {
	if !g.initialized {
		return nil, ErrNotInitialized
	}
	cost := in.Integral
	if g.divide {
		if in.Initial == nil || in.Final == nil {
			return nil, fmt.Errorf("goal %q: %w", g.name, ErrMissingEndpoint)
		}
		initial := g.model.MassCenter(in.Initial)
		final := g.model.MassCenter(in.Final)
		// Plain distance, not squared.
		displacement := r3.Norm(r3.Sub(final, initial))
		if displacement == 0 || math.IsNaN(displacement) || math.IsInf(displacement, 0) {
			return nil, fmt.Errorf("goal %q: %w (displacement %g)", g.name, ErrDegenerateDisplacement, displacement)
		}
		cost /= displacement
	}
	return []float64{cost}, nil
}

func (g *ControlGoal) Describe(w io.Writer) error {
	if !g.initialized {
		return ErrNotInitialized
	}
	for _, b := range g.bound {
		if _, err := fmt.Fprintf(w, "        control: %s, weight: %g\n", b.Name, b.Weight); err != nil {
			return err
		}
	}
	return nil
}
