// Package problem combines goals into a weighted objective and evaluates it
// over recorded trajectories. It owns the running integrals; goals only
// provide integrands and endpoint formulas.
package problem

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"

	"github.com/montanaflynn/stats"
	"github.com/san-kum/trajcost/internal/dynamo"
	"github.com/san-kum/trajcost/internal/goal"
	"github.com/san-kum/trajcost/internal/integrators"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

var (
	ErrNotInitialized = errors.New("problem: not initialized")
	ErrArity          = errors.New("problem: goal must produce one output and at most one integral")
	ErrNoGoals        = errors.New("problem: no goals")
)

type Term struct {
	Goal   goal.Goal
	Weight float64
}

type Summary struct {
	Mean float64
	Max  float64
	P95  float64
}

type TermCost struct {
	Name      string
	Weight    float64
	Integral  float64
	Cost      float64
	Weighted  float64
	Integrand []float64
	Summary   Summary
}

type Breakdown struct {
	Total       float64
	Terms       []TermCost
	Nodes       int
	PeakControl float64
}

type Problem struct {
	terms       []Term
	rule        integrators.Rule
	concurrency int
	logger      *zap.Logger

	model       goal.Model
	initialized bool
}

type Option func(*Problem)

func WithRule(r integrators.Rule) Option { return func(p *Problem) { p.rule = r } }

func WithConcurrency(n int) Option {
	return func(p *Problem) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(p *Problem) {
		if l != nil {
			p.logger = l
		}
	}
}

func New(opts ...Option) *Problem {
	p := &Problem{
		rule:        integrators.Trapezoid,
		concurrency: runtime.GOMAXPROCS(0),
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// AddGoal appends a term. Adding a goal invalidates any earlier Initialize.
func (p *Problem) AddGoal(g goal.Goal, weight float64) {
	p.terms = append(p.terms, Term{Goal: g, Weight: weight})
	p.initialized = false
}

func (p *Problem) Terms() []Term {
	return append([]Term(nil), p.terms...)
}

// Initialize binds every goal to m. It must not run concurrently with
// Evaluate or EvaluateAll.
func (p *Problem) Initialize(m goal.Model) error {
	p.initialized = false
	if len(p.terms) == 0 {
		return ErrNoGoals
	}
	for _, t := range p.terms {
		if err := t.Goal.Initialize(m); err != nil {
			return err
		}
		if t.Goal.NumOutputs() != 1 || t.Goal.NumIntegrals() > 1 {
			return fmt.Errorf("%w: %q declares %d outputs, %d integrals",
				ErrArity, t.Goal.Name(), t.Goal.NumOutputs(), t.Goal.NumIntegrals())
		}
	}
	p.model = m
	p.initialized = true
	p.logger.Debug("problem initialized", zap.Int("goals", len(p.terms)), zap.String("quadrature", string(p.rule)))
	return nil
}

// Evaluate realizes traj and computes every term. The trajectory's nodes are
// written to (controls filled in), so traj must not be shared with another
// concurrent evaluation.
func (p *Problem) Evaluate(ctx context.Context, traj *dynamo.Trajectory) (*Breakdown, error) {
	if !p.initialized {
		return nil, ErrNotInitialized
	}
	if err := p.realize(traj); err != nil {
		return nil, err
	}
	return p.evaluate(ctx, traj)
}

// EvaluateAll realizes every candidate sequentially, then evaluates them in
// parallel. Results are returned in input order.
func (p *Problem) EvaluateAll(ctx context.Context, trajs []*dynamo.Trajectory) ([]*Breakdown, error) {
	if !p.initialized {
		return nil, ErrNotInitialized
	}
	for i, traj := range trajs {
		if err := p.realize(traj); err != nil {
			return nil, fmt.Errorf("candidate %d: %w", i, err)
		}
	}

	results := make([]*Breakdown, len(trajs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, traj := range trajs {
		g.Go(func() error {
			b, err := p.evaluate(ctx, traj)
			if err != nil {
				return fmt.Errorf("candidate %d: %w", i, err)
			}
			results[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// EvaluateEach is EvaluateAll with failures kept per candidate: errs[i] is
// set when trajs[i] could not be evaluated and results[i] is nil. Only
// cancellation of ctx is returned as err.
func (p *Problem) EvaluateEach(ctx context.Context, trajs []*dynamo.Trajectory) (results []*Breakdown, errs []error, err error) {
	if !p.initialized {
		return nil, nil, ErrNotInitialized
	}
	results = make([]*Breakdown, len(trajs))
	errs = make([]error, len(trajs))
	for i, traj := range trajs {
		errs[i] = p.realize(traj)
	}

	g := new(errgroup.Group)
	g.SetLimit(p.concurrency)
	for i, traj := range trajs {
		if errs[i] != nil {
			continue
		}
		g.Go(func() error {
			results[i], errs[i] = p.evaluate(ctx, traj)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	return results, errs, nil
}

func (p *Problem) realize(traj *dynamo.Trajectory) error {
	if traj == nil || traj.Len() == 0 {
		return dynamo.ErrEmptyTrajectory
	}
	for i := range traj.Nodes {
		if err := p.model.Realize(&traj.Nodes[i]); err != nil {
			return err
		}
	}
	return nil
}

func (p *Problem) evaluate(ctx context.Context, traj *dynamo.Trajectory) (*Breakdown, error) {
	initial, _ := traj.Initial()
	final, _ := traj.Final()
	times := traj.Times()

	b := &Breakdown{Nodes: traj.Len(), Terms: make([]TermCost, 0, len(p.terms))}
	for i := range traj.Nodes {
		if u := p.model.Controls(&traj.Nodes[i]); len(u) > 0 {
			b.PeakControl = math.Max(b.PeakControl, floats.Norm(u, math.Inf(1)))
		}
	}

	for _, t := range p.terms {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		tc := TermCost{Name: t.Goal.Name(), Weight: t.Weight}
		if t.Goal.NumIntegrals() == 1 {
			values := make([]float64, traj.Len())
			for i := range traj.Nodes {
				v, err := t.Goal.Integrand(&traj.Nodes[i])
				if err != nil {
					return nil, fmt.Errorf("%s at t=%.4f: %w", tc.Name, traj.Nodes[i].Time, err)
				}
				values[i] = v
			}
			integral, err := integrators.Quadrature(p.rule, times, values)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", tc.Name, err)
			}
			tc.Integral = integral
			tc.Integrand = values
			tc.Summary = summarize(values)
		}

		cost, err := t.Goal.Cost(goal.Input{Integral: tc.Integral, Initial: initial, Final: final})
		if err != nil {
			return nil, err
		}
		tc.Cost = cost[0]
		tc.Weighted = t.Weight * tc.Cost
		b.Total += tc.Weighted
		b.Terms = append(b.Terms, tc)

		p.logger.Debug("term evaluated",
			zap.String("goal", tc.Name),
			zap.Float64("integral", tc.Integral),
			zap.Float64("cost", tc.Cost),
		)
	}
	return b, nil
}

func summarize(values []float64) Summary {
	var s Summary
	data := stats.Float64Data(values)
	s.Mean, _ = data.Mean()
	s.Max, _ = data.Max()
	p95, err := data.Percentile(95)
	if err != nil {
		p95 = s.Max
	}
	s.P95 = p95
	return s
}
