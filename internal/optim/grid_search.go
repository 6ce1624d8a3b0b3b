// Package optim tunes controller parameters against a problem's objective.
package optim

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/trajcost/internal/dynamo"
	"github.com/san-kum/trajcost/internal/problem"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ErrInvalidGrid = errors.New("optim: invalid grid")
	ErrAllFailed   = errors.New("optim: every grid point failed")
)

// Builder produces the trajectory for one grid point. Returned trajectories
// must carry their controls; the problem does not re-run controllers for them.
type Builder func(ctx context.Context, params map[string]float64) (*dynamo.Trajectory, error)

type Point struct {
	Params map[string]float64
	Cost   float64
	Err    error
}

type Result struct {
	Best     map[string]float64
	BestCost float64
	Points   []Point
}

type GridSearch struct {
	paramNames  []string
	ranges      [][]float64
	concurrency int
	logger      *zap.Logger
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) == 0 || len(params) != len(ranges) {
		return nil, fmt.Errorf("%w: %d names for %d ranges", ErrInvalidGrid, len(params), len(ranges))
	}
	for i, r := range ranges {
		if len(r) == 0 {
			return nil, fmt.Errorf("%w: no values for %q", ErrInvalidGrid, params[i])
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges, concurrency: 4, logger: zap.NewNop()}, nil
}

func (g *GridSearch) SetLogger(l *zap.Logger) {
	if l != nil {
		g.logger = l
	}
}

func (g *GridSearch) SetConcurrency(n int) {
	if n > 0 {
		g.concurrency = n
	}
}

// Points enumerates the Cartesian product of the ranges, last parameter
// varying fastest.
func (g *GridSearch) Points() []map[string]float64 {
	var out []map[string]float64
	g.enumerate(0, map[string]float64{}, &out)
	return out
}

func (g *GridSearch) enumerate(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.paramNames) {
		*out = append(*out, current)
		return
	}
	name := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		next := make(map[string]float64, len(current)+1)
		for k, v := range current {
			next[k] = v
		}
		next[name] = val
		g.enumerate(depth+1, next, out)
	}
}

// Search builds a trajectory per grid point, evaluates them all against prob
// and returns the lowest total. prob must already be initialized.
func (g *GridSearch) Search(ctx context.Context, build Builder, prob *problem.Problem) (*Result, error) {
	params := g.Points()
	points := make([]Point, len(params))
	trajs := make([]*dynamo.Trajectory, len(params))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.concurrency)
	for i, p := range params {
		points[i].Params = p
		eg.Go(func() error {
			traj, err := build(egCtx, p)
			if err != nil {
				points[i].Err = err
				return nil
			}
			trajs[i] = traj
			return nil
		})
	}
	_ = eg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	built := make([]*dynamo.Trajectory, 0, len(trajs))
	index := make([]int, 0, len(trajs))
	for i, traj := range trajs {
		if points[i].Err == nil {
			built = append(built, traj)
			index = append(index, i)
		}
	}

	breakdowns, errs, err := prob.EvaluateEach(ctx, built)
	if err != nil {
		return nil, err
	}

	res := &Result{BestCost: math.Inf(1), Points: points}
	for j, i := range index {
		if errs[j] != nil {
			points[i].Err = errs[j]
			continue
		}
		points[i].Cost = breakdowns[j].Total
		if points[i].Cost < res.BestCost {
			res.BestCost = points[i].Cost
			res.Best = points[i].Params
		}
	}

	failed := 0
	for _, p := range points {
		if p.Err != nil {
			failed++
			g.logger.Debug("grid point failed", zap.Any("params", p.Params), zap.Error(p.Err))
		}
	}
	if res.Best == nil {
		return res, fmt.Errorf("%w: %d points", ErrAllFailed, failed)
	}
	g.logger.Info("grid search done",
		zap.Int("points", len(points)),
		zap.Int("failed", failed),
		zap.Float64("best", res.BestCost),
	)
	return res, nil
}
