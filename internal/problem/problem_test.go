package problem_test

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/trajcost/internal/dynamo"
	"github.com/san-kum/trajcost/internal/goal"
	"github.com/san-kum/trajcost/internal/integrators"
	"github.com/san-kum/trajcost/internal/model"
	"github.com/san-kum/trajcost/internal/physics"
	"github.com/san-kum/trajcost/internal/problem"
)

type fixed struct{ u dynamo.Control }

func (f *fixed) Compute(x dynamo.State, t float64) dynamo.Control { return f.u.Clone() }

// twoOutputs declares an arity the problem cannot accumulate.
type twoOutputs struct{}

func (twoOutputs) Name() string                            { return "wide" }
func (twoOutputs) Initialize(goal.Model) error             { return nil }
func (twoOutputs) NumIntegrals() int                       { return 1 }
func (twoOutputs) NumOutputs() int                         { return 2 }
func (twoOutputs) Integrand(*dynamo.Node) (float64, error) { return 0, nil }
func (twoOutputs) Cost(goal.Input) ([]float64, error)      { return []float64{0, 0}, nil }
func (twoOutputs) Describe(io.Writer) error                { return nil }

func chainPlant() *model.Plant {
	return model.NewPlant(physics.NewMassChain(2), &fixed{u: dynamo.Control{1, 2}})
}

// chainTrajectory moves the chain's mean displacement from 0 to 4 over two
// seconds with controls {u0, u1} at every node.
func chainTrajectory(u0, u1 float64) *dynamo.Trajectory {
	return &dynamo.Trajectory{Nodes: []dynamo.Node{
		{Time: 0, X: dynamo.State{0, 0, 0, 0}, U: dynamo.Control{u0, u1}},
		{Time: 1, X: dynamo.State{2, 0, 2, 0}, U: dynamo.Control{u0, u1}},
		{Time: 2, X: dynamo.State{4, 0, 4, 0}, U: dynamo.Control{u0, u1}},
	}}
}

func TestEvaluateBeforeInitialize(t *testing.T) {
	p := problem.New()
	p.AddGoal(goal.NewControlGoal("effort"), 1)

	_, err := p.Evaluate(context.Background(), chainTrajectory(1, 2))
	assert.ErrorIs(t, err, problem.ErrNotInitialized)

	_, err = p.EvaluateAll(context.Background(), []*dynamo.Trajectory{chainTrajectory(1, 2)})
	assert.ErrorIs(t, err, problem.ErrNotInitialized)
}

func TestInitializeRequiresGoals(t *testing.T) {
	assert.ErrorIs(t, problem.New().Initialize(chainPlant()), problem.ErrNoGoals)
}

func TestInitializeChecksArity(t *testing.T) {
	p := problem.New()
	p.AddGoal(twoOutputs{}, 1)
	assert.ErrorIs(t, p.Initialize(chainPlant()), problem.ErrArity)
}

func TestInitializePropagatesGoalErrors(t *testing.T) {
	g := goal.NewControlGoal("effort")
	g.SetWeightForControl("force_9", 1)

	p := problem.New()
	p.AddGoal(g, 1)
	assert.ErrorIs(t, p.Initialize(chainPlant()), goal.ErrUnrecognizedControl)
}

func TestEvaluate(t *testing.T) {
	raw := goal.NewControlGoal("effort")
	perDistance := goal.NewControlGoal("effort_per_distance")
	perDistance.SetDivideByDisplacement(true)

	p := problem.New()
	p.AddGoal(raw, 1)
	p.AddGoal(perDistance, 0.5)
	require.NoError(t, p.Initialize(chainPlant()))

	b, err := p.Evaluate(context.Background(), chainTrajectory(1, 2))
	require.NoError(t, err)
	require.Len(t, b.Terms, 2)

	// integrand 1+4 = 5 held for two seconds, mean displacement 4
	assert.InDelta(t, 10, b.Terms[0].Integral, 1e-12)
	assert.InDelta(t, 10, b.Terms[0].Cost, 1e-12)
	assert.InDelta(t, 2.5, b.Terms[1].Cost, 1e-12)
	assert.InDelta(t, 1.25, b.Terms[1].Weighted, 1e-12)
	assert.InDelta(t, 11.25, b.Total, 1e-12)

	assert.Equal(t, 3, b.Nodes)
	assert.Equal(t, 2.0, b.PeakControl)
	assert.Equal(t, []float64{5, 5, 5}, b.Terms[0].Integrand)
	assert.Equal(t, problem.Summary{Mean: 5, Max: 5, P95: 5}, b.Terms[0].Summary)
}

func TestEvaluateSimpson(t *testing.T) {
	p := problem.New(problem.WithRule(integrators.Simpson))
	p.AddGoal(goal.NewControlGoal("effort"), 1)
	require.NoError(t, p.Initialize(chainPlant()))

	b, err := p.Evaluate(context.Background(), chainTrajectory(0, 3))
	require.NoError(t, err)
	assert.InDelta(t, 18, b.Total, 1e-12)
}

func TestEvaluateRealizesMissingControls(t *testing.T) {
	p := problem.New()
	p.AddGoal(goal.NewControlGoal("effort"), 1)
	require.NoError(t, p.Initialize(chainPlant()))

	traj := chainTrajectory(1, 2)
	for i := range traj.Nodes {
		traj.Nodes[i].U = nil
	}

	b, err := p.Evaluate(context.Background(), traj)
	require.NoError(t, err)
	assert.InDelta(t, 10, b.Total, 1e-12)
	assert.Equal(t, dynamo.Control{1, 2}, traj.Nodes[2].U)
}

func TestEvaluateSingleNode(t *testing.T) {
	p := problem.New()
	p.AddGoal(goal.NewControlGoal("effort"), 1)
	require.NoError(t, p.Initialize(chainPlant()))

	traj := &dynamo.Trajectory{Nodes: chainTrajectory(3, 4).Nodes[:1]}
	b, err := p.Evaluate(context.Background(), traj)
	require.NoError(t, err)
	assert.Zero(t, b.Total)
	assert.Equal(t, problem.Summary{Mean: 25, Max: 25, P95: 25}, b.Terms[0].Summary)
}

func TestEvaluateEmptyTrajectory(t *testing.T) {
	p := problem.New()
	p.AddGoal(goal.NewControlGoal("effort"), 1)
	require.NoError(t, p.Initialize(chainPlant()))

	_, err := p.Evaluate(context.Background(), &dynamo.Trajectory{})
	assert.ErrorIs(t, err, dynamo.ErrEmptyTrajectory)
}

func TestEvaluateDegenerateDisplacement(t *testing.T) {
	g := goal.NewControlGoal("effort")
	g.SetDivideByDisplacement(true)
	p := problem.New()
	p.AddGoal(g, 1)
	require.NoError(t, p.Initialize(chainPlant()))

	traj := chainTrajectory(1, 1)
	traj.Nodes[2].X = dynamo.State{0, 0, 0, 0}
	_, err := p.Evaluate(context.Background(), traj)
	assert.ErrorIs(t, err, goal.ErrDegenerateDisplacement)
}

func TestEvaluateCanceled(t *testing.T) {
	p := problem.New()
	p.AddGoal(goal.NewControlGoal("effort"), 1)
	require.NoError(t, p.Initialize(chainPlant()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Evaluate(ctx, chainTrajectory(1, 2))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEvaluateAllKeepsOrder(t *testing.T) {
	p := problem.New(problem.WithConcurrency(3))
	p.AddGoal(goal.NewControlGoal("effort"), 1)
	require.NoError(t, p.Initialize(chainPlant()))

	trajs := make([]*dynamo.Trajectory, 10)
	for i := range trajs {
		trajs[i] = chainTrajectory(float64(i), 0)
	}

	results, err := p.EvaluateAll(context.Background(), trajs)
	require.NoError(t, err)
	require.Len(t, results, len(trajs))
	for i, b := range results {
		assert.InDelta(t, 2*float64(i*i), b.Total, 1e-9, "candidate %d", i)
	}
}

func TestEvaluateAllReportsFailingCandidate(t *testing.T) {
	p := problem.New()
	p.AddGoal(goal.NewControlGoal("effort"), 1)
	require.NoError(t, p.Initialize(chainPlant()))

	trajs := []*dynamo.Trajectory{chainTrajectory(1, 1), {}}
	_, err := p.EvaluateAll(context.Background(), trajs)
	require.Error(t, err)
	assert.ErrorIs(t, err, dynamo.ErrEmptyTrajectory)
	assert.Contains(t, err.Error(), "candidate 1")
}

func TestAddGoalInvalidatesInitialize(t *testing.T) {
	p := problem.New()
	p.AddGoal(goal.NewControlGoal("effort"), 1)
	require.NoError(t, p.Initialize(chainPlant()))

	p.AddGoal(goal.NewControlGoal("more"), 1)
	_, err := p.Evaluate(context.Background(), chainTrajectory(1, 2))
	assert.ErrorIs(t, err, problem.ErrNotInitialized)
	assert.Len(t, p.Terms(), 2)
}

func TestEvaluateEachKeepsGoodCandidates(t *testing.T) {
	p := problem.New()
	p.AddGoal(goal.NewControlGoal("effort"), 1)
	require.NoError(t, p.Initialize(chainPlant()))

	results, errs, err := p.EvaluateEach(context.Background(), []*dynamo.Trajectory{
		chainTrajectory(1, 0), {}, chainTrajectory(2, 0),
	})
	require.NoError(t, err)
	assert.NoError(t, errs[0])
	assert.ErrorIs(t, errs[1], dynamo.ErrEmptyTrajectory)
	assert.Nil(t, results[1])
	assert.InDelta(t, 8, results[2].Total, 1e-12)
}
