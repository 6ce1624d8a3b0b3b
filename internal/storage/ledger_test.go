package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/trajcost/internal/goal"
)

func openTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := OpenLedger(context.Background(), filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestLedgerRecordAndHistory(t *testing.T) {
	ctx := context.Background()
	l := openTestLedger(t)

	first := Evaluation{
		RunID: "drone_1",
		Goal: GoalSettings{
			Name:     "effort",
			Exponent: 2,
			Weights:  []goal.Weight{{Name: "thrust_left", Weight: 0}},
		},
		Integral:   12,
		Cost:       12,
		Total:      12,
		Quadrature: "trapezoid",
		CreatedAt:  time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	id, err := l.Record(ctx, first)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	second := first
	second.Goal.Exponent = 3
	second.Goal.DivideByDisplacement = true
	second.Goal.Weights = nil
	second.Cost = 4
	_, err = l.Record(ctx, second)
	require.NoError(t, err)

	_, err = l.Record(ctx, Evaluation{RunID: "other", Goal: GoalSettings{Name: "x"}})
	require.NoError(t, err)

	hist, err := l.History(ctx, "drone_1")
	require.NoError(t, err)
	require.Len(t, hist, 2)

	assert.Equal(t, id, hist[0].ID)
	assert.Equal(t, first.Goal, hist[0].Goal)
	assert.True(t, first.CreatedAt.Equal(hist[0].CreatedAt))
	assert.Equal(t, 3.0, hist[1].Goal.Exponent)
	assert.True(t, hist[1].Goal.DivideByDisplacement)
	assert.Nil(t, hist[1].Goal.Weights)
	assert.Equal(t, 4.0, hist[1].Cost)
}

func TestLedgerHistoryUnknownRun(t *testing.T) {
	hist, err := openTestLedger(t).History(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, hist)
}

func TestLedgerClosed(t *testing.T) {
	l := openTestLedger(t)
	require.NoError(t, l.Close())
	require.NoError(t, l.Close())

	_, err := l.Record(context.Background(), Evaluation{RunID: "r"})
	assert.ErrorIs(t, err, ErrLedgerClosed)
	_, err = l.History(context.Background(), "r")
	assert.ErrorIs(t, err, ErrLedgerClosed)
}

func TestOpenLedgerRequiresPath(t *testing.T) {
	_, err := OpenLedger(context.Background(), "")
	assert.Error(t, err)
}
