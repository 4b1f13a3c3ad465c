package decisionlog

import (
	"context"
	"path/filepath"
	"testing"

	"riptide/internal/engine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_RecordAndRecent(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "decisions.db"))
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.RecordDecision(ctx, engine.DecisionRecord{
		Pair:    "WETH/USDC",
		Outcome: "rejected",
		Reason:  "ev_below_threshold",
		Price:   2.0,
		Regime:  "TREND",
	}))
	require.NoError(t, s.RecordDecision(ctx, engine.DecisionRecord{
		Pair:     "WETH/USDC",
		Outcome:  "approved",
		Price:    2.0,
		Size:     5000,
		P:        0.9,
		EV:       120.3,
		Friction: 0.011,
		Regime:   "TREND",
	}))

	rows, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// Newest first.
	assert.Equal(t, "approved", rows[0].Outcome)
	assert.InDelta(t, 5000.0, rows[0].Size, 1e-9)
	assert.Equal(t, "rejected", rows[1].Outcome)
	assert.Equal(t, "ev_below_threshold", rows[1].Reason)
}

func TestStore_RecentLimit(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "decisions.db"))
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, s.RecordDecision(ctx, engine.DecisionRecord{Pair: "WETH/USDC", Outcome: "rejected"}))
	}
	rows, err := s.Recent(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}
