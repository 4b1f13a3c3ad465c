package decision

import (
	"testing"

	"riptide/internal/model"
	"riptide/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openPosition(id, pair string) types.Position {
	return types.Position{
		ID:            id,
		Pair:          pair,
		EntryPrice:    100,
		Size:          5000,
		StopLossPct:   0.01,
		TakeProfitPct: 0.04,
	}
}

func TestExitEvaluator_Priority(t *testing.T) {
	eval := NewExitEvaluator()
	positions := []types.Position{openPosition("p1", "WETH/USDC")}

	t.Run("stop loss triggers at the exact boundary", func(t *testing.T) {
		actions := eval.Evaluate(positions, map[string]float64{"WETH/USDC": 99.0}, nil)
		require.Len(t, actions, 1)
		assert.Equal(t, types.CloseStopLoss, actions[0].Reason)
		assert.Equal(t, 99.0, actions[0].ExitPrice)
	})

	t.Run("just above the stop does not trigger", func(t *testing.T) {
		actions := eval.Evaluate(positions, map[string]float64{"WETH/USDC": 99.000001}, nil)
		assert.Empty(t, actions)
	})

	t.Run("take profit triggers at the exact boundary", func(t *testing.T) {
		actions := eval.Evaluate(positions, map[string]float64{"WETH/USDC": 104.0}, nil)
		require.Len(t, actions, 1)
		assert.Equal(t, types.CloseTakeProfit, actions[0].Reason)
	})

	t.Run("just below the target does not trigger", func(t *testing.T) {
		actions := eval.Evaluate(positions, map[string]float64{"WETH/USDC": 103.999999}, nil)
		assert.Empty(t, actions)
	})

	t.Run("take profit outranks regime reversal", func(t *testing.T) {
		regimes := map[string]model.Regime{"WETH/USDC": model.RegimeNoTrade}
		actions := eval.Evaluate(positions, map[string]float64{"WETH/USDC": 104.0}, regimes)
		require.Len(t, actions, 1)
		assert.Equal(t, types.CloseTakeProfit, actions[0].Reason)
	})

	t.Run("regime reversal closes between the bands", func(t *testing.T) {
		regimes := map[string]model.Regime{"WETH/USDC": model.RegimeNoTrade}
		actions := eval.Evaluate(positions, map[string]float64{"WETH/USDC": 100.5}, regimes)
		require.Len(t, actions, 1)
		assert.Equal(t, types.CloseRegimeChange, actions[0].Reason)
	})

	t.Run("tradable regime between the bands holds", func(t *testing.T) {
		regimes := map[string]model.Regime{"WETH/USDC": model.RegimeTrend}
		actions := eval.Evaluate(positions, map[string]float64{"WETH/USDC": 100.5}, regimes)
		assert.Empty(t, actions)
	})
}

func TestExitEvaluator_SkipsUnpricedPositions(t *testing.T) {
	eval := NewExitEvaluator()
	positions := []types.Position{
		openPosition("p1", "WETH/USDC"),
		openPosition("p2", "WBTC/USDC"),
	}
	// Only one pair has a price this tick; the other is skipped, not closed.
	actions := eval.Evaluate(positions, map[string]float64{"WBTC/USDC": 90.0}, nil)
	require.Len(t, actions, 1)
	assert.Equal(t, "p2", actions[0].PositionID)
	assert.Equal(t, types.CloseStopLoss, actions[0].Reason)
}

func TestExitEvaluator_OneActionPerPosition(t *testing.T) {
	eval := NewExitEvaluator()
	positions := []types.Position{openPosition("p1", "WETH/USDC")}
	regimes := map[string]model.Regime{"WETH/USDC": model.RegimeNoTrade}
	// Price breaches the stop while the regime also flipped: only the stop fires.
	actions := eval.Evaluate(positions, map[string]float64{"WETH/USDC": 95.0}, regimes)
	require.Len(t, actions, 1)
	assert.Equal(t, types.CloseStopLoss, actions[0].Reason)
}
