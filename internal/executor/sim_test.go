package executor

import (
	"context"
	"testing"

	"riptide/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubReserves struct {
	base, quote float64
}

func (s stubReserves) Reserves(ctx context.Context, pair string) (float64, float64, error) {
	return s.base, s.quote, nil
}

func TestRoundTripPnL(t *testing.T) {
	t.Run("flat round trip is zero", func(t *testing.T) {
		pnl, pct := RoundTripPnL(2.0, 2.0, 5000)
		assert.Zero(t, pnl)
		assert.Zero(t, pct)
	})

	t.Run("gain and loss are symmetric", func(t *testing.T) {
		up, upPct := RoundTripPnL(100, 104, 5000)
		down, downPct := RoundTripPnL(100, 96, 5000)
		assert.InDelta(t, 20000.0, up, 1e-9)
		assert.InDelta(t, 0.04, upPct, 1e-12)
		assert.InDelta(t, -up, down, 1e-9)
		assert.InDelta(t, -upPct, downPct, 1e-12)
	})

	t.Run("degenerate inputs report zero", func(t *testing.T) {
		pnl, pct := RoundTripPnL(0, 104, 5000)
		assert.Zero(t, pnl)
		assert.Zero(t, pct)
	})
}

func TestSimBackend_RoundTrip(t *testing.T) {
	ctx := context.Background()
	// No reserves feed: fills land exactly at the observed price.
	sim := NewSimBackend(100000, nil, 30)

	receipt, err := sim.Open(ctx, types.OpenAction{
		Pair:       "WETH/USDC",
		Size:       5000,
		EntryPrice: 2.0,
	})
	require.NoError(t, err)
	assert.Equal(t, 2.0, receipt.FillPrice)
	assert.InDelta(t, 95000.0, sim.Balance(), 1e-9)

	pos := types.Position{ID: "p1", Pair: "WETH/USDC", EntryPrice: receipt.FillPrice, Size: 5000}
	closeReceipt, err := sim.Close(ctx, pos, types.CloseAction{
		PositionID: "p1",
		Pair:       "WETH/USDC",
		Reason:     types.CloseManual,
		ExitPrice:  2.0,
	})
	require.NoError(t, err)

	// Frictionless flat round trip restores the balance exactly.
	assert.Zero(t, closeReceipt.PnL)
	assert.InDelta(t, 100000.0, sim.Balance(), 1e-9)
	assert.Zero(t, sim.TotalPnL())

	ledger := sim.Ledger()
	require.Len(t, ledger, 1)
	assert.Equal(t, "p1", ledger[0].Position.ID)
	assert.Equal(t, types.CloseManual, ledger[0].Reason)
}

func TestSimBackend_InsufficientBalance(t *testing.T) {
	sim := NewSimBackend(1000, nil, 30)

	_, err := sim.Open(context.Background(), types.OpenAction{
		Pair:       "WETH/USDC",
		Size:       5000,
		EntryPrice: 2.0,
	})
	require.Error(t, err)
	// Nothing moved.
	assert.InDelta(t, 1000.0, sim.Balance(), 1e-9)
	assert.Empty(t, sim.Ledger())
}

func TestSimBackend_SlippageAdjustsFills(t *testing.T) {
	ctx := context.Background()
	sim := NewSimBackend(100000, stubReserves{base: 1000000, quote: 2000000}, 30)

	open, err := sim.Open(ctx, types.OpenAction{Pair: "WETH/USDC", Size: 5000, EntryPrice: 2.0})
	require.NoError(t, err)
	assert.Greater(t, open.FillPrice, 2.0, "entry fill pays the impact")

	pos := types.Position{ID: "p1", Pair: "WETH/USDC", EntryPrice: open.FillPrice, Size: 5000}
	closed, err := sim.Close(ctx, pos, types.CloseAction{
		PositionID: "p1", Pair: "WETH/USDC", Reason: types.CloseManual, ExitPrice: 2.0,
	})
	require.NoError(t, err)
	assert.Less(t, closed.ExitPrice, 2.0, "exit fill gives up the impact")
	assert.Negative(t, closed.PnL, "flat price round trip loses the friction")
	assert.Less(t, sim.Balance(), 100000.0)
}

func TestSimBackend_AvailableCapitalTracksBalance(t *testing.T) {
	sim := NewSimBackend(100000, nil, 30)
	capital, err := sim.AvailableCapital(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 100000.0, capital)

	_, err = sim.Open(context.Background(), types.OpenAction{Pair: "WETH/USDC", Size: 4000, EntryPrice: 2.0})
	require.NoError(t, err)
	capital, err = sim.AvailableCapital(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 96000.0, capital)
}
