package decision

import (
	"fmt"
	"testing"

	"riptide/internal/market"
	"riptide/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// steadyWindow builds a gently trending candle window long enough for the
// feature builder.
func steadyWindow(n int, start float64) market.Window {
	w := make(market.Window, n)
	price := start
	for i := range w {
		price *= 1.0005
		w[i] = market.Candle{
			OpenTime:  int64(i) * 3600_000,
			CloseTime: int64(i+1)*3600_000 - 1,
			Open:      price * 0.9995,
			High:      price * 1.001,
			Low:       price * 0.999,
			Close:     price,
			Volume:    1000,
		}
	}
	return w
}

type failingEdge struct{}

func (failingEdge) Predict([]float64) (float64, error) {
	return 0, fmt.Errorf("artifact missing")
}

func goodInput() EntryInput {
	return EntryInput{
		Pair:         "WETH/USDC",
		Price:        2.0,
		Window:       steadyWindow(60, 2.0),
		ReserveBase:  1000000,
		ReserveQuote: 2000000,
		Capital:      100000,
	}
}

func pipelineWith(edge model.EdgeModel, regime model.Regime) *EntryPipeline {
	models := model.NewStaticRegistry(
		edge,
		model.StaticRegimeModel{Label: regime},
		model.StaticFrictionModel{},
	)
	return NewEntryPipeline(testRisk(), models)
}

func TestEntryPipeline_Approves(t *testing.T) {
	p := pipelineWith(model.StaticEdgeModel{P: 0.9}, model.RegimeTrend)

	d := p.Evaluate(goodInput())
	require.True(t, d.Approved(), "expected approval, got reject=%q fault=%v", d.Reject, d.Fault)

	action := d.Action
	assert.Equal(t, "WETH/USDC", action.Pair)
	assert.InDelta(t, 5000.0, action.Size, 1e-9)
	assert.Equal(t, 0.9, action.P)
	assert.Equal(t, 0.01, action.StopLossPct)
	assert.Equal(t, 0.04, action.TakeProfitPct)
	assert.Equal(t, model.RegimeTrend, action.Regime)
	assert.Greater(t, action.EV, 0.0)
	assert.Greater(t, action.Friction, 0.0)
	assert.LessOrEqual(t, action.Friction, 0.10)
	assert.InDelta(t, 2.0*0.99, action.StopLossPrice, 1e-9)
	assert.InDelta(t, 2.0*1.04, action.TakeProfitPrice, 1e-9)
	assert.NotContains(t, action.Metadata, "edge_fallback")
}

func TestEntryPipeline_ShortCircuits(t *testing.T) {
	t.Run("missing price is an availability fault", func(t *testing.T) {
		p := pipelineWith(model.StaticEdgeModel{P: 0.9}, model.RegimeTrend)
		in := goodInput()
		in.Price = 0
		d := p.Evaluate(in)
		require.NotNil(t, d.Fault)
		assert.Equal(t, FaultUnavailable, d.Fault.Kind)
		assert.Equal(t, "price", d.Fault.Stage)
	})

	t.Run("short candle window is an availability fault", func(t *testing.T) {
		p := pipelineWith(model.StaticEdgeModel{P: 0.9}, model.RegimeTrend)
		in := goodInput()
		in.Window = steadyWindow(10, 2.0)
		d := p.Evaluate(in)
		require.NotNil(t, d.Fault)
		assert.Equal(t, FaultUnavailable, d.Fault.Kind)
		assert.Equal(t, "features", d.Fault.Stage)
	})

	t.Run("no-trade regime rejects", func(t *testing.T) {
		p := pipelineWith(model.StaticEdgeModel{P: 0.9}, model.RegimeNoTrade)
		d := p.Evaluate(goodInput())
		assert.False(t, d.Approved())
		assert.Equal(t, RejectRegime, d.Reject)
	})

	t.Run("thin pool forces no-trade regardless of the model", func(t *testing.T) {
		p := pipelineWith(model.StaticEdgeModel{P: 0.9}, model.RegimeTrend)
		in := goodInput()
		in.ReserveBase = 100
		in.ReserveQuote = 100
		d := p.Evaluate(in)
		assert.Equal(t, RejectRegime, d.Reject)
	})

	t.Run("no capital rejects on sizing", func(t *testing.T) {
		p := pipelineWith(model.StaticEdgeModel{P: 0.9}, model.RegimeTrend)
		in := goodInput()
		in.Capital = 0
		d := p.Evaluate(in)
		assert.Equal(t, RejectSizing, d.Reject)
	})

	t.Run("weak edge rejects below the ev threshold", func(t *testing.T) {
		// p=0.1: 0.1*200 - 0.9*50 < 0 long before friction.
		p := pipelineWith(model.StaticEdgeModel{P: 0.1}, model.RegimeTrend)
		d := p.Evaluate(goodInput())
		assert.Equal(t, RejectBelowMinEV, d.Reject)
	})
}

func TestEntryPipeline_EdgeFallback(t *testing.T) {
	p := pipelineWith(failingEdge{}, model.RegimeTrend)

	d := p.Evaluate(goodInput())
	// The neutral fallback probability still clears the gate on a 4:1 payoff.
	require.True(t, d.Approved(), "expected approval, got reject=%q fault=%v", d.Reject, d.Fault)
	assert.Equal(t, 0.5, d.Action.P)
	assert.Equal(t, true, d.Action.Metadata["edge_fallback"])
}
