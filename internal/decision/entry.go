package decision

import (
	"fmt"

	"riptide/internal/config"
	"riptide/internal/logger"
	"riptide/internal/market"
	"riptide/internal/model"
	"riptide/internal/types"
)

// fallbackEdge is used when the edge predictor fails: no opinion either way.
const fallbackEdge = 0.5

// EntryInput is everything the pipeline needs to evaluate one pair on one
// tick. Capital must reflect the post-exit balance of the same tick.
type EntryInput struct {
	Pair         string
	Price        float64
	Window       market.Window
	ReserveBase  float64
	ReserveQuote float64
	Capital      float64
}

// EntryPipeline decides whether to open a position. It never returns an
// error to the caller: every failure degrades to a rejection or a recorded
// fault on the EntryDecision.
type EntryPipeline struct {
	risk     config.RiskConfig
	models   model.Provider
	features *market.FeatureBuilder
	sizer    *PositionSizer
	evGate   *EVGate
	regime   *RegimeGate
}

func NewEntryPipeline(risk config.RiskConfig, models model.Provider) *EntryPipeline {
	return &EntryPipeline{
		risk:     risk,
		models:   models,
		features: market.NewFeatureBuilder(),
		sizer:    NewPositionSizer(risk),
		evGate:   NewEVGate(risk.EV.MinEV),
		regime:   NewRegimeGate(risk),
	}
}

// Evaluate runs the admission pipeline in its fixed order, short-circuiting
// to "no action" at the first failing step.
func (p *EntryPipeline) Evaluate(in EntryInput) EntryDecision {
	if in.Price <= 0 {
		return faulted(FaultUnavailable, "price", fmt.Errorf("no price for %s", in.Pair))
	}

	features, err := p.features.Build(in.Window)
	if err != nil {
		return faulted(FaultUnavailable, "features", err)
	}

	volatility := in.Window.Volatility(20)
	liquidityUSD := in.ReserveBase*in.Price + in.ReserveQuote

	regime := p.regime.Classify(p.models.Regime(), features, MarketObservations{
		LiquidityUSD:  liquidityUSD,
		Volatility:    volatility,
		HasLiquidity:  true,
		HasVolatility: true,
	})
	if !Tradable(regime) {
		return rejected(RejectRegime)
	}

	prob, edgeErr := p.predictEdge(features)

	slPct := p.risk.SLRange.Default
	tpPct := p.risk.TPRange.Default

	size := p.sizer.Size(in.Capital, slPct)
	if size <= 0 {
		return rejected(RejectSizing)
	}

	baseFriction := BaseFriction(size, in.ReserveBase, in.ReserveQuote, p.risk.AMMFeeBps)
	friction := p.refineFriction(size, liquidityUSD, volatility, baseFriction)

	winAmount := size * tpPct
	lossAmount := size * slPct
	frictionCost := size * friction

	ev := p.evGate.EV(prob, winAmount, lossAmount, frictionCost)
	if !p.evGate.Admit(ev) {
		logger.Debugf("entry %s: ev %.6f below threshold %.6f", in.Pair, ev, p.risk.EV.MinEV)
		return rejected(RejectBelowMinEV)
	}

	action := &types.OpenAction{
		Pair:            in.Pair,
		Size:            size,
		EntryPrice:      in.Price,
		StopLossPct:     slPct,
		TakeProfitPct:   tpPct,
		P:               ClampProbability(prob),
		EV:              ev,
		Friction:        friction,
		Regime:          regime,
		StopLossPrice:   stopLossPrice(in.Price, slPct),
		TakeProfitPrice: takeProfitPrice(in.Price, tpPct),
		Metadata: map[string]any{
			"win_amount":    winAmount,
			"loss_amount":   lossAmount,
			"friction_cost": frictionCost,
			"base_friction": baseFriction,
			"liquidity_usd": liquidityUSD,
			"volatility":    volatility,
		},
	}
	if edgeErr != nil {
		action.Metadata["edge_fallback"] = true
	}
	return EntryDecision{Action: action}
}

// predictEdge returns the edge probability, degrading to the neutral
// fallback when the predictor is missing or fails.
func (p *EntryPipeline) predictEdge(features []float64) (float64, error) {
	predictor := p.models.Edge()
	if predictor == nil {
		return fallbackEdge, fmt.Errorf("edge predictor not configured")
	}
	prob, err := predictor.Predict(features)
	if err != nil {
		logger.Warnf("edge predictor failed, using fallback %.2f: %v", fallbackEdge, err)
		return fallbackEdge, err
	}
	return ClampProbability(prob), nil
}

// refineFriction consults the friction predictor and clamps the result into
// [0, max_friction]; absence or failure falls back to the base estimate.
func (p *EntryPipeline) refineFriction(size, liquidityUSD, volatility, base float64) float64 {
	friction := base
	if predictor := p.models.Friction(); predictor != nil {
		refined, err := predictor.Predict(size, liquidityUSD, volatility, base)
		if err != nil {
			logger.Warnf("friction predictor failed, using base %.6f: %v", base, err)
		} else {
			friction = refined
		}
	}
	if friction < 0 {
		friction = 0
	}
	if friction > p.risk.MaxFriction {
		friction = p.risk.MaxFriction
	}
	return friction
}
