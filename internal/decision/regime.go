package decision

import (
	"riptide/internal/config"
	"riptide/internal/logger"
	"riptide/internal/model"
)

// MarketObservations carries the optional context the regime gate can use to
// override the predictor. Absent observations skip their override.
type MarketObservations struct {
	LiquidityUSD  float64
	Volatility    float64
	HasLiquidity  bool
	HasVolatility bool
}

// RegimeGate wraps the regime predictor with hard tradability overrides:
// whatever the model says, thin pools and violent markets are NO_TRADE.
type RegimeGate struct {
	minLiquidityUSD float64
	maxVolatility   float64
}

func NewRegimeGate(risk config.RiskConfig) *RegimeGate {
	return &RegimeGate{
		minLiquidityUSD: risk.Pairs.MinLiquidityUSD,
		maxVolatility:   risk.MaxVolatility,
	}
}

// Classify asks the predictor for a label, then applies the overrides. A
// predictor failure degrades to NO_TRADE and is logged, never surfaced.
func (g *RegimeGate) Classify(predictor model.RegimeModel, features []float64, obs MarketObservations) model.Regime {
	if predictor == nil || len(features) == 0 {
		return model.RegimeNoTrade
	}
	label, err := predictor.Classify(features)
	if err != nil {
		logger.Warnf("regime predictor failed, forcing NO_TRADE: %v", err)
		return model.RegimeNoTrade
	}
	if label == model.RegimeNoTrade {
		return label
	}
	if obs.HasLiquidity && obs.LiquidityUSD < g.minLiquidityUSD {
		logger.Debugf("liquidity %.0f below minimum %.0f, forcing NO_TRADE", obs.LiquidityUSD, g.minLiquidityUSD)
		return model.RegimeNoTrade
	}
	if obs.HasVolatility && obs.Volatility > g.maxVolatility {
		logger.Debugf("volatility %.4f above ceiling %.4f, forcing NO_TRADE", obs.Volatility, g.maxVolatility)
		return model.RegimeNoTrade
	}
	return label
}

// Tradable reports whether a regime admits new entries.
func Tradable(label model.Regime) bool {
	return label == model.RegimeTrend || label == model.RegimeRange
}
