// Package model defines the predictor contracts consumed by the decision
// layer. Training and artifact formats live outside this repository; the
// engine only sees opaque scoring functions behind these interfaces.
package model

import "strings"

// Regime is the classified market condition.
type Regime int

const (
	RegimeNoTrade Regime = iota
	RegimeTrend
	RegimeRange
)

func (r Regime) String() string {
	switch r {
	case RegimeTrend:
		return "TREND"
	case RegimeRange:
		return "RANGE"
	default:
		return "NO_TRADE"
	}
}

// ParseRegime maps a label string to a Regime; unknown labels are NO_TRADE.
func ParseRegime(s string) Regime {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TREND":
		return RegimeTrend
	case "RANGE":
		return RegimeRange
	default:
		return RegimeNoTrade
	}
}

// EdgeModel predicts the probability that a prospective trade wins.
type EdgeModel interface {
	Predict(features []float64) (float64, error)
}

// RegimeModel classifies the market regime from a feature vector.
type RegimeModel interface {
	Classify(features []float64) (Regime, error)
}

// FrictionModel refines a base (slippage+fee) friction estimate using trade
// size, pool liquidity and volatility context.
type FrictionModel interface {
	Predict(size, liquidityUSD, volatility, baseFriction float64) (float64, error)
}

// Provider exposes the currently active predictors. Implementations may swap
// the underlying models at runtime (manifest reload); callers must re-fetch
// per tick rather than cache.
type Provider interface {
	Edge() EdgeModel
	Regime() RegimeModel
	Friction() FrictionModel
}
