package model

import (
	"fmt"
	"math"
)

// MinFeatures is the minimum feature vector length the baseline models accept.
// Matches the builder's fixed layout through index 7 (ATR fraction).
const MinFeatures = 8

// Feature vector indices as produced by market.FeatureBuilder.
const (
	featLatestReturn = 0
	featMeanReturn   = 1
	featReturnStdDev = 2
	featCloseVsSMA20 = 3
	featCloseVsSMA50 = 4
	featSMA20VsSMA50 = 5
	featRSICentered  = 6
	featATRFraction  = 7
)

// BaselineEdgeModel is a deterministic logistic stand-in used when no trained
// edge artifact is configured. It leans on short-term momentum and mean
// reversion of RSI.
type BaselineEdgeModel struct {
	MomentumWeight float64
	RSIWeight      float64
}

func NewBaselineEdgeModel(params map[string]any) *BaselineEdgeModel {
	m := &BaselineEdgeModel{MomentumWeight: 6, RSIWeight: -1.5}
	if v, ok := floatParam(params, "momentum_weight"); ok {
		m.MomentumWeight = v
	}
	if v, ok := floatParam(params, "rsi_weight"); ok {
		m.RSIWeight = v
	}
	return m
}

func (m *BaselineEdgeModel) Predict(features []float64) (float64, error) {
	if len(features) < MinFeatures {
		return 0, fmt.Errorf("edge model requires %d features, got %d", MinFeatures, len(features))
	}
	z := m.MomentumWeight*features[featMeanReturn] + m.RSIWeight*features[featRSICentered]
	return 1 / (1 + math.Exp(-z)), nil
}

// BaselineRegimeModel labels the market by trend strength (SMA spread)
// against choppiness (return stddev).
type BaselineRegimeModel struct {
	TrendThreshold float64
	ChopThreshold  float64
}

func NewBaselineRegimeModel(params map[string]any) *BaselineRegimeModel {
	m := &BaselineRegimeModel{TrendThreshold: 0.01, ChopThreshold: 0.05}
	if v, ok := floatParam(params, "trend_threshold"); ok {
		m.TrendThreshold = v
	}
	if v, ok := floatParam(params, "chop_threshold"); ok {
		m.ChopThreshold = v
	}
	return m
}

func (m *BaselineRegimeModel) Classify(features []float64) (Regime, error) {
	if len(features) < MinFeatures {
		return RegimeNoTrade, fmt.Errorf("regime model requires %d features, got %d", MinFeatures, len(features))
	}
	if features[featReturnStdDev] > m.ChopThreshold {
		return RegimeNoTrade, nil
	}
	if math.Abs(features[featSMA20VsSMA50]) >= m.TrendThreshold {
		return RegimeTrend, nil
	}
	return RegimeRange, nil
}

// BaselineFrictionModel scales the base friction by a size/liquidity pressure
// term and a volatility premium. It never reports less than the base.
type BaselineFrictionModel struct {
	VolWeight float64
}

func NewBaselineFrictionModel(params map[string]any) *BaselineFrictionModel {
	m := &BaselineFrictionModel{VolWeight: 0.1}
	if v, ok := floatParam(params, "vol_weight"); ok {
		m.VolWeight = v
	}
	return m
}

func (m *BaselineFrictionModel) Predict(size, liquidityUSD, volatility, baseFriction float64) (float64, error) {
	if baseFriction < 0 {
		baseFriction = 0
	}
	pressure := 0.0
	if liquidityUSD > 0 && size > 0 {
		pressure = size / liquidityUSD
	}
	if volatility < 0 {
		volatility = 0
	}
	return baseFriction * (1 + pressure + m.VolWeight*volatility), nil
}

// StaticModels return fixed outputs; useful for dry runs and tests.

type StaticEdgeModel struct{ P float64 }

func (m StaticEdgeModel) Predict([]float64) (float64, error) { return m.P, nil }

type StaticRegimeModel struct{ Label Regime }

func (m StaticRegimeModel) Classify([]float64) (Regime, error) { return m.Label, nil }

type StaticFrictionModel struct{ Friction float64 }

func (m StaticFrictionModel) Predict(_, _, _, base float64) (float64, error) {
	if m.Friction > 0 {
		return m.Friction, nil
	}
	return base, nil
}

func floatParam(params map[string]any, key string) (float64, bool) {
	if params == nil {
		return 0, false
	}
	raw, ok := params[key]
	if !ok {
		return 0, false
	}
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
