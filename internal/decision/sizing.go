package decision

import "riptide/internal/config"

// PositionSizer derives a risk-bounded position size from available capital
// and the stop-loss width.
type PositionSizer struct {
	maxRiskPerTrade float64
	minPct          float64
	maxPct          float64
}

func NewPositionSizer(risk config.RiskConfig) *PositionSizer {
	return &PositionSizer{
		maxRiskPerTrade: risk.MaxRiskPerTrade,
		minPct:          risk.PositionSize.MinPct,
		maxPct:          risk.PositionSize.MaxPct,
	}
}

// Size returns capital*max_risk/sl_pct clamped to the configured position
// fraction bounds. A non-positive stop width rejects the trade with size 0.
func (s *PositionSizer) Size(capital, slPct float64) float64 {
	if slPct <= 0 || capital <= 0 {
		return 0
	}
	size := capital * s.maxRiskPerTrade / slPct

	minSize := capital * s.minPct
	maxSize := capital * s.maxPct
	if size < minSize {
		size = minSize
	} else if size > maxSize {
		size = maxSize
	}
	return size
}
