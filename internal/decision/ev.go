package decision

import "math"

// EVGate computes friction-adjusted expected value and applies the admission
// threshold.
type EVGate struct {
	minEV float64
}

func NewEVGate(minEV float64) *EVGate {
	return &EVGate{minEV: minEV}
}

// EV is p*win - (1-p)*loss - friction. The probability is clamped into [0,1]
// before use; negative win/loss amounts are a caller error and yield -Inf so
// the trade is always rejected instead of propagating garbage.
func (g *EVGate) EV(p, winAmount, lossAmount, frictionCost float64) float64 {
	p = ClampProbability(p)
	if winAmount < 0 || lossAmount < 0 {
		return math.Inf(-1)
	}
	return p*winAmount - (1-p)*lossAmount - frictionCost
}

// Admit reports whether the expected value clears the configured threshold.
// The boundary is inclusive: ev == min_ev trades.
func (g *EVGate) Admit(ev float64) bool {
	return ev >= g.minEV
}

// ClampProbability forces a probability into [0,1]; out-of-range inputs are
// recovered, never rejected.
func ClampProbability(p float64) float64 {
	if math.IsNaN(p) {
		return 0.5
	}
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
