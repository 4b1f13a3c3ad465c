package decision

import (
	"testing"

	"riptide/internal/config"

	"github.com/stretchr/testify/assert"
)

func testRisk() config.RiskConfig {
	return config.RiskConfig{
		MaxRiskPerTrade: 0.005,
		PositionSize:    config.PositionSizeConfig{MinPct: 0.02, MaxPct: 0.05},
		SLRange:         config.RangeConfig{Default: 0.01},
		TPRange:         config.RangeConfig{Default: 0.04},
		EV:              config.EVConfig{MinEV: 0.001},
		Pairs:           config.PairFilterConfig{MinLiquidityUSD: 100000},
		MaxVolatility:   0.10,
		MaxFriction:     0.10,
		AMMFeeBps:       30,
	}
}

func TestPositionSizer_Size(t *testing.T) {
	sizer := NewPositionSizer(testRisk())

	t.Run("risk formula clamped to max fraction", func(t *testing.T) {
		// 100000 * 0.005 / 0.01 = 50000, clamped to 5% of capital.
		assert.InDelta(t, 5000.0, sizer.Size(100000, 0.01), 1e-9)
	})

	t.Run("wide stop clamps to min fraction", func(t *testing.T) {
		// 100000 * 0.005 / 0.5 = 1000, raised to 2% of capital.
		assert.InDelta(t, 2000.0, sizer.Size(100000, 0.5), 1e-9)
	})

	t.Run("unclamped when formula lands inside bounds", func(t *testing.T) {
		// 100000 * 0.005 / 0.2 = 2500, inside [2000, 5000].
		assert.InDelta(t, 2500.0, sizer.Size(100000, 0.2), 1e-9)
	})

	t.Run("zero stop width yields zero size", func(t *testing.T) {
		assert.Zero(t, sizer.Size(100000, 0))
		assert.Zero(t, sizer.Size(100000, -0.01))
	})

	t.Run("no capital yields zero size", func(t *testing.T) {
		assert.Zero(t, sizer.Size(0, 0.01))
	})
}
