package decision

import (
	"math"

	"github.com/shopspring/decimal"
)

var decOne = decimal.NewFromInt(1)

func decFromFloat(val float64) decimal.Decimal {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(val)
}

func decToFloat(val decimal.Decimal) float64 {
	f, _ := val.Float64()
	return f
}

func decimalCompare(a, b float64) int {
	return decFromFloat(a).Cmp(decFromFloat(b))
}

func decimalLTE(a, b float64) bool { return decimalCompare(a, b) <= 0 }
func decimalGTE(a, b float64) bool { return decimalCompare(a, b) >= 0 }

// stopLossPrice is entry*(1-slPct) computed in decimal to keep the trigger
// boundary exact.
func stopLossPrice(entry, slPct float64) float64 {
	return decToFloat(decFromFloat(entry).Mul(decOne.Sub(decFromFloat(slPct))))
}

// takeProfitPrice is entry*(1+tpPct).
func takeProfitPrice(entry, tpPct float64) float64 {
	return decToFloat(decFromFloat(entry).Mul(decOne.Add(decFromFloat(tpPct))))
}
