package decision

// illiquidFriction is the policy constant returned when a pool has an empty
// reserve: treat it as 10% friction rather than divide by zero.
const illiquidFriction = 0.10

// BaseSlippage computes the expected price impact of a swap against a
// constant-product (x*y=k) pool, as a fraction of the expected price.
func BaseSlippage(amountIn, reserveIn, reserveOut float64, feeBps int) float64 {
	if reserveIn == 0 || reserveOut == 0 {
		return illiquidFriction
	}
	feeMultiplier := 1 - float64(feeBps)/10000
	amountInAfterFee := amountIn * feeMultiplier

	// dy = y*dx / (x+dx)
	amountOut := reserveOut * amountInAfterFee / (reserveIn + amountInAfterFee)

	expectedPrice := reserveOut / reserveIn
	actualPrice := expectedPrice
	if amountIn > 0 {
		actualPrice = amountOut / amountIn
	}

	slip := (expectedPrice - actualPrice) / expectedPrice
	if slip < 0 {
		slip = -slip
	}
	return slip
}

// BaseFriction is slippage plus the pool fee, both as fractions of trade
// value.
func BaseFriction(amountIn, reserveIn, reserveOut float64, feeBps int) float64 {
	return BaseSlippage(amountIn, reserveIn, reserveOut, feeBps) + float64(feeBps)/10000
}
