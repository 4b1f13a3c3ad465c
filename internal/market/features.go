package market

import (
	"fmt"

	talib "github.com/markcheno/go-talib"
)

// FeatureLen is the fixed length of the vector produced by FeatureBuilder.
// Consumers treat the vector as opaque beyond this minimum-length contract.
const FeatureLen = 10

// minFeatureCandles matches the slowest lookback (SMA50) plus warmup.
const minFeatureCandles = 50

// FeatureBuilder turns a candle window into the fixed-order feature vector fed
// to the edge and regime predictors.
type FeatureBuilder struct{}

func NewFeatureBuilder() *FeatureBuilder {
	return &FeatureBuilder{}
}

// Build returns the feature vector, or an error when the window is too short
// or degenerate. Order: latest return, mean return (20), return stddev (20),
// close/SMA20-1, close/SMA50-1, SMA20/SMA50-1, normalized RSI14, ATR14/close,
// volume ratio vs 20-avg, volatility(20).
func (b *FeatureBuilder) Build(window Window) ([]float64, error) {
	if len(window) < minFeatureCandles {
		return nil, fmt.Errorf("feature window needs %d candles, got %d", minFeatureCandles, len(window))
	}
	closes := window.Closes()
	highs := window.Highs()
	lows := window.Lows()
	volumes := window.Volumes()
	last := closes[len(closes)-1]
	if last <= 0 {
		return nil, fmt.Errorf("last close must be positive")
	}

	rets := window.Returns()
	latestRet := rets[len(rets)-1]
	meanRet := tailMean(rets, 20)
	vol := window.Volatility(20)

	sma20 := talib.Sma(closes, 20)
	sma50 := talib.Sma(closes, 50)
	s20 := sma20[len(sma20)-1]
	s50 := sma50[len(sma50)-1]
	if s20 <= 0 || s50 <= 0 {
		return nil, fmt.Errorf("degenerate moving averages")
	}

	rsi := talib.Rsi(closes, 14)
	atr := talib.Atr(highs, lows, closes, 14)

	volRatio := 1.0
	if avg := tailMean(volumes, 20); avg > 0 {
		volRatio = volumes[len(volumes)-1] / avg
	}

	features := []float64{
		latestRet,
		meanRet,
		vol,
		last/s20 - 1,
		last/s50 - 1,
		s20/s50 - 1,
		rsi[len(rsi)-1]/100 - 0.5,
		atr[len(atr)-1] / last,
		volRatio,
		vol,
	}
	return features, nil
}

func tailMean(vals []float64, n int) float64 {
	if len(vals) == 0 {
		return 0
	}
	if n > 0 && len(vals) > n {
		vals = vals[len(vals)-n:]
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}
