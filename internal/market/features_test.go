package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func syntheticWindow(n int, start, step float64) Window {
	w := make(Window, n)
	price := start
	for i := range w {
		price += step
		w[i] = Candle{
			OpenTime:  int64(i) * 3600_000,
			CloseTime: int64(i+1)*3600_000 - 1,
			Open:      price - step,
			High:      price * 1.002,
			Low:       price * 0.998,
			Close:     price,
			Volume:    1000,
		}
	}
	return w
}

func TestWindow_Returns(t *testing.T) {
	w := Window{
		{Close: 100},
		{Close: 110},
		{Close: 99},
	}
	rets := w.Returns()
	require.Len(t, rets, 2)
	assert.InDelta(t, 0.10, rets[0], 1e-12)
	assert.InDelta(t, -0.10, rets[1], 1e-12)
}

func TestWindow_Volatility(t *testing.T) {
	t.Run("constant series has zero volatility", func(t *testing.T) {
		w := Window{{Close: 100}, {Close: 100}, {Close: 100}}
		assert.Zero(t, w.Volatility(20))
	})

	t.Run("short window reports the conservative default", func(t *testing.T) {
		assert.Equal(t, 0.01, Window{{Close: 100}}.Volatility(20))
		assert.Equal(t, 0.01, Window{}.Volatility(20))
	})

	t.Run("alternating series is volatile", func(t *testing.T) {
		w := Window{{Close: 100}, {Close: 110}, {Close: 100}, {Close: 110}}
		assert.Greater(t, w.Volatility(20), 0.01)
	})
}

func TestFeatureBuilder_Build(t *testing.T) {
	b := NewFeatureBuilder()

	t.Run("full window yields the fixed-length vector", func(t *testing.T) {
		features, err := b.Build(syntheticWindow(60, 100, 0.5))
		require.NoError(t, err)
		require.Len(t, features, FeatureLen)
		// Rising closes sit above both moving averages.
		assert.Greater(t, features[3], 0.0)
		assert.Greater(t, features[4], 0.0)
	})

	t.Run("short window rejected", func(t *testing.T) {
		_, err := b.Build(syntheticWindow(20, 100, 0.5))
		assert.Error(t, err)
	})

	t.Run("zero last close rejected", func(t *testing.T) {
		w := syntheticWindow(60, 100, 0.5)
		w[len(w)-1].Close = 0
		_, err := b.Build(w)
		assert.Error(t, err)
	})
}
