// Package sandbox adapts exchange market data into the feeds the engine
// expects, so sandbox runs exercise the exact live decision path without a
// pool relay.
package sandbox

import (
	"context"
	"fmt"
	"sync"
	"time"

	"riptide/internal/market"
)

const cacheTTL = 30 * time.Second

// Feed serves prices from the latest exchange candle and synthesizes
// constant-product reserves around a configured pool depth. The synthetic
// pool is balanced: half the depth on each side at the current price.
type Feed struct {
	candles  market.CandleSource
	interval string
	limit    int
	depthUSD float64

	mu    sync.Mutex
	cache map[string]cachedWindow
}

type cachedWindow struct {
	window  market.Window
	fetched time.Time
}

func NewFeed(candles market.CandleSource, interval string, limit int, depthUSD float64) *Feed {
	if limit <= 0 {
		limit = 120
	}
	return &Feed{
		candles:  candles,
		interval: interval,
		limit:    limit,
		depthUSD: depthUSD,
		cache:    make(map[string]cachedWindow),
	}
}

// Price returns the close of the most recent candle.
func (f *Feed) Price(ctx context.Context, pair string) (float64, error) {
	window, err := f.window(ctx, pair)
	if err != nil {
		return 0, err
	}
	if len(window) == 0 {
		return 0, fmt.Errorf("sandbox feed: no candles for %s", pair)
	}
	return window[len(window)-1].Close, nil
}

// Reserves synthesizes a balanced pool at the current price.
func (f *Feed) Reserves(ctx context.Context, pair string) (float64, float64, error) {
	price, err := f.Price(ctx, pair)
	if err != nil {
		return 0, 0, err
	}
	if price <= 0 {
		return 0, 0, fmt.Errorf("sandbox feed: non-positive price for %s", pair)
	}
	quote := f.depthUSD / 2
	base := quote / price
	return base, quote, nil
}

// FetchHistory serves the cached candle window, refreshing on expiry. The
// same window backs prices and features within a tick.
func (f *Feed) FetchHistory(ctx context.Context, symbol, interval string, limit int) (market.Window, error) {
	window, err := f.window(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(window) > limit {
		window = window[len(window)-limit:]
	}
	return window, nil
}

func (f *Feed) window(ctx context.Context, pair string) (market.Window, error) {
	f.mu.Lock()
	cached, ok := f.cache[pair]
	f.mu.Unlock()
	if ok && time.Since(cached.fetched) < cacheTTL {
		return cached.window, nil
	}
	window, err := f.candles.FetchHistory(ctx, pair, f.interval, f.limit)
	if err != nil {
		if ok {
			return cached.window, nil
		}
		return nil, err
	}
	f.mu.Lock()
	f.cache[pair] = cachedWindow{window: window, fetched: time.Now()}
	f.mu.Unlock()
	return window, nil
}
