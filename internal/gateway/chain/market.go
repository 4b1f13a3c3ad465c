package chain

import (
	"context"
	"fmt"

	"riptide/internal/config/loader"
)

// Market adapts relay pool state into the price and reserves feeds the
// engine consumes. Spot price is the constant-product mid: quote/base.
type Market struct {
	client *Client
	pairs  *loader.PairLoader
}

func NewMarket(client *Client, pairs *loader.PairLoader) *Market {
	return &Market{client: client, pairs: pairs}
}

// Price returns the pool mid price for the pair.
func (m *Market) Price(ctx context.Context, pair string) (float64, error) {
	base, quote, err := m.Reserves(ctx, pair)
	if err != nil {
		return 0, err
	}
	if base <= 0 {
		return 0, fmt.Errorf("pool for %s has no base reserve", pair)
	}
	return quote / base, nil
}

// Reserves returns the pool reserves for the pair.
func (m *Market) Reserves(ctx context.Context, pair string) (float64, float64, error) {
	pool, err := m.poolFor(pair)
	if err != nil {
		return 0, 0, err
	}
	return m.client.PoolState(ctx, pool)
}

func (m *Market) poolFor(pair string) (string, error) {
	for _, p := range m.pairs.Snapshot().Pairs {
		if p.Symbol == pair {
			if p.PoolAddr == "" {
				return "", fmt.Errorf("pair %s has no pool address", pair)
			}
			return p.PoolAddr, nil
		}
	}
	return "", fmt.Errorf("unknown pair %s", pair)
}
