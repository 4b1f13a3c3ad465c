package market

import "context"

// PriceFeed supplies the latest spot price for a pair symbol.
type PriceFeed interface {
	Price(ctx context.Context, pair string) (float64, error)
}

// ReservesFeed supplies the AMM pool reserves backing a pair.
type ReservesFeed interface {
	Reserves(ctx context.Context, pair string) (base, quote float64, err error)
}

// CandleSource supplies a historical candle window for a pair.
type CandleSource interface {
	FetchHistory(ctx context.Context, symbol, interval string, limit int) (Window, error)
}
