package market

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"riptide/internal/pkg/convert"

	"github.com/adshao/go-binance/v2/futures"
)

const maxHistoryLimit = 1500

// BinanceSource implements CandleSource over the Binance USDT futures REST
// API via the go-binance SDK. The sandbox uses it to seed candle history for
// feature building and replay.
type BinanceSource struct {
	client *futures.Client
}

type BinanceConfig struct {
	RESTBaseURL string
	HTTPTimeout time.Duration
}

func NewBinanceSource(cfg BinanceConfig) *BinanceSource {
	client := futures.NewClient("", "")
	if base := strings.TrimSpace(cfg.RESTBaseURL); base != "" {
		client.BaseURL = base
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	client.HTTPClient = &http.Client{Timeout: timeout}
	return &BinanceSource{client: client}
}

func (s *BinanceSource) FetchHistory(ctx context.Context, symbol, interval string, limit int) (Window, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	clean := cleanSymbol(symbol)
	if clean == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	interval = strings.ToLower(strings.TrimSpace(interval))
	if interval == "" {
		return nil, fmt.Errorf("interval is required")
	}
	kls, err := s.client.NewKlinesService().Symbol(clean).Interval(interval).Limit(limit).Do(ctx)
	if err != nil {
		return nil, err
	}
	out := make(Window, 0, len(kls))
	for _, kl := range kls {
		if kl == nil {
			continue
		}
		out = append(out, Candle{
			OpenTime:  kl.OpenTime,
			CloseTime: kl.CloseTime,
			Open:      convert.ParseFloat(kl.Open),
			High:      convert.ParseFloat(kl.High),
			Low:       convert.ParseFloat(kl.Low),
			Close:     convert.ParseFloat(kl.Close),
			Volume:    convert.ParseFloat(kl.Volume),
			Trades:    kl.TradeNum,
		})
	}
	return out, nil
}

// cleanSymbol strips separators: "WETH/USDC" -> "WETHUSDC".
func cleanSymbol(sym string) string {
	sym = strings.ToUpper(strings.TrimSpace(sym))
	sym = strings.ReplaceAll(sym, "/", "")
	sym = strings.ReplaceAll(sym, "-", "")
	return sym
}
