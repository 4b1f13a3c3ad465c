package engine

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"riptide/internal/config"
	"riptide/internal/config/loader"
	"riptide/internal/executor"
	"riptide/internal/market"
	"riptide/internal/model"
	"riptide/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFeed struct {
	mu     sync.Mutex
	price  float64
	base   float64
	quote  float64
	window market.Window
	fail   bool
}

func (f *fakeFeed) setPrice(p float64) {
	f.mu.Lock()
	f.price = p
	f.mu.Unlock()
}

func (f *fakeFeed) Price(ctx context.Context, pair string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return 0, fmt.Errorf("feed down")
	}
	return f.price, nil
}

func (f *fakeFeed) Reserves(ctx context.Context, pair string) (float64, float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.base, f.quote, nil
}

func (f *fakeFeed) FetchHistory(ctx context.Context, symbol, interval string, limit int) (market.Window, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.window, nil
}

type fakeBackend struct {
	mu         sync.Mutex
	openErr    error
	openCalls  int
	closeCalls int
	lastClose  types.CloseAction
}

func (b *fakeBackend) Mode() string { return "test" }

func (b *fakeBackend) Open(ctx context.Context, action types.OpenAction) (executor.OpenReceipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.openCalls++
	if b.openErr != nil {
		return executor.OpenReceipt{}, b.openErr
	}
	return executor.OpenReceipt{Ref: "tx-open", FillPrice: action.EntryPrice}, nil
}

func (b *fakeBackend) Close(ctx context.Context, pos types.Position, action types.CloseAction) (executor.CloseReceipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closeCalls++
	b.lastClose = action
	pnl, pnlPct := executor.RoundTripPnL(pos.EntryPrice, action.ExitPrice, pos.Size)
	return executor.CloseReceipt{Ref: "tx-close", ExitPrice: action.ExitPrice, PnL: pnl, PnLPct: pnlPct}, nil
}

type fakeCapital struct{ amount float64 }

func (c fakeCapital) AvailableCapital(ctx context.Context) (float64, error) {
	return c.amount, nil
}

type fakeLogSink struct {
	mu     sync.Mutex
	opens  int
	closes int
}

func (s *fakeLogSink) RecordOpen(ctx context.Context, pos types.Position, ref string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opens++
	return int64(s.opens), nil
}

func (s *fakeLogSink) RecordClose(ctx context.Context, pos types.Position, trade types.ClosedTrade) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	return nil
}

type fakeDecisionSink struct {
	mu   sync.Mutex
	recs []DecisionRecord
}

func (s *fakeDecisionSink) RecordDecision(ctx context.Context, rec DecisionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs = append(s.recs, rec)
	return nil
}

func trendWindow(n int, start float64) market.Window {
	w := make(market.Window, n)
	price := start
	for i := range w {
		price *= 1.0005
		w[i] = market.Candle{
			OpenTime:  int64(i) * 3600_000,
			CloseTime: int64(i+1)*3600_000 - 1,
			Open:      price * 0.9995,
			High:      price * 1.001,
			Low:       price * 0.999,
			Close:     price,
			Volume:    1000,
		}
	}
	return w
}

func loopConfig() config.Config {
	return config.Config{
		Engine: config.EngineConfig{Mode: config.ModeSandbox, IntervalSeconds: 60},
		Market: config.MarketConfig{Interval: "1h", CandleLimit: 60},
		Risk: config.RiskConfig{
			MaxRiskPerTrade: 0.005,
			PositionSize:    config.PositionSizeConfig{MinPct: 0.02, MaxPct: 0.05},
			SLRange:         config.RangeConfig{Default: 0.01},
			TPRange:         config.RangeConfig{Default: 0.04},
			EV:              config.EVConfig{MinEV: 0.001},
			Cooldowns:       config.CooldownConfig{PerPairSeconds: 3600, GlobalSeconds: 300},
			Pairs:           config.PairFilterConfig{MinLiquidityUSD: 100000},
			MaxVolatility:   0.10,
			MaxFriction:     0.10,
			AMMFeeBps:       30,
		},
	}
}

func TestLoop_OpenCooldownClose(t *testing.T) {
	feed := &fakeFeed{
		price:  2.0,
		base:   1000000,
		quote:  2000000,
		window: trendWindow(60, 2.0),
	}
	backend := &fakeBackend{}
	logs := &fakeLogSink{}
	decisions := &fakeDecisionSink{}
	store := NewStateStore()

	start := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)
	now := start
	store.nowFn = func() time.Time { return now }

	models := model.NewStaticRegistry(
		model.StaticEdgeModel{P: 0.9},
		model.StaticRegimeModel{Label: model.RegimeTrend},
		model.StaticFrictionModel{},
	)
	pairs := loader.Static(loader.PairDefinition{Symbol: "WETH/USDC", Enabled: true})

	loop := NewLoop(loopConfig(), Deps{
		Store:     store,
		Backend:   backend,
		Capital:   fakeCapital{amount: 100000},
		Prices:    feed,
		Reserves:  feed,
		Candles:   feed,
		Models:    models,
		Pairs:     pairs,
		Trades:    logs,
		Decisions: decisions,
	})

	ctx := context.Background()

	t.Run("first tick opens a position", func(t *testing.T) {
		loop.Tick(ctx)
		require.Equal(t, 1, store.OpenCount())
		assert.Equal(t, 1, backend.openCalls)
		assert.Equal(t, 1, logs.opens)

		pos := store.Positions()[0]
		assert.Equal(t, "WETH/USDC", pos.Pair)
		assert.InDelta(t, 5000.0, pos.Size, 1e-9)
		assert.Equal(t, int64(1), pos.LedgerID)
		assert.Equal(t, "tx-open", pos.TxRef)
		assert.True(t, store.InCooldown("WETH/USDC", time.Hour))
	})

	t.Run("second tick holds: cooldown active", func(t *testing.T) {
		loop.Tick(ctx)
		assert.Equal(t, 1, store.OpenCount())
		assert.Equal(t, 1, backend.openCalls)
	})

	t.Run("stop loss breach closes and books pnl", func(t *testing.T) {
		feed.setPrice(1.9) // entry 2.0, stop at 1.98
		loop.Tick(ctx)

		assert.Zero(t, store.OpenCount())
		require.Equal(t, 1, backend.closeCalls)
		assert.Equal(t, types.CloseStopLoss, backend.lastClose.Reason)
		assert.Equal(t, 1, logs.closes)

		_, dailyPnL, _ := store.Counters()
		assert.InDelta(t, (1.9-2.0)*5000, dailyPnL, 1e-6)
	})

	t.Run("no reopen while the pair cooldown holds", func(t *testing.T) {
		feed.setPrice(2.0)
		loop.Tick(ctx)
		assert.Zero(t, store.OpenCount())
		assert.Equal(t, 1, backend.openCalls)
	})
}

func TestLoop_PairStacksPositionsWithoutCooldowns(t *testing.T) {
	feed := &fakeFeed{
		price:  2.0,
		base:   1000000,
		quote:  2000000,
		window: trendWindow(60, 2.0),
	}
	backend := &fakeBackend{}
	logs := &fakeLogSink{}
	store := NewStateStore()

	cfg := loopConfig()
	cfg.Risk.Cooldowns = config.CooldownConfig{}

	models := model.NewStaticRegistry(
		model.StaticEdgeModel{P: 0.9},
		model.StaticRegimeModel{Label: model.RegimeTrend},
		model.StaticFrictionModel{},
	)
	loop := NewLoop(cfg, Deps{
		Store:    store,
		Backend:  backend,
		Capital:  fakeCapital{amount: 100000},
		Prices:   feed,
		Reserves: feed,
		Candles:  feed,
		Models:   models,
		Pairs:    loader.Static(loader.PairDefinition{Symbol: "WETH/USDC", Enabled: true}),
		Trades:   logs,
	})

	ctx := context.Background()
	loop.Tick(ctx)
	loop.Tick(ctx)

	// An open position does not block further entries on the pair.
	require.Equal(t, 2, store.OpenCount())
	assert.Equal(t, 2, backend.openCalls)
	assert.Equal(t, 2, logs.opens)
	for _, pos := range store.Positions() {
		assert.Equal(t, "WETH/USDC", pos.Pair)
	}
}

func TestLoop_FailedOpenLeavesNoState(t *testing.T) {
	feed := &fakeFeed{
		price:  2.0,
		base:   1000000,
		quote:  2000000,
		window: trendWindow(60, 2.0),
	}
	backend := &fakeBackend{openErr: fmt.Errorf("relay rejected")}
	logs := &fakeLogSink{}
	store := NewStateStore()

	models := model.NewStaticRegistry(
		model.StaticEdgeModel{P: 0.9},
		model.StaticRegimeModel{Label: model.RegimeTrend},
		model.StaticFrictionModel{},
	)
	loop := NewLoop(loopConfig(), Deps{
		Store:    store,
		Backend:  backend,
		Capital:  fakeCapital{amount: 100000},
		Prices:   feed,
		Reserves: feed,
		Candles:  feed,
		Models:   models,
		Pairs:    loader.Static(loader.PairDefinition{Symbol: "WETH/USDC", Enabled: true}),
		Trades:   logs,
	})

	loop.Tick(context.Background())

	assert.Equal(t, 1, backend.openCalls)
	assert.Zero(t, store.OpenCount())
	assert.Zero(t, logs.opens)
	// A failed fill must not start cooldowns either.
	assert.False(t, store.InCooldown("WETH/USDC", time.Hour))
}

func TestLoop_PriceOutageSkipsPair(t *testing.T) {
	feed := &fakeFeed{fail: true, window: trendWindow(60, 2.0)}
	backend := &fakeBackend{}
	store := NewStateStore()

	models := model.NewStaticRegistry(
		model.StaticEdgeModel{P: 0.9},
		model.StaticRegimeModel{Label: model.RegimeTrend},
		model.StaticFrictionModel{},
	)
	loop := NewLoop(loopConfig(), Deps{
		Store:    store,
		Backend:  backend,
		Capital:  fakeCapital{amount: 100000},
		Prices:   feed,
		Reserves: feed,
		Candles:  feed,
		Models:   models,
		Pairs:    loader.Static(loader.PairDefinition{Symbol: "WETH/USDC", Enabled: true}),
	})

	loop.Tick(context.Background())
	assert.Zero(t, backend.openCalls)
	assert.Zero(t, store.OpenCount())
}
