package app

import (
	"context"
	"fmt"
	"time"

	"riptide/internal/config"
	"riptide/internal/config/loader"
	"riptide/internal/engine"
	"riptide/internal/executor"
	"riptide/internal/gateway/chain"
	"riptide/internal/logger"
	"riptide/internal/market"
	"riptide/internal/metrics"
	"riptide/internal/model"
	"riptide/internal/report"
	"riptide/internal/sandbox"
	"riptide/internal/store/decisionlog"
	"riptide/internal/store/tradelog"
	httpapi "riptide/internal/transport/http"
)

// AppBuilder assembles the object graph for one engine mode. Construction is
// split from App so wiring stays testable without a running process.
type AppBuilder struct {
	cfg *config.Config
}

func NewAppBuilder(cfg *config.Config) *AppBuilder {
	return &AppBuilder{cfg: cfg}
}

// Build resolves every dependency for the configured mode.
func (b *AppBuilder) Build(ctx context.Context) (*App, error) {
	cfg := b.cfg

	pairs, err := loader.NewPairLoader(cfg.Pairs.Path)
	if err != nil {
		return nil, fmt.Errorf("build: pair loader: %w", err)
	}
	models, err := model.NewRegistry(cfg.Models.ManifestPath)
	if err != nil {
		return nil, fmt.Errorf("build: model registry: %w", err)
	}

	trades, err := tradelog.New(cfg.Store.TradeDBPath, cfg.Engine.Mode)
	if err != nil {
		return nil, fmt.Errorf("build: trade ledger: %w", err)
	}
	decisions, err := decisionlog.New(cfg.Store.DecisionDBPath)
	if err != nil {
		trades.Close()
		return nil, fmt.Errorf("build: decision log: %w", err)
	}

	binance := market.NewBinanceSource(market.BinanceConfig{
		RESTBaseURL: cfg.Market.RESTBaseURL,
		HTTPTimeout: time.Duration(cfg.Market.TimeoutSeconds) * time.Second,
	})

	var (
		backend  executor.Backend
		capital  engine.CapitalSource
		prices   market.PriceFeed
		reserves market.ReservesFeed
		candles  market.CandleSource
	)
	switch cfg.Engine.Mode {
	case config.ModeSandbox:
		feed := sandbox.NewFeed(binance, cfg.Market.Interval, cfg.Market.CandleLimit, cfg.Sandbox.PoolDepthUSD)
		var slipFeed market.ReservesFeed
		if cfg.Sandbox.ApplySlippage {
			slipFeed = feed
		}
		sim := executor.NewSimBackend(cfg.Sandbox.InitialBalance, slipFeed, cfg.Risk.AMMFeeBps)
		backend, capital = sim, sim
		prices, reserves, candles = feed, feed, feed
	case config.ModeLive:
		client := chain.NewClient(chain.ClientConfig{
			BaseURL:         cfg.Chain.RelayURL,
			APIKey:          cfg.Chain.APIKey,
			Timeout:         time.Duration(cfg.Chain.TimeoutSeconds) * time.Second,
			TraderContract:  cfg.Chain.TraderContract,
			VaultContract:   cfg.Chain.VaultContract,
			DeadlineSeconds: cfg.Chain.DeadlineSeconds,
		})
		chainMarket := chain.NewMarket(client, pairs)
		backend = executor.NewLiveBackend(client, pairs,
			cfg.Chain.BreakerThreshold,
			time.Duration(cfg.Chain.BreakerCooldownSeconds)*time.Second)
		capital = treasuryCapital{client: client}
		prices, reserves, candles = chainMarket, chainMarket, binance
	default:
		trades.Close()
		decisions.Close()
		return nil, fmt.Errorf("build: unknown engine mode %q", cfg.Engine.Mode)
	}

	metricSet := metrics.New()
	metricSet.PairsEnabled.Set(float64(len(pairs.Snapshot().Enabled())))
	pairs.Subscribe(func(snap loader.PairSnapshot) {
		enabled := len(snap.Enabled())
		metricSet.PairsEnabled.Set(float64(enabled))
		logger.Infof("pair universe reloaded: version=%d enabled=%d", snap.Version, enabled)
	})

	store := engine.NewStateStore()
	loop := engine.NewLoop(*cfg, engine.Deps{
		Store:     store,
		Backend:   backend,
		Capital:   capital,
		Prices:    prices,
		Reserves:  reserves,
		Candles:   candles,
		Models:    models,
		Pairs:     pairs,
		Trades:    trades,
		Decisions: decisions,
		Metrics:   metricSet,
	})

	httpServer := httpapi.NewServer(httpapi.ServerConfig{
		Addr:      cfg.App.HTTPAddr,
		Mode:      cfg.Engine.Mode,
		Store:     store,
		Capital:   capital,
		Trades:    trades,
		Decisions: decisions,
	})

	var reporter *report.Generator
	if cfg.Report.Enabled {
		reporter = report.NewGenerator(trades, cfg.Report.OutputDir, cfg.Report.Snapshot)
	}

	logger.Infof("build: mode=%s pairs=%d interval=%ds",
		cfg.Engine.Mode, len(pairs.Snapshot().Pairs), cfg.Engine.IntervalSeconds)
	return &App{
		cfg:       cfg,
		loop:      loop,
		http:      httpServer,
		trades:    trades,
		decisions: decisions,
		reporter:  reporter,
	}, nil
}

// treasuryCapital sizes live trades from the relay treasury balance.
type treasuryCapital struct {
	client *chain.Client
}

func (t treasuryCapital) AvailableCapital(ctx context.Context) (float64, error) {
	return t.client.TreasuryBalance(ctx)
}
