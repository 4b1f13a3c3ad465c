// Package engine runs the trade lifecycle: one tick evaluates exits on open
// positions first, then entry candidates with the capital that remains.
package engine

import (
	"context"
	"runtime/debug"
	"time"

	"riptide/internal/config"
	"riptide/internal/config/loader"
	"riptide/internal/decision"
	"riptide/internal/executor"
	"riptide/internal/logger"
	"riptide/internal/market"
	"riptide/internal/metrics"
	"riptide/internal/model"
	"riptide/internal/types"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Deps carries the loop's collaborators. All are required except Metrics,
// Trades and Decisions, which may be nil.
type Deps struct {
	Store     *StateStore
	Backend   executor.Backend
	Capital   CapitalSource
	Prices    market.PriceFeed
	Reserves  market.ReservesFeed
	Candles   market.CandleSource
	Models    model.Provider
	Pairs     *loader.PairLoader
	Trades    LogSink
	Decisions DecisionSink
	Metrics   *metrics.Set
}

// Loop owns all state mutation. It is driven by the scheduler, one Tick at a
// time, never concurrently.
type Loop struct {
	risk      config.RiskConfig
	marketCfg config.MarketConfig

	store     *StateStore
	pipeline  *decision.EntryPipeline
	exits     *decision.ExitEvaluator
	backend   executor.Backend
	capital   CapitalSource
	prices    market.PriceFeed
	reserves  market.ReservesFeed
	candles   market.CandleSource
	models    model.Provider
	pairs     *loader.PairLoader
	trades    LogSink
	decisions DecisionSink
	metrics   *metrics.Set

	features *market.FeatureBuilder
	regime   *decision.RegimeGate
}

func NewLoop(cfg config.Config, deps Deps) *Loop {
	return &Loop{
		risk:      cfg.Risk,
		marketCfg: cfg.Market,
		store:     deps.Store,
		pipeline:  decision.NewEntryPipeline(cfg.Risk, deps.Models),
		exits:     decision.NewExitEvaluator(),
		backend:   deps.Backend,
		capital:   deps.Capital,
		prices:    deps.Prices,
		reserves:  deps.Reserves,
		candles:   deps.Candles,
		models:    deps.Models,
		pairs:     deps.Pairs,
		trades:    deps.Trades,
		decisions: deps.Decisions,
		metrics:   deps.Metrics,
		features:  market.NewFeatureBuilder(),
		regime:    decision.NewRegimeGate(cfg.Risk),
	}
}

// pairSnapshot is the per-pair market view gathered at the start of a tick.
type pairSnapshot struct {
	def          loader.PairDefinition
	price        float64
	reserveBase  float64
	reserveQuote float64
	window       market.Window
	ok           bool
}

// Tick runs one full evaluation cycle. It never propagates a panic: a
// poisoned tick is logged and the next one starts clean.
func (l *Loop) Tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("tick recovered from panic: %v\n%s", r, debug.Stack())
			if l.metrics != nil {
				l.metrics.TickErrors.Inc()
			}
		}
	}()
	if l.metrics != nil {
		l.metrics.TicksTotal.Inc()
	}
	if l.store.RollDay() {
		logger.Infof("daily counters reset (UTC rollover)")
	}

	pairs := l.pairs.Snapshot().Enabled()
	if len(pairs) == 0 {
		logger.Warnf("tick skipped: no enabled pairs")
		return
	}

	snapshots := l.collect(ctx, pairs)

	priceMap := make(map[string]float64, len(snapshots))
	regimeMap := make(map[string]model.Regime, len(snapshots))
	for _, snap := range snapshots {
		if !snap.ok {
			continue
		}
		priceMap[snap.def.Symbol] = snap.price
		regimeMap[snap.def.Symbol] = l.classify(snap)
	}

	l.runExits(ctx, priceMap, regimeMap)
	l.runEntries(ctx, snapshots, regimeMap)

	if l.metrics != nil {
		l.metrics.OpenPositions.Set(float64(l.store.OpenCount()))
		_, dailyPnL, _ := l.store.Counters()
		l.metrics.DailyPnL.Set(dailyPnL)
	}
}

// collect fans out one fetch per pair. A pair whose price fetch fails is
// dropped from the tick; a missing candle window only disables entries.
func (l *Loop) collect(ctx context.Context, pairs []loader.PairDefinition) []pairSnapshot {
	snapshots := make([]pairSnapshot, len(pairs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, def := range pairs {
		i, def := i, def
		g.Go(func() error {
			snap := pairSnapshot{def: def}
			price, err := l.prices.Price(gctx, def.Symbol)
			if err != nil || price <= 0 {
				logger.Warnf("tick %s: price unavailable: %v", def.Symbol, err)
				snapshots[i] = snap
				return nil
			}
			snap.price = price
			snap.reserveBase, snap.reserveQuote, err = l.reserves.Reserves(gctx, def.Symbol)
			if err != nil {
				logger.Warnf("tick %s: reserves unavailable: %v", def.Symbol, err)
				snapshots[i] = snap
				return nil
			}
			window, err := l.candles.FetchHistory(gctx, def.Symbol, l.marketCfg.Interval, l.marketCfg.CandleLimit)
			if err != nil {
				logger.Warnf("tick %s: candle history unavailable: %v", def.Symbol, err)
				snapshots[i] = snap
				return nil
			}
			snap.window = window
			snap.ok = true
			snapshots[i] = snap
			return nil
		})
	}
	_ = g.Wait()
	return snapshots
}

func (l *Loop) classify(snap pairSnapshot) model.Regime {
	features, err := l.features.Build(snap.window)
	if err != nil {
		return model.RegimeNoTrade
	}
	liquidityUSD := snap.reserveBase*snap.price + snap.reserveQuote
	return l.regime.Classify(l.models.Regime(), features, decision.MarketObservations{
		LiquidityUSD:  liquidityUSD,
		Volatility:    snap.window.Volatility(20),
		HasLiquidity:  true,
		HasVolatility: true,
	})
}

// runExits closes triggered positions. A failed close leaves the position
// tracked; it will trigger again next tick.
func (l *Loop) runExits(ctx context.Context, prices map[string]float64, regimes map[string]model.Regime) {
	actions := l.exits.Evaluate(l.store.Positions(), prices, regimes)
	for _, action := range actions {
		pos, ok := l.store.Position(action.PositionID)
		if !ok {
			continue
		}
		receipt, err := l.backend.Close(ctx, pos, action)
		if err != nil {
			logger.Errorf("close %s (%s) failed, position kept: %v", pos.Pair, action.Reason, err)
			if l.metrics != nil {
				l.metrics.ExecFailures.WithLabelValues("close").Inc()
			}
			continue
		}
		l.store.RemovePosition(pos.ID)
		l.store.AddDailyPnL(receipt.PnL)
		trade := types.ClosedTrade{
			Position:  pos,
			ExitPrice: receipt.ExitPrice,
			PnL:       receipt.PnL,
			PnLPct:    receipt.PnLPct,
			Reason:    action.Reason,
			ClosedAt:  time.Now(),
		}
		if l.trades != nil {
			if err := l.trades.RecordClose(ctx, pos, trade); err != nil {
				logger.Errorf("record close %s failed: %v", pos.Pair, err)
			}
		}
		if l.metrics != nil {
			l.metrics.TradesClosed.WithLabelValues(string(action.Reason)).Inc()
		}
		logger.Infof("closed %s: reason=%s exit=%.6f pnl=%.2f", pos.Pair, action.Reason, receipt.ExitPrice, receipt.PnL)
	}
}

// runEntries evaluates candidates with post-exit capital. Cooldowns pace the
// entries; a pair may accumulate several open positions across windows.
func (l *Loop) runEntries(ctx context.Context, snapshots []pairSnapshot, regimes map[string]model.Regime) {
	capital, err := l.capital.AvailableCapital(ctx)
	if err != nil {
		logger.Errorf("capital source failed, entries skipped: %v", err)
		return
	}
	if l.metrics != nil {
		l.metrics.Capital.Set(capital)
	}

	perPair := time.Duration(l.risk.Cooldowns.PerPairSeconds) * time.Second
	global := time.Duration(l.risk.Cooldowns.GlobalSeconds) * time.Second

	for _, snap := range snapshots {
		if !snap.ok {
			continue
		}
		pair := snap.def.Symbol
		if l.store.GlobalCooldownActive(global) {
			logger.Debugf("entry %s skipped: global cooldown", pair)
			continue
		}
		if l.store.InCooldown(pair, perPair) {
			logger.Debugf("entry %s skipped: pair cooldown", pair)
			continue
		}

		d := l.pipeline.Evaluate(decision.EntryInput{
			Pair:         pair,
			Price:        snap.price,
			Window:       snap.window,
			ReserveBase:  snap.reserveBase,
			ReserveQuote: snap.reserveQuote,
			Capital:      capital,
		})
		l.recordDecision(ctx, pair, snap.price, regimes[pair], d)
		if !d.Approved() {
			continue
		}
		l.open(ctx, *d.Action)
	}
}

func (l *Loop) open(ctx context.Context, action types.OpenAction) {
	receipt, err := l.backend.Open(ctx, action)
	if err != nil {
		logger.Errorf("open %s failed, no state recorded: %v", action.Pair, err)
		if l.metrics != nil {
			l.metrics.ExecFailures.WithLabelValues("open").Inc()
		}
		return
	}
	pos := types.Position{
		ID:            uuid.NewString(),
		Pair:          action.Pair,
		EntryPrice:    receipt.FillPrice,
		Size:          action.Size,
		StopLossPct:   action.StopLossPct,
		TakeProfitPct: action.TakeProfitPct,
		OpenedAt:      time.Now(),
		P:             action.P,
		EV:            action.EV,
		Friction:      action.Friction,
		Regime:        action.Regime,
		Metadata:      action.Metadata,
		TxRef:         receipt.Ref,
	}
	if l.trades != nil {
		ledgerID, err := l.trades.RecordOpen(ctx, pos, receipt.Ref)
		if err != nil {
			logger.Errorf("record open %s failed: %v", pos.Pair, err)
		} else {
			pos.LedgerID = ledgerID
		}
	}
	if err := l.store.AddPosition(pos); err != nil {
		logger.Errorf("track %s failed: %v", pos.Pair, err)
		return
	}
	l.store.MarkTrade(pos.Pair)
	if l.metrics != nil {
		l.metrics.TradesOpened.Inc()
	}
	logger.Infof("opened %s: size=%.2f entry=%.6f p=%.3f ev=%.4f regime=%s",
		pos.Pair, pos.Size, pos.EntryPrice, pos.P, pos.EV, pos.Regime)
}

func (l *Loop) recordDecision(ctx context.Context, pair string, price float64, regime model.Regime, d decision.EntryDecision) {
	outcome, reason := outcomeLabel(d)
	if l.metrics != nil {
		l.metrics.EntriesEvaluated.WithLabelValues(outcome).Inc()
	}
	if l.decisions == nil {
		return
	}
	rec := DecisionRecord{
		Pair:    pair,
		Outcome: outcome,
		Reason:  reason,
		Price:   price,
		Regime:  regime.String(),
	}
	if d.Action != nil {
		rec.Size = d.Action.Size
		rec.P = d.Action.P
		rec.EV = d.Action.EV
		rec.Friction = d.Action.Friction
	}
	if err := l.decisions.RecordDecision(ctx, rec); err != nil {
		logger.Debugf("record decision %s failed: %v", pair, err)
	}
}

func outcomeLabel(d decision.EntryDecision) (outcome, reason string) {
	switch {
	case d.Approved():
		return "approved", ""
	case d.Fault != nil:
		return "fault", d.Fault.Error()
	default:
		return "rejected", string(d.Reject)
	}
}
