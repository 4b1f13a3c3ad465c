// Package metrics exposes engine counters and gauges over the standard
// Prometheus registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Set bundles the engine's instruments. A single Set is shared by the loop
// and the HTTP layer.
type Set struct {
	TicksTotal       prometheus.Counter
	TickErrors       prometheus.Counter
	EntriesEvaluated *prometheus.CounterVec
	TradesOpened     prometheus.Counter
	TradesClosed     *prometheus.CounterVec
	ExecFailures     *prometheus.CounterVec
	OpenPositions    prometheus.Gauge
	Capital          prometheus.Gauge
	DailyPnL         prometheus.Gauge
	PairsEnabled     prometheus.Gauge
}

func New() *Set {
	return &Set{
		TicksTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "riptide_ticks_total",
			Help: "Engine ticks executed.",
		}),
		TickErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "riptide_tick_errors_total",
			Help: "Ticks that recovered from a panic.",
		}),
		EntriesEvaluated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "riptide_entries_evaluated_total",
			Help: "Entry evaluations by outcome.",
		}, []string{"outcome"}),
		TradesOpened: promauto.NewCounter(prometheus.CounterOpts{
			Name: "riptide_trades_opened_total",
			Help: "Positions opened.",
		}),
		TradesClosed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "riptide_trades_closed_total",
			Help: "Positions closed by reason.",
		}, []string{"reason"}),
		ExecFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "riptide_execution_failures_total",
			Help: "Backend execution failures by side.",
		}, []string{"side"}),
		OpenPositions: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "riptide_open_positions",
			Help: "Currently open positions.",
		}),
		Capital: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "riptide_available_capital",
			Help: "Capital available for sizing, in quote units.",
		}),
		DailyPnL: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "riptide_daily_pnl",
			Help: "Realized pnl since the UTC day rollover.",
		}),
		PairsEnabled: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "riptide_pairs_enabled",
			Help: "Enabled pairs in the current universe snapshot.",
		}),
	}
}
