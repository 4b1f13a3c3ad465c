package engine

import (
	"context"

	"riptide/internal/types"
)

// CapitalSource reports the capital available for position sizing. Live mode
// reads the treasury balance; the sandbox reads the simulated portfolio.
type CapitalSource interface {
	AvailableCapital(ctx context.Context) (float64, error)
}

// LogSink records trade lifecycle events durably. RecordOpen returns the
// ledger row id so the close can be joined to it later.
type LogSink interface {
	RecordOpen(ctx context.Context, pos types.Position, ref string) (int64, error)
	RecordClose(ctx context.Context, pos types.Position, trade types.ClosedTrade) error
}

// DecisionSink records every entry evaluation, approved or not, for offline
// analysis of the admission gates.
type DecisionSink interface {
	RecordDecision(ctx context.Context, rec DecisionRecord) error
}

// DecisionRecord is one entry evaluation outcome.
type DecisionRecord struct {
	Pair     string
	Outcome  string
	Reason   string
	Price    float64
	Size     float64
	P        float64
	EV       float64
	Friction float64
	Regime   string
}
