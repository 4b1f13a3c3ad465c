// Package executor hosts the execution backends. The engine talks to a
// single Backend interface; whether fills land on-chain or in the simulated
// portfolio is invisible to the decision path.
package executor

import (
	"context"

	"riptide/internal/types"
)

// OpenReceipt reports a confirmed open fill.
type OpenReceipt struct {
	// Ref identifies the execution: a transaction hash live, a synthetic
	// fill id in the sandbox.
	Ref string
	// FillPrice is the effective entry price after execution costs.
	FillPrice float64
}

// CloseReceipt reports a confirmed close fill with realized results.
type CloseReceipt struct {
	Ref       string
	ExitPrice float64
	PnL       float64
	PnLPct    float64
}

// Backend executes approved actions. Implementations must not mutate engine
// state: a returned error means nothing happened and the caller keeps its
// view unchanged.
type Backend interface {
	Open(ctx context.Context, action types.OpenAction) (OpenReceipt, error)
	Close(ctx context.Context, pos types.Position, action types.CloseAction) (CloseReceipt, error)
	Mode() string
}

// RoundTripPnL is the single definition of realized profit for a long
// position, shared by every backend so live and sandbox accounting cannot
// drift apart.
func RoundTripPnL(entryPrice, exitPrice, size float64) (pnl, pnlPct float64) {
	if entryPrice <= 0 || size <= 0 {
		return 0, 0
	}
	pnl = (exitPrice - entryPrice) * size
	pnlPct = exitPrice/entryPrice - 1
	return pnl, pnlPct
}
