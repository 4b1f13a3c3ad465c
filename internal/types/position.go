package types

import (
	"time"

	"riptide/internal/model"
)

// CloseReason explains why a position was closed.
type CloseReason string

const (
	CloseStopLoss     CloseReason = "STOP_LOSS"
	CloseTakeProfit   CloseReason = "TAKE_PROFIT"
	CloseRegimeChange CloseReason = "REGIME_CHANGE"
	CloseManual       CloseReason = "MANUAL"
)

// Position is an open trade tracked by the state store. It is owned by the
// store after creation and mutated only during its close transition.
type Position struct {
	ID            string         `json:"id"`
	Pair          string         `json:"pair"`
	EntryPrice    float64        `json:"entry_price"`
	Size          float64        `json:"size"`
	StopLossPct   float64        `json:"stop_loss_pct"`
	TakeProfitPct float64        `json:"take_profit_pct"`
	OpenedAt      time.Time      `json:"opened_at"`
	P             float64        `json:"p,omitempty"`
	EV            float64        `json:"ev,omitempty"`
	Friction      float64        `json:"friction,omitempty"`
	Regime        model.Regime   `json:"regime,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	LedgerID      int64          `json:"ledger_id,omitempty"`
	TxRef         string         `json:"tx_ref,omitempty"`
}

// OpenAction is the immutable request to open a position, produced by the
// entry pipeline and consumed by an execution backend.
type OpenAction struct {
	Pair            string
	Size            float64
	EntryPrice      float64
	StopLossPct     float64
	TakeProfitPct   float64
	P               float64
	EV              float64
	Friction        float64
	Regime          model.Regime
	StopLossPrice   float64
	TakeProfitPrice float64
	Metadata        map[string]any
}

// CloseAction is the immutable request to close an open position.
type CloseAction struct {
	PositionID string
	Pair       string
	Reason     CloseReason
	ExitPrice  float64
}

// ClosedTrade is a ledger entry for a finished round trip.
type ClosedTrade struct {
	Position  Position
	ExitPrice float64
	PnL       float64
	PnLPct    float64
	Reason    CloseReason
	ClosedAt  time.Time
}
