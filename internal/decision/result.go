package decision

import (
	"fmt"

	"riptide/internal/types"
)

// FaultKind classifies upstream failures so callers can distinguish
// "legitimately no action" from "something broke and we degraded".
type FaultKind int

const (
	FaultValidation FaultKind = iota + 1
	FaultUnavailable
	FaultPredictor
	FaultExecution
)

func (k FaultKind) String() string {
	switch k {
	case FaultValidation:
		return "validation"
	case FaultUnavailable:
		return "unavailable"
	case FaultPredictor:
		return "predictor"
	case FaultExecution:
		return "execution"
	default:
		return "unknown"
	}
}

// Fault records a recoverable failure inside the decision pipeline.
type Fault struct {
	Kind  FaultKind
	Stage string
	Err   error
}

func (f *Fault) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s fault at %s: %v", f.Kind, f.Stage, f.Err)
	}
	return fmt.Sprintf("%s fault at %s", f.Kind, f.Stage)
}

func (f *Fault) Unwrap() error { return f.Err }

func newFault(kind FaultKind, stage string, err error) *Fault {
	return &Fault{Kind: kind, Stage: stage, Err: err}
}

// RejectReason explains a legitimate "no action" outcome.
type RejectReason string

const (
	RejectNone       RejectReason = ""
	RejectRegime     RejectReason = "regime_not_tradable"
	RejectSizing     RejectReason = "zero_size"
	RejectBelowMinEV RejectReason = "ev_below_threshold"
)

// EntryDecision is the single result of an entry evaluation. Exactly one of
// the three outcomes holds: Action set (trade), Reject set (no trade, by
// policy), or Fault set (no trade, upstream failure).
type EntryDecision struct {
	Action *types.OpenAction
	Reject RejectReason
	Fault  *Fault
}

func (d EntryDecision) Approved() bool { return d.Action != nil }

func rejected(reason RejectReason) EntryDecision {
	return EntryDecision{Reject: reason}
}

func faulted(kind FaultKind, stage string, err error) EntryDecision {
	return EntryDecision{Fault: newFault(kind, stage, err)}
}
