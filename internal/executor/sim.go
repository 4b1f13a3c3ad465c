package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"riptide/internal/decision"
	"riptide/internal/logger"
	"riptide/internal/market"
	"riptide/internal/types"

	"github.com/google/uuid"
)

// SimBackend fills orders against a virtual portfolio. Fills are adjusted by
// pool slippage when reserves are available, so sandbox results carry the
// same execution cost model as live trading.
type SimBackend struct {
	reserves market.ReservesFeed
	feeBps   int

	mu       sync.Mutex
	balance  float64
	totalPnL float64
	ledger   []types.ClosedTrade
	nowFn    func() time.Time
}

// NewSimBackend starts the portfolio at the given quote balance. The
// reserves feed may be nil; fills are then taken at the observed price.
func NewSimBackend(startingBalance float64, reserves market.ReservesFeed, feeBps int) *SimBackend {
	return &SimBackend{
		reserves: reserves,
		feeBps:   feeBps,
		balance:  startingBalance,
		nowFn:    time.Now,
	}
}

func (s *SimBackend) Mode() string { return "sandbox" }

// Open reserves the position size from the balance. Insufficient balance
// fails the fill and leaves the portfolio untouched.
func (s *SimBackend) Open(ctx context.Context, action types.OpenAction) (OpenReceipt, error) {
	slip := s.slippage(ctx, action.Pair, action.Size)
	fill := action.EntryPrice * (1 + slip)

	s.mu.Lock()
	defer s.mu.Unlock()
	if action.Size > s.balance {
		return OpenReceipt{}, fmt.Errorf("sim open %s: size %.2f exceeds balance %.2f", action.Pair, action.Size, s.balance)
	}
	s.balance -= action.Size
	logger.Debugf("sim open %s: size=%.2f fill=%.6f slip=%.6f balance=%.2f",
		action.Pair, action.Size, fill, slip, s.balance)
	return OpenReceipt{Ref: "sim-" + uuid.NewString(), FillPrice: fill}, nil
}

// Close realizes the position at a slippage-adjusted exit fill and returns
// the reserved size plus realized pnl to the balance.
func (s *SimBackend) Close(ctx context.Context, pos types.Position, action types.CloseAction) (CloseReceipt, error) {
	slip := s.slippage(ctx, pos.Pair, pos.Size)
	fill := action.ExitPrice * (1 - slip)
	pnl, pnlPct := RoundTripPnL(pos.EntryPrice, fill, pos.Size)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.balance += pos.Size + pnl
	s.totalPnL += pnl
	s.ledger = append(s.ledger, types.ClosedTrade{
		Position:  pos,
		ExitPrice: fill,
		PnL:       pnl,
		PnLPct:    pnlPct,
		Reason:    action.Reason,
		ClosedAt:  s.nowFn(),
	})
	logger.Debugf("sim close %s: reason=%s fill=%.6f pnl=%.2f balance=%.2f",
		pos.Pair, action.Reason, fill, pnl, s.balance)
	return CloseReceipt{Ref: "sim-" + uuid.NewString(), ExitPrice: fill, PnL: pnl, PnLPct: pnlPct}, nil
}

// AvailableCapital implements the engine capital source with the live
// portfolio balance.
func (s *SimBackend) AvailableCapital(ctx context.Context) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balance, nil
}

// Balance returns the current quote balance.
func (s *SimBackend) Balance() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balance
}

// TotalPnL returns realized pnl across the session.
func (s *SimBackend) TotalPnL() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalPnL
}

// Ledger returns a copy of the closed-trade history in close order.
func (s *SimBackend) Ledger() []types.ClosedTrade {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.ClosedTrade(nil), s.ledger...)
}

func (s *SimBackend) slippage(ctx context.Context, pair string, size float64) float64 {
	if s.reserves == nil {
		return 0
	}
	base, quote, err := s.reserves.Reserves(ctx, pair)
	if err != nil {
		logger.Debugf("sim slippage %s: reserves unavailable, filling at mark: %v", pair, err)
		return 0
	}
	return decision.BaseSlippage(size, base, quote, s.feeBps)
}
