package executor

import (
	"context"
	"fmt"
	"time"

	"riptide/internal/config/loader"
	"riptide/internal/gateway/chain"
	"riptide/internal/logger"
	"riptide/internal/pkg/circuit"
	"riptide/internal/types"
)

// LiveBackend submits swaps through the transaction relay. A tripped breaker
// rejects execution outright; the engine treats that like any other failed
// fill and keeps its state unchanged.
type LiveBackend struct {
	client  *chain.Client
	pairs   *loader.PairLoader
	breaker *circuit.Breaker
}

func NewLiveBackend(client *chain.Client, pairs *loader.PairLoader, breakerThreshold int, breakerCooldown time.Duration) *LiveBackend {
	if breakerThreshold <= 0 {
		breakerThreshold = 3
	}
	if breakerCooldown <= 0 {
		breakerCooldown = 2 * time.Minute
	}
	return &LiveBackend{
		client:  client,
		pairs:   pairs,
		breaker: circuit.NewBreaker("chain-relay", breakerThreshold, breakerCooldown),
	}
}

func (l *LiveBackend) Mode() string { return "live" }

func (l *LiveBackend) Open(ctx context.Context, action types.OpenAction) (OpenReceipt, error) {
	if !l.breaker.Allow() {
		return OpenReceipt{}, fmt.Errorf("live open %s: relay breaker open", action.Pair)
	}
	pool, err := l.poolFor(action.Pair)
	if err != nil {
		return OpenReceipt{}, err
	}
	expectedOut := action.Size / action.EntryPrice
	hash, err := l.client.OpenPosition(ctx, chain.OpenRequest{
		Pool:     pool,
		AmountIn: action.Size,
		MinOut:   expectedOut * (1 - action.Friction),
	})
	if err != nil {
		l.breaker.RecordFailure()
		return OpenReceipt{}, fmt.Errorf("live open %s: %w", action.Pair, err)
	}
	l.breaker.RecordSuccess()
	logger.Infof("live open %s: size=%.2f tx=%s", action.Pair, action.Size, hash)
	return OpenReceipt{Ref: hash, FillPrice: action.EntryPrice}, nil
}

func (l *LiveBackend) Close(ctx context.Context, pos types.Position, action types.CloseAction) (CloseReceipt, error) {
	if !l.breaker.Allow() {
		return CloseReceipt{}, fmt.Errorf("live close %s: relay breaker open", pos.Pair)
	}
	pool, err := l.poolFor(pos.Pair)
	if err != nil {
		return CloseReceipt{}, err
	}
	baseAmount := pos.Size / pos.EntryPrice
	hash, err := l.client.ClosePosition(ctx, chain.CloseRequest{
		Pool:     pool,
		AmountIn: baseAmount,
		MinOut:   baseAmount * action.ExitPrice * (1 - pos.Friction),
		Ref:      pos.TxRef,
	})
	if err != nil {
		l.breaker.RecordFailure()
		return CloseReceipt{}, fmt.Errorf("live close %s: %w", pos.Pair, err)
	}
	l.breaker.RecordSuccess()
	pnl, pnlPct := RoundTripPnL(pos.EntryPrice, action.ExitPrice, pos.Size)
	logger.Infof("live close %s: reason=%s pnl=%.2f tx=%s", pos.Pair, action.Reason, pnl, hash)
	return CloseReceipt{Ref: hash, ExitPrice: action.ExitPrice, PnL: pnl, PnLPct: pnlPct}, nil
}

func (l *LiveBackend) poolFor(pair string) (string, error) {
	for _, p := range l.pairs.Snapshot().Pairs {
		if p.Symbol == pair && p.PoolAddr != "" {
			return p.PoolAddr, nil
		}
	}
	return "", fmt.Errorf("no pool bound for pair %s", pair)
}
