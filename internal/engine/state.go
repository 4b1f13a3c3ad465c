package engine

import (
	"fmt"
	"sync"
	"time"

	"riptide/internal/types"
)

// StateStore is the single owner of open-position state and trade pacing
// counters. All mutation goes through the engine loop; the HTTP layer only
// reads snapshots.
type StateStore struct {
	mu        sync.Mutex
	positions map[string]types.Position
	cooldowns map[string]time.Time

	lastTradeAt time.Time
	tradesToday int
	dailyPnL    float64
	dayAnchor   string

	nowFn func() time.Time
}

func NewStateStore() *StateStore {
	return &StateStore{
		positions: make(map[string]types.Position),
		cooldowns: make(map[string]time.Time),
		nowFn:     time.Now,
	}
}

// AddPosition stores a newly opened position. Duplicate ids are a bug in the
// caller and rejected.
func (s *StateStore) AddPosition(pos types.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.positions[pos.ID]; exists {
		return fmt.Errorf("position %s already tracked", pos.ID)
	}
	s.positions[pos.ID] = pos
	return nil
}

// RemovePosition drops a position by id and returns it.
func (s *StateStore) RemovePosition(id string) (types.Position, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pos, ok := s.positions[id]
	if ok {
		delete(s.positions, id)
	}
	return pos, ok
}

// Position returns a position by id without removing it.
func (s *StateStore) Position(id string) (types.Position, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pos, ok := s.positions[id]
	return pos, ok
}

// Positions returns a snapshot copy of all open positions.
func (s *StateStore) Positions() []types.Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.Position, 0, len(s.positions))
	for _, pos := range s.positions {
		out = append(out, pos)
	}
	return out
}

// OpenCount returns the number of open positions.
func (s *StateStore) OpenCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.positions)
}

// MarkTrade records a successful open: it starts the pair cooldown, advances
// the global last-trade timestamp, and bumps the daily counter.
func (s *StateStore) MarkTrade(pair string) {
	now := s.nowFn()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cooldowns[pair] = now
	s.lastTradeAt = now
	s.tradesToday++
}

// InCooldown reports whether the pair traded within the window.
func (s *StateStore) InCooldown(pair string, window time.Duration) bool {
	if window <= 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	last, ok := s.cooldowns[pair]
	if !ok {
		return false
	}
	return s.nowFn().Sub(last) < window
}

// GlobalCooldownActive reports whether any pair traded within the window.
func (s *StateStore) GlobalCooldownActive(window time.Duration) bool {
	if window <= 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastTradeAt.IsZero() {
		return false
	}
	return s.nowFn().Sub(s.lastTradeAt) < window
}

// AddDailyPnL accumulates realized pnl into the current day bucket.
func (s *StateStore) AddDailyPnL(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dailyPnL += v
}

// RollDay resets the daily counters when the UTC date changes. Returns true
// when a rollover happened.
func (s *StateStore) RollDay() bool {
	today := s.nowFn().UTC().Format("2006-01-02")
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dayAnchor == today {
		return false
	}
	first := s.dayAnchor == ""
	s.dayAnchor = today
	s.tradesToday = 0
	s.dailyPnL = 0
	return !first
}

// Counters returns the pacing counters for reporting.
func (s *StateStore) Counters() (tradesToday int, dailyPnL float64, lastTradeAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tradesToday, s.dailyPnL, s.lastTradeAt
}
