// Package decisionlog keeps an append-only record of every entry evaluation
// for offline analysis of the admission gates. It uses plain database/sql so
// the write path stays a single prepared insert.
package decisionlog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"riptide/internal/engine"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS decisions (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	ts        INTEGER NOT NULL,
	pair      TEXT NOT NULL,
	outcome   TEXT NOT NULL,
	reason    TEXT,
	price     REAL,
	size      REAL,
	edge_prob REAL,
	ev        REAL,
	friction  REAL,
	regime    TEXT
);
CREATE INDEX IF NOT EXISTS idx_decisions_ts ON decisions (ts);
CREATE INDEX IF NOT EXISTS idx_decisions_pair ON decisions (pair, ts);
`

// Store implements the engine's DecisionSink.
type Store struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

func New(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("decision log path required")
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("decision log schema: %w", err)
	}
	db.SetMaxOpenConns(1)
	return &Store{db: db, path: path}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordDecision appends one evaluation outcome.
func (s *Store) RecordDecision(ctx context.Context, rec engine.DecisionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO decisions (ts, pair, outcome, reason, price, size, edge_prob, ev, friction, regime)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		time.Now().Unix(), rec.Pair, rec.Outcome, rec.Reason,
		rec.Price, rec.Size, rec.P, rec.EV, rec.Friction, rec.Regime)
	if err != nil {
		return fmt.Errorf("decision log insert: %w", err)
	}
	return nil
}

// Recent returns the latest records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Row, error) {
	if limit <= 0 {
		limit = 100
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, ts, pair, outcome, reason, price, size, edge_prob, ev, friction, regime
		 FROM decisions ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Row
	for rows.Next() {
		var r Row
		var reason, regime sql.NullString
		if err := rows.Scan(&r.ID, &r.TS, &r.Pair, &r.Outcome, &reason, &r.Price, &r.Size, &r.P, &r.EV, &r.Friction, &regime); err != nil {
			return nil, err
		}
		r.Reason = reason.String
		r.Regime = regime.String
		out = append(out, r)
	}
	return out, rows.Err()
}

// Row is a persisted decision record.
type Row struct {
	ID       int64   `json:"id"`
	TS       int64   `json:"ts"`
	Pair     string  `json:"pair"`
	Outcome  string  `json:"outcome"`
	Reason   string  `json:"reason,omitempty"`
	Price    float64 `json:"price"`
	Size     float64 `json:"size"`
	P        float64 `json:"edge_prob"`
	EV       float64 `json:"ev"`
	Friction float64 `json:"friction"`
	Regime   string  `json:"regime"`
}
