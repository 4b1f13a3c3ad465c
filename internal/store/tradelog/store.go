// Package tradelog persists the trade ledger in SQLite through gorm.
package tradelog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	storemodel "riptide/internal/store/model"
	"riptide/internal/types"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// Store is the durable trade ledger. It implements the engine's LogSink.
type Store struct {
	db   *gorm.DB
	mode string
}

// New opens (and migrates) the ledger at path. Mode tags every row so live
// and sandbox histories can share a file without mixing.
func New(path, mode string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("trade ledger path required")
	}
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(&sqlite.Dialector{DriverName: "sqlite", DSN: dsn}, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&storemodel.TradeModel{}); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetMaxIdleConns(2)
	return &Store{db: db, mode: mode}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// RecordOpen inserts the open leg and returns the ledger row id.
func (s *Store) RecordOpen(ctx context.Context, pos types.Position, ref string) (int64, error) {
	meta, err := json.Marshal(pos.Metadata)
	if err != nil {
		meta = []byte("{}")
	}
	now := time.Now().Unix()
	row := storemodel.TradeModel{
		PositionID:    pos.ID,
		Pair:          pos.Pair,
		Mode:          s.mode,
		Status:        storemodel.TradeStatusOpen,
		EntryPrice:    pos.EntryPrice,
		Size:          pos.Size,
		StopLossPct:   pos.StopLossPct,
		TakeProfitPct: pos.TakeProfitPct,
		EdgeProb:      pos.P,
		EV:            pos.EV,
		Friction:      pos.Friction,
		Regime:        pos.Regime.String(),
		TxRef:         ref,
		MetadataJSON:  meta,
		OpenedAtUnix:  pos.OpenedAt.Unix(),
		CreatedAtUnix: now,
		UpdatedAtUnix: now,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return 0, fmt.Errorf("ledger open %s: %w", pos.Pair, err)
	}
	return row.ID, nil
}

// RecordClose completes the row opened by RecordOpen. The join uses the
// ledger id when the engine has one, falling back to the position id.
func (s *Store) RecordClose(ctx context.Context, pos types.Position, trade types.ClosedTrade) error {
	updates := map[string]any{
		"status":       storemodel.TradeStatusClosed,
		"exit_price":   trade.ExitPrice,
		"close_reason": string(trade.Reason),
		"pnl":          trade.PnL,
		"pnl_pct":      trade.PnLPct,
		"closed_at":    trade.ClosedAt.Unix(),
		"updated_at":   time.Now().Unix(),
	}
	q := s.db.WithContext(ctx).Model(&storemodel.TradeModel{})
	if pos.LedgerID > 0 {
		q = q.Where("id = ?", pos.LedgerID)
	} else {
		q = q.Where("position_id = ?", pos.ID)
	}
	res := q.Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("ledger close %s: %w", pos.Pair, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("ledger close %s: no open row for position %s", pos.Pair, pos.ID)
	}
	return nil
}

// ClosedTrades returns closed rows newest first, capped at limit.
func (s *Store) ClosedTrades(ctx context.Context, limit int) ([]storemodel.TradeModel, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []storemodel.TradeModel
	err := s.db.WithContext(ctx).
		Where("status = ?", storemodel.TradeStatusClosed).
		Order("closed_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// EquityPoints returns (closed_at, pnl) pairs oldest first for the report.
func (s *Store) EquityPoints(ctx context.Context) ([]EquityPoint, error) {
	var rows []storemodel.TradeModel
	err := s.db.WithContext(ctx).
		Where("status = ?", storemodel.TradeStatusClosed).
		Order("closed_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]EquityPoint, 0, len(rows))
	for _, r := range rows {
		out = append(out, EquityPoint{At: time.Unix(r.ClosedAtUnix, 0).UTC(), PnL: r.PnL})
	}
	return out, nil
}

// EquityPoint is one realized-pnl sample on the equity curve.
type EquityPoint struct {
	At  time.Time
	PnL float64
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
