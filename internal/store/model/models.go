// Package model defines the persisted row shapes for the trade ledger.
package model

import "gorm.io/datatypes"

type TradeStatus int

const (
	TradeStatusOpen   TradeStatus = 1
	TradeStatusClosed TradeStatus = 2
)

// TradeModel is one position lifecycle row: inserted on open, completed on
// close. PositionID is the engine's uuid; ID is the ledger row id handed
// back to the engine for the close join.
type TradeModel struct {
	ID            int64          `gorm:"column:id;primaryKey"`
	PositionID    string         `gorm:"column:position_id;uniqueIndex"`
	Pair          string         `gorm:"column:pair;index"`
	Mode          string         `gorm:"column:mode"`
	Status        TradeStatus    `gorm:"column:status;index"`
	EntryPrice    float64        `gorm:"column:entry_price"`
	ExitPrice     float64        `gorm:"column:exit_price"`
	Size          float64        `gorm:"column:size"`
	StopLossPct   float64        `gorm:"column:stop_loss_pct"`
	TakeProfitPct float64        `gorm:"column:take_profit_pct"`
	EdgeProb      float64        `gorm:"column:edge_prob"`
	EV            float64        `gorm:"column:ev"`
	Friction      float64        `gorm:"column:friction"`
	Regime        string         `gorm:"column:regime"`
	CloseReason   string         `gorm:"column:close_reason"`
	PnL           float64        `gorm:"column:pnl"`
	PnLPct        float64        `gorm:"column:pnl_pct"`
	TxRef         string         `gorm:"column:tx_ref"`
	MetadataJSON  datatypes.JSON `gorm:"column:metadata_json;type:TEXT"`
	OpenedAtUnix  int64          `gorm:"column:opened_at"`
	ClosedAtUnix  int64          `gorm:"column:closed_at"`
	CreatedAtUnix int64          `gorm:"column:created_at"`
	UpdatedAtUnix int64          `gorm:"column:updated_at"`
}

func (TradeModel) TableName() string { return "trades" }
