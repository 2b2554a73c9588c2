package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote is the latest known price for an instrument.
type Quote struct {
	AssetID   string          `json:"asset_id"`
	Symbol    string          `json:"symbol,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Timestamp time.Time       `json:"timestamp"`
}
