package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ClosedTrade is an immutable record of a fully or partially realized
// exit. Quantity is the quantity that was closed, which may be less
// than the originating position's quantity for partial closes.
type ClosedTrade struct {
	ID          uuid.UUID       `json:"id"`
	PositionID  uuid.UUID       `json:"position_id"`
	AssetID     string          `json:"asset_id"`
	Symbol      string          `json:"symbol"`
	Quantity    decimal.Decimal `json:"quantity"`
	EntryPrice  decimal.Decimal `json:"entry_price"`
	ExitPrice   decimal.Decimal `json:"exit_price"`
	RealizedPnL decimal.Decimal `json:"realized_pnl"`
	OpenedAt    time.Time       `json:"opened_at"`
	ClosedAt    time.Time       `json:"closed_at"`
}

// NewClosedTrade books the exit of quantity units of a position at
// exitPrice. RealizedPnL is (exit - entry) * quantity rounded to cents.
func NewClosedTrade(p Position, quantity, exitPrice decimal.Decimal, closedAt time.Time) ClosedTrade {
	pnl := exitPrice.Sub(p.EntryPrice).Mul(quantity).Round(2)
	return ClosedTrade{
		ID:          uuid.New(),
		PositionID:  p.ID,
		AssetID:     p.AssetID,
		Symbol:      p.Symbol,
		Quantity:    quantity,
		EntryPrice:  p.EntryPrice,
		ExitPrice:   exitPrice,
		RealizedPnL: pnl,
		OpenedAt:    p.OpenedAt,
		ClosedAt:    closedAt,
	}
}

// Proceeds returns quantity * exit price.
func (t *ClosedTrade) Proceeds() decimal.Decimal {
	return t.Quantity.Mul(t.ExitPrice)
}
