package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Position is an open simulated holding. EntryPrice is fixed at open;
// Quantity is reduced by partial sells and is always > 0 while the
// position exists.
type Position struct {
	ID         uuid.UUID       `json:"id"`
	AssetID    string          `json:"asset_id"`
	Symbol     string          `json:"symbol"`
	Quantity   decimal.Decimal `json:"quantity"`
	EntryPrice decimal.Decimal `json:"entry_price"`
	OpenedAt   time.Time       `json:"opened_at"`
}

// NewPosition creates a position with a fresh id.
func NewPosition(assetID, symbol string, quantity, entryPrice decimal.Decimal, openedAt time.Time) Position {
	return Position{
		ID:         uuid.New(),
		AssetID:    assetID,
		Symbol:     symbol,
		Quantity:   quantity,
		EntryPrice: entryPrice,
		OpenedAt:   openedAt,
	}
}

// CostBasis returns quantity * entry price.
func (p *Position) CostBasis() decimal.Decimal {
	return p.Quantity.Mul(p.EntryPrice)
}

// MarketValue returns quantity * the given price.
func (p *Position) MarketValue(price decimal.Decimal) decimal.Decimal {
	return p.Quantity.Mul(price)
}

// UnrealizedPnL returns the paper profit at the given price.
func (p *Position) UnrealizedPnL(price decimal.Decimal) decimal.Decimal {
	return price.Sub(p.EntryPrice).Mul(p.Quantity)
}
