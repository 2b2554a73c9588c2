package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestNewPosition_UniqueIDs(t *testing.T) {
	now := time.Now()
	a := NewPosition("bitcoin", "BTC", decimal.NewFromFloat(0.01), decimal.NewFromInt(50000), now)
	b := NewPosition("bitcoin", "BTC", decimal.NewFromFloat(0.01), decimal.NewFromInt(50000), now)

	if a.ID == b.ID {
		t.Error("two positions share the same ID")
	}
}

func TestPosition_Valuation(t *testing.T) {
	p := NewPosition("bitcoin", "BTC", decimal.NewFromFloat(0.01), decimal.NewFromInt(50000), time.Now())

	if !p.CostBasis().Equal(decimal.NewFromInt(500)) {
		t.Errorf("CostBasis() = %s, want 500", p.CostBasis())
	}

	price := decimal.NewFromInt(60000)
	if !p.MarketValue(price).Equal(decimal.NewFromInt(600)) {
		t.Errorf("MarketValue(60000) = %s, want 600", p.MarketValue(price))
	}
	if !p.UnrealizedPnL(price).Equal(decimal.NewFromInt(100)) {
		t.Errorf("UnrealizedPnL(60000) = %s, want 100", p.UnrealizedPnL(price))
	}

	// At the entry price the paper profit is zero.
	if !p.UnrealizedPnL(p.EntryPrice).IsZero() {
		t.Errorf("UnrealizedPnL(entry) = %s, want 0", p.UnrealizedPnL(p.EntryPrice))
	}
}

func TestPosition_UnrealizedLoss(t *testing.T) {
	p := NewPosition("ethereum", "ETH", decimal.NewFromInt(2), decimal.NewFromInt(3000), time.Now())

	pnl := p.UnrealizedPnL(decimal.NewFromInt(2500))
	if !pnl.Equal(decimal.NewFromInt(-1000)) {
		t.Errorf("UnrealizedPnL(2500) = %s, want -1000", pnl)
	}
}
