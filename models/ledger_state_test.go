package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestNewLedgerState(t *testing.T) {
	s := NewLedgerState(decimal.NewFromFloat(10000.005))

	if !s.Balance.Equal(decimal.NewFromInt(10000)) {
		t.Errorf("Balance = %s, want 10000 after rounding", s.Balance)
	}
	if s.Positions == nil || len(s.Positions) != 0 {
		t.Errorf("Positions = %v, want empty non-nil slice", s.Positions)
	}
	if s.History == nil || len(s.History) != 0 {
		t.Errorf("History = %v, want empty non-nil slice", s.History)
	}
}

func TestLedgerState_CloneIsIndependent(t *testing.T) {
	pos := NewPosition("bitcoin", "BTC", decimal.NewFromFloat(0.01), decimal.NewFromInt(50000), time.Now())
	s := LedgerState{
		Balance:   decimal.NewFromInt(500),
		Positions: []Position{pos},
		History:   []ClosedTrade{},
	}

	clone := s.Clone()
	clone.Positions[0].Quantity = decimal.NewFromInt(999)
	clone.Balance = decimal.Zero

	if !s.Positions[0].Quantity.Equal(pos.Quantity) {
		t.Error("mutating the clone changed the original positions")
	}
	if !s.Balance.Equal(decimal.NewFromInt(500)) {
		t.Error("mutating the clone changed the original balance")
	}
}
