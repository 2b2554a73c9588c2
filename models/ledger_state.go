package models

import "github.com/shopspring/decimal"

// LedgerState is the full paper-trading aggregate for one user:
// uncommitted cash, open positions (newest first) and the append-only
// history of closed trades (newest first).
type LedgerState struct {
	Balance   decimal.Decimal `json:"balance"`
	Positions []Position      `json:"positions"`
	History   []ClosedTrade   `json:"history"`
}

// NewLedgerState returns the default empty state with the given
// opening balance.
func NewLedgerState(openingBalance decimal.Decimal) LedgerState {
	return LedgerState{
		Balance:   openingBalance.Round(2),
		Positions: []Position{},
		History:   []ClosedTrade{},
	}
}

// Clone returns a deep-enough copy of the state. Position and trade
// values are copied; decimals are immutable.
func (s LedgerState) Clone() LedgerState {
	out := LedgerState{
		Balance:   s.Balance,
		Positions: make([]Position, len(s.Positions)),
		History:   make([]ClosedTrade, len(s.History)),
	}
	copy(out.Positions, s.Positions)
	copy(out.History, s.History)
	return out
}
