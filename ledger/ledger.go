// Package ledger implements the paper-trading accounting engine: a
// cash balance, open positions and an append-only history of closed
// trades for one user, mutated through a small set of operations.
//
// The engine performs no I/O. Prices come in through the PriceSource
// snapshot interface and persistence is the caller's concern: apply an
// operation, then save State(). Validation strictly precedes mutation,
// so a failed operation never leaves partial effects behind.
package ledger

import (
	"fmt"
	"time"

	"paper-trader/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PriceSource supplies the latest known price for an instrument.
// The second return is false when no price is currently known.
type PriceSource interface {
	Price(assetID string) (decimal.Decimal, bool)
}

// closeEpsilon absorbs floating-point residue from partial sells: a
// remainder below this is treated as a full close rather than left as
// an unsellable dust position.
var closeEpsilon = decimal.New(1, -9)

const (
	// moneyPlaces is the storage precision for currency values.
	moneyPlaces = 2
	// quantityPlaces is the storage precision for quantities, enough
	// for sub-unit holdings of low-priced assets.
	quantityPlaces = 6
)

// Ledger owns one user's LedgerState and applies operations to it.
// It is not safe for concurrent use; callers serialize per user.
type Ledger struct {
	state          models.LedgerState
	openingBalance decimal.Decimal
}

// New returns a ledger holding the default empty state with the given
// opening balance.
func New(openingBalance decimal.Decimal) *Ledger {
	return &Ledger{
		state:          models.NewLedgerState(openingBalance),
		openingBalance: openingBalance,
	}
}

// FromState restores a ledger from a previously saved state.
// openingBalance is what Reset returns the balance to.
func FromState(state models.LedgerState, openingBalance decimal.Decimal) *Ledger {
	return &Ledger{state: state.Clone(), openingBalance: openingBalance}
}

// State returns a snapshot safe to hand to a store.
func (l *Ledger) State() models.LedgerState {
	return l.state.Clone()
}

// Balance returns the current cash balance.
func (l *Ledger) Balance() decimal.Decimal {
	return l.state.Balance
}

// Deposit credits amount to the cash balance. Amount must be positive.
func (l *Ledger) Deposit(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: deposit amount must be positive, got %s", ErrInvalidQuantity, amount)
	}
	l.state.Balance = l.state.Balance.Add(amount).Round(moneyPlaces)
	return nil
}

// Buy spends usdAmount of cash on the asset at its current price and
// opens a new position. The spend must be positive and covered by the
// balance, and a positive price must be available.
func (l *Ledger) Buy(prices PriceSource, assetID, symbol string, usdAmount decimal.Decimal, now time.Time) (models.Position, error) {
	if !usdAmount.IsPositive() {
		return models.Position{}, fmt.Errorf("%w: buy amount must be positive, got %s", ErrInvalidQuantity, usdAmount)
	}
	if usdAmount.GreaterThan(l.state.Balance) {
		return models.Position{}, fmt.Errorf("%w: requested %s, balance %s", ErrInsufficientBalance, usdAmount, l.state.Balance)
	}
	price, ok := l.lookupPrice(prices, assetID)
	if !ok {
		return models.Position{}, fmt.Errorf("%w: no current price for %s", ErrPriceUnavailable, assetID)
	}

	quantity := usdAmount.Div(price).Round(quantityPlaces)
	if !quantity.IsPositive() {
		return models.Position{}, fmt.Errorf("%w: %s buys a quantity below minimum precision at price %s", ErrInvalidQuantity, usdAmount, price)
	}

	pos := models.NewPosition(assetID, symbol, quantity, price, now)
	l.state.Balance = l.state.Balance.Sub(usdAmount).Round(moneyPlaces)
	l.state.Positions = append([]models.Position{pos}, l.state.Positions...)
	return pos, nil
}

// Sell fully closes the position at the asset's current price,
// crediting the proceeds to the balance and booking a closed trade.
func (l *Ledger) Sell(prices PriceSource, positionID uuid.UUID, now time.Time) (models.ClosedTrade, error) {
	idx, ok := l.findPosition(positionID)
	if !ok {
		return models.ClosedTrade{}, fmt.Errorf("%w: %s", ErrPositionNotFound, positionID)
	}
	pos := l.state.Positions[idx]

	price, ok := l.lookupPrice(prices, pos.AssetID)
	if !ok {
		return models.ClosedTrade{}, fmt.Errorf("%w: no current price for %s", ErrPriceUnavailable, pos.AssetID)
	}

	trade := models.NewClosedTrade(pos, pos.Quantity, price, now)
	l.removePosition(idx)
	l.appendHistory(trade)
	l.state.Balance = l.state.Balance.Add(trade.Proceeds()).Round(moneyPlaces)
	return trade, nil
}

// SellPartial closes quantity units of the position at the asset's
// current price. A remainder below the close epsilon removes the
// position entirely; otherwise the position's quantity is reduced in
// place, leaving entry price and open time unchanged.
func (l *Ledger) SellPartial(prices PriceSource, positionID uuid.UUID, quantity decimal.Decimal, now time.Time) (models.ClosedTrade, error) {
	idx, ok := l.findPosition(positionID)
	if !ok {
		return models.ClosedTrade{}, fmt.Errorf("%w: %s", ErrPositionNotFound, positionID)
	}
	pos := l.state.Positions[idx]

	if !quantity.IsPositive() {
		return models.ClosedTrade{}, fmt.Errorf("%w: sell quantity must be positive, got %s", ErrInvalidQuantity, quantity)
	}
	if quantity.GreaterThan(pos.Quantity) {
		return models.ClosedTrade{}, fmt.Errorf("%w: sell quantity %s exceeds position quantity %s", ErrInvalidQuantity, quantity, pos.Quantity)
	}

	price, ok := l.lookupPrice(prices, pos.AssetID)
	if !ok {
		return models.ClosedTrade{}, fmt.Errorf("%w: no current price for %s", ErrPriceUnavailable, pos.AssetID)
	}

	trade := models.NewClosedTrade(pos, quantity, price, now)

	remainder := pos.Quantity.Sub(quantity)
	if remainder.LessThan(closeEpsilon) {
		l.removePosition(idx)
	} else {
		l.state.Positions[idx].Quantity = remainder.Round(quantityPlaces)
	}
	l.appendHistory(trade)
	l.state.Balance = l.state.Balance.Add(trade.Proceeds()).Round(moneyPlaces)
	return trade, nil
}

// Reset replaces the entire state with the default empty state. It
// cannot fail and is idempotent.
func (l *Ledger) Reset() {
	l.state = models.NewLedgerState(l.openingBalance)
}

// Equity returns cash balance plus the market value of all open
// positions, valued at current prices. A position whose price is
// momentarily unknown is valued at its entry price rather than
// failing the whole computation.
func (l *Ledger) Equity(prices PriceSource) decimal.Decimal {
	total := l.state.Balance
	for i := range l.state.Positions {
		p := &l.state.Positions[i]
		price, ok := l.lookupPrice(prices, p.AssetID)
		if !ok {
			price = p.EntryPrice
		}
		total = total.Add(p.MarketValue(price))
	}
	return total.Round(moneyPlaces)
}

// UnrealizedPnL returns the paper profit across all open positions at
// current prices. Positions without a current price fall back to their
// entry price and so contribute zero.
func (l *Ledger) UnrealizedPnL(prices PriceSource) decimal.Decimal {
	total := decimal.Zero
	for i := range l.state.Positions {
		p := &l.state.Positions[i]
		price, ok := l.lookupPrice(prices, p.AssetID)
		if !ok {
			price = p.EntryPrice
		}
		total = total.Add(p.UnrealizedPnL(price))
	}
	return total.Round(moneyPlaces)
}

func (l *Ledger) lookupPrice(prices PriceSource, assetID string) (decimal.Decimal, bool) {
	if prices == nil {
		return decimal.Zero, false
	}
	price, ok := prices.Price(assetID)
	if !ok || !price.IsPositive() {
		return decimal.Zero, false
	}
	return price, true
}

func (l *Ledger) findPosition(id uuid.UUID) (int, bool) {
	for i := range l.state.Positions {
		if l.state.Positions[i].ID == id {
			return i, true
		}
	}
	return 0, false
}

func (l *Ledger) removePosition(idx int) {
	l.state.Positions = append(l.state.Positions[:idx], l.state.Positions[idx+1:]...)
}

func (l *Ledger) appendHistory(trade models.ClosedTrade) {
	l.state.History = append([]models.ClosedTrade{trade}, l.state.History...)
}
