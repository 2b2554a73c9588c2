// Package app hosts the ledger behind the HTTP layer: it owns the
// store and price cache, serializes operations per user, and persists
// every successful transition before reporting success.
package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"paper-trader/config"
	"paper-trader/ledger"
	"paper-trader/models"
	"paper-trader/observability"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerStore defines the persistence operations needed by App
type LedgerStore interface {
	LoadState(ctx context.Context, userID string) (models.LedgerState, bool, error)
	SaveState(ctx context.Context, userID string, state models.LedgerState) error
	Health(ctx context.Context) error
	Close()
}

// PriceService is the price collaborator: a snapshot lookup for the
// ledger plus Ensure, which makes an asset's price available before a
// trade against it.
type PriceService interface {
	Price(assetID string) (decimal.Decimal, bool)
	Ensure(ctx context.Context, assetID string) error
}

// Portfolio is the derived view of one user's ledger at current prices.
type Portfolio struct {
	Balance       decimal.Decimal `json:"balance"`
	Equity        decimal.Decimal `json:"equity"`
	UnrealizedPnL decimal.Decimal `json:"unrealized_pnl"`
	Positions     []PositionView  `json:"positions"`
}

// PositionView is a position annotated with its current valuation.
// CurrentPrice is omitted when the price source has no quote, in which
// case the valuation falls back to the entry price.
type PositionView struct {
	models.Position
	CurrentPrice  *decimal.Decimal `json:"current_price,omitempty"`
	MarketValue   decimal.Decimal  `json:"market_value"`
	UnrealizedPnL decimal.Decimal  `json:"unrealized_pnl"`
}

// App struct holds application dependencies using interfaces for testability
type App struct {
	cfg    *config.Config
	store  LedgerStore
	prices PriceService

	// Mutating ledger operations are read-modify-write against the
	// stored state, so they are serialized per user.
	mu        sync.Mutex
	userLocks map[string]*sync.Mutex
}

// New creates a new App application struct
func New(cfg *config.Config, store LedgerStore, prices PriceService) *App {
	return &App{
		cfg:       cfg,
		store:     store,
		prices:    prices,
		userLocks: make(map[string]*sync.Mutex),
	}
}

// Shutdown is called when the app is closing
func (a *App) Shutdown(ctx context.Context) {
	if a.store != nil {
		a.store.Close()
	}
}

// Store returns the ledger store for API handlers
func (a *App) Store() LedgerStore {
	return a.store
}

// Prices returns the price service for API handlers
func (a *App) Prices() PriceService {
	return a.prices
}

// Deposit credits cash to a user's ledger and returns the new state.
func (a *App) Deposit(ctx context.Context, userID string, amount decimal.Decimal) (models.LedgerState, error) {
	var state models.LedgerState
	err := a.withLedger(ctx, userID, "deposit", func(l *ledger.Ledger) error {
		if err := l.Deposit(amount); err != nil {
			return err
		}
		state = l.State()
		return nil
	})
	return state, err
}

// Buy spends usdAmount of the user's cash on the asset at its current
// price and returns the opened position.
func (a *App) Buy(ctx context.Context, userID, assetID, symbol string, usdAmount decimal.Decimal) (models.Position, error) {
	if err := a.prices.Ensure(ctx, assetID); err != nil {
		observability.WithAsset(assetID).Warn("price fetch failed before buy", "error", err)
		// The ledger rejects the buy with ErrPriceUnavailable below;
		// a stale-but-fresh cached quote may still satisfy it.
	}

	var pos models.Position
	err := a.withLedger(ctx, userID, "buy", func(l *ledger.Ledger) error {
		var err error
		pos, err = l.Buy(a.prices, assetID, symbol, usdAmount, time.Now())
		return err
	})
	return pos, err
}

// Sell fully closes a position and returns the booked trade.
func (a *App) Sell(ctx context.Context, userID string, positionID uuid.UUID) (models.ClosedTrade, error) {
	a.ensurePositionPrice(ctx, userID, positionID)

	var trade models.ClosedTrade
	err := a.withLedger(ctx, userID, "sell", func(l *ledger.Ledger) error {
		var err error
		trade, err = l.Sell(a.prices, positionID, time.Now())
		return err
	})
	if err == nil {
		observability.GetMetrics().RecordRealizedPnL(trade.RealizedPnL.InexactFloat64())
	}
	return trade, err
}

// SellPartial closes quantity units of a position and returns the
// booked trade.
func (a *App) SellPartial(ctx context.Context, userID string, positionID uuid.UUID, quantity decimal.Decimal) (models.ClosedTrade, error) {
	a.ensurePositionPrice(ctx, userID, positionID)

	var trade models.ClosedTrade
	err := a.withLedger(ctx, userID, "sell_partial", func(l *ledger.Ledger) error {
		var err error
		trade, err = l.SellPartial(a.prices, positionID, quantity, time.Now())
		return err
	})
	if err == nil {
		observability.GetMetrics().RecordRealizedPnL(trade.RealizedPnL.InexactFloat64())
	}
	return trade, err
}

// Reset replaces the user's ledger with the default empty state.
func (a *App) Reset(ctx context.Context, userID string) (models.LedgerState, error) {
	var state models.LedgerState
	err := a.withLedger(ctx, userID, "reset", func(l *ledger.Ledger) error {
		l.Reset()
		state = l.State()
		return nil
	})
	return state, err
}

// Portfolio returns the user's balance, open positions and their
// valuation at current prices. It never mutates the ledger.
func (a *App) Portfolio(ctx context.Context, userID string) (Portfolio, error) {
	state, err := a.loadState(ctx, userID)
	if err != nil {
		return Portfolio{}, err
	}

	l := ledger.FromState(state, a.openingBalance())
	views := make([]PositionView, 0, len(state.Positions))
	for _, p := range state.Positions {
		view := PositionView{Position: p}
		if price, ok := a.prices.Price(p.AssetID); ok && price.IsPositive() {
			view.CurrentPrice = &price
			view.MarketValue = p.MarketValue(price).Round(2)
			view.UnrealizedPnL = p.UnrealizedPnL(price).Round(2)
		} else {
			view.MarketValue = p.MarketValue(p.EntryPrice).Round(2)
			view.UnrealizedPnL = decimal.Zero
		}
		views = append(views, view)
	}

	return Portfolio{
		Balance:       state.Balance,
		Equity:        l.Equity(a.prices),
		UnrealizedPnL: l.UnrealizedPnL(a.prices),
		Positions:     views,
	}, nil
}

// History returns the user's closed trades, newest first.
func (a *App) History(ctx context.Context, userID string, limit int) ([]models.ClosedTrade, error) {
	state, err := a.loadState(ctx, userID)
	if err != nil {
		return nil, err
	}
	if limit > 0 && limit < len(state.History) {
		return state.History[:limit], nil
	}
	return state.History, nil
}

// withLedger runs one mutating operation as a short transaction:
// acquire the user's lock, load, apply, save, release. The state is
// only persisted when the operation succeeds, and the caller only
// hears success once the save is durable.
func (a *App) withLedger(ctx context.Context, userID, operation string, fn func(*ledger.Ledger) error) error {
	lock := a.lockFor(userID)
	lock.Lock()
	defer lock.Unlock()

	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()

	state, err := a.loadState(ctx, userID)
	if err != nil {
		timer.ObserveLedgerOp(operation, "error")
		return err
	}

	l := ledger.FromState(state, a.openingBalance())
	if err := fn(l); err != nil {
		timer.ObserveLedgerOp(operation, "rejected")
		metrics.RecordLedgerRejection(operation, rejectionReason(err))
		return err
	}

	if err := a.store.SaveState(ctx, userID, l.State()); err != nil {
		timer.ObserveLedgerOp(operation, "error")
		return err
	}

	timer.ObserveLedgerOp(operation, "ok")
	return nil
}

func (a *App) loadState(ctx context.Context, userID string) (models.LedgerState, error) {
	state, found, err := a.store.LoadState(ctx, userID)
	if err != nil {
		return models.LedgerState{}, err
	}
	if !found {
		return models.NewLedgerState(a.openingBalance()), nil
	}
	return state, nil
}

// ensurePositionPrice warms the price cache for the asset behind a
// position so the subsequent sell sees a quote. Failures are left for
// the ledger to report as ErrPriceUnavailable.
func (a *App) ensurePositionPrice(ctx context.Context, userID string, positionID uuid.UUID) {
	state, err := a.loadState(ctx, userID)
	if err != nil {
		return
	}
	for _, p := range state.Positions {
		if p.ID == positionID {
			if err := a.prices.Ensure(ctx, p.AssetID); err != nil {
				observability.WithAsset(p.AssetID).Warn("price fetch failed before sell", "error", err)
			}
			return
		}
	}
}

func (a *App) lockFor(userID string) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()

	lock, ok := a.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		a.userLocks[userID] = lock
	}
	return lock
}

func (a *App) openingBalance() decimal.Decimal {
	return decimal.NewFromFloat(a.cfg.Ledger.OpeningBalance)
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, ledger.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, ledger.ErrPriceUnavailable):
		return "price_unavailable"
	case errors.Is(err, ledger.ErrPositionNotFound):
		return "position_not_found"
	case errors.Is(err, ledger.ErrInvalidQuantity):
		return "invalid_quantity"
	default:
		return "other"
	}
}
