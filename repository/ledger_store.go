package repository

import (
	"context"
	"fmt"

	"paper-trader/models"
	"paper-trader/observability"

	"github.com/jackc/pgx/v5"
)

// LoadState returns the last saved ledger state for a user. The second
// return is false when the user has no saved state yet.
func (r *Repository) LoadState(ctx context.Context, userID string) (models.LedgerState, bool, error) {
	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()
	defer timer.ObserveDB("load", "ledger_accounts")

	var state models.LedgerState

	err := r.db.QueryRow(ctx, `
		SELECT balance FROM ledger_accounts WHERE user_id = $1
	`, userID).Scan(&state.Balance)

	if err == pgx.ErrNoRows {
		return models.LedgerState{}, false, nil
	}
	if err != nil {
		metrics.RecordDBError("load", "ledger_accounts")
		return models.LedgerState{}, false, fmt.Errorf("failed to query account: %w", err)
	}

	positions, err := r.loadPositions(ctx, userID)
	if err != nil {
		return models.LedgerState{}, false, err
	}
	history, err := r.loadTrades(ctx, userID)
	if err != nil {
		return models.LedgerState{}, false, err
	}

	state.Positions = positions
	state.History = history
	return state, true, nil
}

// SaveState persists the full ledger state for a user in a single
// transaction, replacing whatever was saved before. The caller is only
// told the operation succeeded once the transaction has committed.
func (r *Repository) SaveState(ctx context.Context, userID string, state models.LedgerState) error {
	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()
	defer timer.ObserveDB("save", "ledger_accounts")

	tx, txRepo, err := r.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := txRepo.saveStateTx(ctx, userID, state); err != nil {
		metrics.RecordDBError("save", "ledger_accounts")
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		metrics.RecordDBError("save", "ledger_accounts")
		return fmt.Errorf("failed to commit ledger state: %w", err)
	}
	return nil
}

func (r *Repository) saveStateTx(ctx context.Context, userID string, state models.LedgerState) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO ledger_accounts (user_id, balance, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id)
		DO UPDATE SET balance = EXCLUDED.balance, updated_at = NOW()
	`, userID, state.Balance)
	if err != nil {
		return fmt.Errorf("failed to upsert account: %w", err)
	}

	if _, err := r.db.Exec(ctx, `DELETE FROM ledger_positions WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to clear positions: %w", err)
	}
	for _, p := range state.Positions {
		_, err := r.db.Exec(ctx, `
			INSERT INTO ledger_positions (id, user_id, asset_id, symbol, quantity, entry_price, opened_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, p.ID, userID, p.AssetID, p.Symbol, p.Quantity, p.EntryPrice, p.OpenedAt)
		if err != nil {
			return fmt.Errorf("failed to insert position: %w", err)
		}
	}

	// History only grows between resets; a reset saves an empty
	// history, which clears the table for the user.
	if len(state.History) == 0 {
		if _, err := r.db.Exec(ctx, `DELETE FROM ledger_trades WHERE user_id = $1`, userID); err != nil {
			return fmt.Errorf("failed to clear trades: %w", err)
		}
		return nil
	}
	for _, t := range state.History {
		_, err := r.db.Exec(ctx, `
			INSERT INTO ledger_trades (id, position_id, user_id, asset_id, symbol, quantity, entry_price, exit_price, realized_pnl, opened_at, closed_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (id) DO NOTHING
		`, t.ID, t.PositionID, userID, t.AssetID, t.Symbol, t.Quantity, t.EntryPrice, t.ExitPrice, t.RealizedPnL, t.OpenedAt, t.ClosedAt)
		if err != nil {
			return fmt.Errorf("failed to insert trade: %w", err)
		}
	}
	return nil
}

func (r *Repository) loadPositions(ctx context.Context, userID string) ([]models.Position, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, asset_id, symbol, quantity, entry_price, opened_at
		FROM ledger_positions
		WHERE user_id = $1
		ORDER BY opened_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	positions := []models.Position{}
	for rows.Next() {
		var p models.Position
		err := rows.Scan(&p.ID, &p.AssetID, &p.Symbol, &p.Quantity, &p.EntryPrice, &p.OpenedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		positions = append(positions, p)
	}

	return positions, nil
}

func (r *Repository) loadTrades(ctx context.Context, userID string) ([]models.ClosedTrade, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, position_id, asset_id, symbol, quantity, entry_price, exit_price, realized_pnl, opened_at, closed_at
		FROM ledger_trades
		WHERE user_id = $1
		ORDER BY closed_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	trades := []models.ClosedTrade{}
	for rows.Next() {
		var t models.ClosedTrade
		err := rows.Scan(&t.ID, &t.PositionID, &t.AssetID, &t.Symbol, &t.Quantity, &t.EntryPrice, &t.ExitPrice, &t.RealizedPnL, &t.OpenedAt, &t.ClosedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		trades = append(trades, t)
	}

	return trades, nil
}

// DeleteState removes every trace of a user's ledger.
func (r *Repository) DeleteState(ctx context.Context, userID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM ledger_accounts WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return nil
}
