package repository

import (
	"context"
	"fmt"
	"sort"

	"github.com/TonPlaygramBot/TonPlaygramMiniApp/internal/model"
)

func (r *Repository) ListTransactions(ctx context.Context, accountID string, limit, offset int) ([]model.Transaction, error) {
	transactions := []model.Transaction{}
	err := r.db.SelectContext(ctx, &transactions, `
		SELECT * FROM transactions
		WHERE account_id = $1
		ORDER BY seq DESC
		LIMIT $2 OFFSET $3`,
		accountID, limit, offset)
	return transactions, err
}

func (r *Repository) SumTransactions(ctx context.Context, accountID string) (int64, error) {
	var sum int64
	err := r.db.GetContext(ctx, &sum,
		"SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE account_id = $1", accountID)
	return sum, err
}

func (r *Repository) SetBalance(ctx context.Context, accountID string, balance int64) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE accounts SET balance = $1, updated_at = NOW() WHERE account_id = $2",
		balance, accountID)
	return err
}

// ApplyLedgerOps commits every op in one database transaction. Account
// rows are locked with FOR UPDATE in ascending account-id order so that
// concurrent multi-account mutations cannot deadlock.
func (r *Repository) ApplyLedgerOps(ctx context.Context, ops []LedgerOp) error {
	if len(ops) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	ids := make([]string, 0, len(ops))
	seen := make(map[string]bool, len(ops))
	for _, op := range ops {
		if !seen[op.AccountID] {
			seen[op.AccountID] = true
			ids = append(ids, op.AccountID)
		}
	}
	sort.Strings(ids)

	for _, id := range ids {
		var balance int64
		if err := tx.GetContext(ctx, &balance,
			"SELECT balance FROM accounts WHERE account_id = $1 FOR UPDATE", id); err != nil {
			return fmt.Errorf("failed to lock account %s: %w", id, err)
		}
	}

	for _, op := range ops {
		if _, err := tx.ExecContext(ctx,
			"UPDATE accounts SET balance = balance + $1, updated_at = NOW() WHERE account_id = $2",
			op.Delta, op.AccountID); err != nil {
			return fmt.Errorf("failed to update balance of %s: %w", op.AccountID, err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO transactions (account_id, seq, amount, type, token, status, counterparty_account_id, counterparty_name, note, game, created_at)
			VALUES ($1, (SELECT COALESCE(MAX(seq), 0) + 1 FROM transactions WHERE account_id = $1), $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			op.AccountID,
			op.Tx.Amount,
			op.Tx.Type,
			op.Tx.Token,
			op.Tx.Status,
			op.Tx.CounterpartyID,
			op.Tx.CounterpartyName,
			op.Tx.Note,
			op.Tx.Game,
			op.Tx.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to append transaction for %s: %w", op.AccountID, err)
		}
	}

	return tx.Commit()
}
