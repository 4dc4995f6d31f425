package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/TonPlaygramBot/TonPlaygramMiniApp/internal/model"
)

func (r *Repository) CreateIntent(ctx context.Context, intent *model.TransferIntent) error {
	query := `
		INSERT INTO transfer_intents (id, from_account, to_account, amount, note, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	return r.db.QueryRowContext(ctx, query,
		intent.ID,
		intent.FromAccount,
		intent.ToAccount,
		intent.Amount,
		intent.Note,
		intent.Status,
	).Scan(&intent.CreatedAt)
}

func (r *Repository) CompleteIntent(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE transfer_intents SET status = 'completed', completed_at = NOW() WHERE id = $1",
		id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrIntentNotFound
	}
	return nil
}

func (r *Repository) ListPendingIntents(ctx context.Context) ([]model.TransferIntent, error) {
	intents := []model.TransferIntent{}
	err := r.db.SelectContext(ctx, &intents,
		"SELECT * FROM transfer_intents WHERE status = 'pending' ORDER BY created_at")
	return intents, err
}
