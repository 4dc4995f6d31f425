package ledger

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/TonPlaygramBot/TonPlaygramMiniApp/internal/model"
	"github.com/TonPlaygramBot/TonPlaygramMiniApp/internal/repository"
)

// BalanceReconciler recomputes an account's balance from its immutable
// transaction log and self-heals a stale cache. Drift is corrected and
// logged, never silently persisted.
type BalanceReconciler struct {
	store  repository.Store
	locker *Locker
	log    zerolog.Logger
}

func NewBalanceReconciler(store repository.Store, locker *Locker, log zerolog.Logger) *BalanceReconciler {
	return &BalanceReconciler{store: store, locker: locker, log: log.With().Str("component", "reconciler").Logger()}
}

// Recompute sums a transaction log.
func Recompute(txs []model.Transaction) int64 {
	var sum int64
	for _, tx := range txs {
		sum += tx.Amount
	}
	return sum
}

// Reconcile returns the authoritative balance of an account. When the
// cached value has drifted from the transaction sum, the corrected value
// is persisted and the drift logged. A failure to persist the correction
// is non-fatal; the recomputed value is still returned.
func (r *BalanceReconciler) Reconcile(ctx context.Context, accountID string) (int64, error) {
	release := r.locker.Lock(accountID)
	defer release()

	account, err := r.store.GetAccount(ctx, accountID)
	if err != nil {
		return 0, err
	}

	sum, err := r.store.SumTransactions(ctx, accountID)
	if err != nil {
		return 0, err
	}

	if sum != account.Balance {
		r.log.Warn().
			Str("account_id", accountID).
			Int64("cached", account.Balance).
			Int64("recomputed", sum).
			Msg("balance drift detected, correcting")
		if err := r.store.SetBalance(ctx, accountID, sum); err != nil {
			r.log.Error().Err(err).Str("account_id", accountID).Msg("failed to persist corrected balance")
		}
	}

	return sum, nil
}
