package ledger

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/TonPlaygramBot/TonPlaygramMiniApp/internal/config"
	"github.com/TonPlaygramBot/TonPlaygramMiniApp/internal/model"
	"github.com/TonPlaygramBot/TonPlaygramMiniApp/internal/repository"
)

// IntentWorker resolves transfer intents left pending by a crash between
// recording the intent and committing the ledger mutation. Every account
// an intent names is reconciled from its transaction log, which makes a
// half-applied or unapplied transfer consistent again without
// double-applying anything.
type IntentWorker struct {
	store      repository.Store
	reconciler *BalanceReconciler
	cfg        config.LedgerConfig
	log        zerolog.Logger
}

func NewIntentWorker(store repository.Store, reconciler *BalanceReconciler, cfg config.LedgerConfig, log zerolog.Logger) *IntentWorker {
	return &IntentWorker{
		store:      store,
		reconciler: reconciler,
		cfg:        cfg,
		log:        log.With().Str("component", "intent_worker").Logger(),
	}
}

// ReplayPending is run at startup, before the server takes traffic.
func (w *IntentWorker) ReplayPending(ctx context.Context) error {
	intents, err := w.store.ListPendingIntents(ctx)
	if err != nil {
		return err
	}

	for _, intent := range intents {
		w.resolve(ctx, intent)
	}

	return nil
}

func (w *IntentWorker) resolve(ctx context.Context, intent model.TransferIntent) {
	w.log.Warn().
		Str("intent_id", intent.ID.String()).
		Str("from", intent.FromAccount).
		Str("to", intent.ToAccount).
		Int64("amount", intent.Amount).
		Msg("replaying pending transfer intent")

	accounts := []string{
		intent.FromAccount,
		intent.ToAccount,
		w.cfg.ReceiverFeeAccount(),
		w.cfg.SenderFeeAccount(),
	}
	for _, id := range accounts {
		if id == "" {
			continue
		}
		if _, err := w.reconciler.Reconcile(ctx, id); err != nil {
			if errors.Is(err, repository.ErrAccountNotFound) {
				continue
			}
			w.log.Error().Err(err).Str("account_id", id).Str("intent_id", intent.ID.String()).
				Msg("failed to reconcile account during intent replay")
			return
		}
	}

	if err := w.store.CompleteIntent(ctx, intent.ID); err != nil {
		w.log.Error().Err(err).Str("intent_id", intent.ID.String()).Msg("failed to close replayed intent")
	}
}
