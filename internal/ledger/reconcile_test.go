package ledger

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/TonPlaygramBot/TonPlaygramMiniApp/internal/model"
	"github.com/TonPlaygramBot/TonPlaygramMiniApp/internal/repository/repositorytest"
)

func TestRecompute(t *testing.T) {
	txs := []model.Transaction{
		{Amount: 100},
		{Amount: -30},
		{Amount: 5},
	}
	require.Equal(t, int64(75), Recompute(txs))
	require.Zero(t, Recompute(nil))
}

func TestReconcileCorrectsDrift(t *testing.T) {
	store := repositorytest.NewStore()
	store.SeedAccount("alice", nil, 100)

	// Poison the cache.
	store.Mutate("alice", func(a *model.Account) { a.Balance = 40 })

	rec := NewBalanceReconciler(store, NewLocker(), zerolog.Nop())
	balance, err := rec.Reconcile(context.Background(), "alice")
	require.NoError(t, err)
	require.Equal(t, int64(100), balance)
	require.Equal(t, int64(100), store.Balance("alice"))
}

func TestReconcileNoDriftLeavesBalance(t *testing.T) {
	store := repositorytest.NewStore()
	store.SeedAccount("alice", nil, 100)

	rec := NewBalanceReconciler(store, NewLocker(), zerolog.Nop())
	balance, err := rec.Reconcile(context.Background(), "alice")
	require.NoError(t, err)
	require.Equal(t, int64(100), balance)
}

func TestIntentWorkerReplaysPendingIntents(t *testing.T) {
	store := repositorytest.NewStore()
	store.SeedAccount("alice", nil, 500)
	store.SeedAccount("bob", nil, 0)

	// Simulate a crash between debiting the sender and crediting the
	// receiver: alice's cache says the debit happened but no record
	// backs it.
	store.Mutate("alice", func(a *model.Account) { a.Balance = 398 })

	intent := &model.TransferIntent{
		ID:          uuid.New(),
		FromAccount: "alice",
		ToAccount:   "bob",
		Amount:      100,
		Status:      model.IntentStatusPending,
	}
	require.NoError(t, store.CreateIntent(context.Background(), intent))

	rec := NewBalanceReconciler(store, NewLocker(), zerolog.Nop())
	worker := NewIntentWorker(store, rec, testConfig(), zerolog.Nop())
	require.NoError(t, worker.ReplayPending(context.Background()))

	// Balances are back in line with the transaction logs and the
	// intent is closed.
	require.Equal(t, int64(500), store.Balance("alice"))
	require.Equal(t, int64(0), store.Balance("bob"))

	pending, err := store.ListPendingIntents(context.Background())
	require.NoError(t, err)
	require.Empty(t, pending)
}
