package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/TonPlaygramBot/TonPlaygramMiniApp/internal/model"
	"github.com/TonPlaygramBot/TonPlaygramMiniApp/internal/repository/repositorytest"
)

func newTestReferral(store *repositorytest.Store) *ReferralLedger {
	return NewReferralLedger(store, NewAccountRegistry(store), testConfig(), NewLocker(), zerolog.Nop())
}

func TestReferralCodeCreatesAccountIdempotently(t *testing.T) {
	store := repositorytest.NewStore()
	ref := newTestReferral(store)

	info, err := ref.Code(context.Background(), 100)
	require.NoError(t, err)
	require.Equal(t, "100", info.ReferralCode)
	require.Zero(t, info.ReferralCount)

	again, err := ref.Code(context.Background(), 100)
	require.NoError(t, err)
	require.Equal(t, info.ReferralCode, again.ReferralCode)
	require.Equal(t, 1, store.AccountCount())
}

func TestReferralCodeStoreBoost(t *testing.T) {
	store := repositorytest.NewStore()
	ref := newTestReferral(store)

	_, err := ref.Code(context.Background(), 100)
	require.NoError(t, err)

	account, err := store.GetAccountByTelegramID(context.Background(), 100)
	require.NoError(t, err)

	future := time.Now().Add(time.Hour)
	store.Mutate(account.AccountID, func(a *model.Account) {
		a.BonusMiningRate = 5
		a.StoreMiningRate = 3
		a.StoreMiningExpiresAt = &future
	})

	info, err := ref.Code(context.Background(), 100)
	require.NoError(t, err)
	require.Equal(t, int64(8), info.BonusMiningRate)
	require.Equal(t, int64(3), info.StoreMiningRate)
	require.NotNil(t, info.StoreMiningExpiresAt)

	// Expired boosts count for nothing.
	past := time.Now().Add(-time.Hour)
	store.Mutate(account.AccountID, func(a *model.Account) {
		a.StoreMiningExpiresAt = &past
	})

	info, err = ref.Code(context.Background(), 100)
	require.NoError(t, err)
	require.Equal(t, int64(5), info.BonusMiningRate)
	require.Zero(t, info.StoreMiningRate)
	require.Nil(t, info.StoreMiningExpiresAt)
}

func TestReferralClaim(t *testing.T) {
	store := repositorytest.NewStore()
	ref := newTestReferral(store)

	// Inviter's code is their stringified Telegram id.
	_, err := ref.Code(context.Background(), 100)
	require.NoError(t, err)

	result, err := ref.Claim(context.Background(), 200, "100")
	require.NoError(t, err)
	require.Equal(t, "claimed", result.Message)
	require.NotNil(t, result.Total)
	require.Equal(t, int64(1), *result.Total)

	inviter, err := store.GetAccountByTelegramID(context.Background(), 100)
	require.NoError(t, err)
	require.Equal(t, int64(1), inviter.BonusMiningRate)

	claimant, err := store.GetAccountByTelegramID(context.Background(), 200)
	require.NoError(t, err)
	require.NotNil(t, claimant.ReferredBy)
	require.Equal(t, "100", *claimant.ReferredBy)
}

func TestReferralClaimIdempotent(t *testing.T) {
	store := repositorytest.NewStore()
	ref := newTestReferral(store)

	_, err := ref.Code(context.Background(), 100)
	require.NoError(t, err)
	_, err = ref.Code(context.Background(), 300)
	require.NoError(t, err)

	_, err = ref.Claim(context.Background(), 200, "100")
	require.NoError(t, err)

	// A second claim with a different code is a no-op.
	result, err := ref.Claim(context.Background(), 200, "300")
	require.NoError(t, err)
	require.Equal(t, "already claimed", result.Message)
	require.Nil(t, result.Total)

	claimant, err := store.GetAccountByTelegramID(context.Background(), 200)
	require.NoError(t, err)
	require.Equal(t, "100", *claimant.ReferredBy)
}

func TestReferralSelfClaimRejected(t *testing.T) {
	store := repositorytest.NewStore()
	ref := newTestReferral(store)

	_, err := ref.Code(context.Background(), 100)
	require.NoError(t, err)

	result, err := ref.Claim(context.Background(), 100, "100")
	require.NoError(t, err)
	require.Equal(t, "cannot claim own code", result.Message)

	account, err := store.GetAccountByTelegramID(context.Background(), 100)
	require.NoError(t, err)
	require.Nil(t, account.ReferredBy)
}

func TestReferralClaimInvalidCode(t *testing.T) {
	ref := newTestReferral(repositorytest.NewStore())

	_, err := ref.Claim(context.Background(), 200, "nope")
	require.ErrorIs(t, err, ErrValidation)
}

func TestReferralValidation(t *testing.T) {
	ref := newTestReferral(repositorytest.NewStore())

	_, err := ref.Code(context.Background(), 0)
	require.ErrorIs(t, err, ErrValidation)

	_, err = ref.Claim(context.Background(), 0, "x")
	require.ErrorIs(t, err, ErrValidation)

	_, err = ref.Claim(context.Background(), 1, "")
	require.ErrorIs(t, err, ErrValidation)
}

func TestReferralCountGrowsPerClaim(t *testing.T) {
	store := repositorytest.NewStore()
	ref := newTestReferral(store)

	_, err := ref.Code(context.Background(), 100)
	require.NoError(t, err)

	for i, claimant := range []int64{201, 202, 203} {
		result, err := ref.Claim(context.Background(), claimant, "100")
		require.NoError(t, err)
		require.Equal(t, int64(i+1), *result.Total)
	}

	info, err := ref.Code(context.Background(), 100)
	require.NoError(t, err)
	require.Equal(t, int64(3), info.ReferralCount)
	require.Equal(t, int64(3), info.BonusMiningRate)
}
