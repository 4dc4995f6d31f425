package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/TonPlaygramBot/TonPlaygramMiniApp/internal/config"
	"github.com/TonPlaygramBot/TonPlaygramMiniApp/internal/repository"
)

// ReferralLedger tracks invitation codes, one-time referral linking and
// bonus-rate accrual. An account moves from unlinked to linked exactly
// once; there is no unlink.
type ReferralLedger struct {
	store    repository.Store
	registry *AccountRegistry
	cfg      config.LedgerConfig
	locker   *Locker
	log      zerolog.Logger
}

func NewReferralLedger(store repository.Store, registry *AccountRegistry, cfg config.LedgerConfig, locker *Locker, log zerolog.Logger) *ReferralLedger {
	return &ReferralLedger{
		store:    store,
		registry: registry,
		cfg:      cfg,
		locker:   locker,
		log:      log.With().Str("component", "referral").Logger(),
	}
}

type ReferralInfo struct {
	ReferralCode         string     `json:"referralCode"`
	ReferralCount        int64      `json:"referralCount"`
	BonusMiningRate      int64      `json:"bonusMiningRate"`
	StoreMiningRate      int64      `json:"storeMiningRate"`
	StoreMiningExpiresAt *time.Time `json:"storeMiningExpiresAt"`
}

// Code idempotently resolves the identity's account and reports its
// referral standing. A store-purchased mining boost counts only while
// unexpired.
func (r *ReferralLedger) Code(ctx context.Context, telegramID int64) (*ReferralInfo, error) {
	if telegramID == 0 {
		return nil, fmt.Errorf("%w: telegramId required", ErrValidation)
	}

	account, err := r.registry.GetOrCreate(ctx, &telegramID)
	if err != nil {
		return nil, err
	}

	count, err := r.store.CountReferrals(ctx, account.ReferralCode)
	if err != nil {
		return nil, err
	}

	info := &ReferralInfo{
		ReferralCode:    account.ReferralCode,
		ReferralCount:   count,
		BonusMiningRate: account.BonusMiningRate,
	}
	if account.StoreMiningRate > 0 && account.StoreMiningExpiresAt != nil && account.StoreMiningExpiresAt.After(time.Now()) {
		info.StoreMiningRate = account.StoreMiningRate
		info.StoreMiningExpiresAt = account.StoreMiningExpiresAt
		info.BonusMiningRate += account.StoreMiningRate
	}

	return info, nil
}

type ClaimResult struct {
	Message string `json:"message"`
	Total   *int64 `json:"total,omitempty"`
}

// Claim links the claimant's account to the inviter's code. Claiming is
// write-once: a second claim is a no-op reported as "already claimed",
// and claiming one's own code is rejected without linking.
func (r *ReferralLedger) Claim(ctx context.Context, telegramID int64, code string) (*ClaimResult, error) {
	if telegramID == 0 || code == "" {
		return nil, fmt.Errorf("%w: telegramId and code required", ErrValidation)
	}

	inviter, err := r.store.GetAccountByReferralCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, fmt.Errorf("%w: invalid code", ErrValidation)
		}
		return nil, err
	}

	account, err := r.registry.GetOrCreate(ctx, &telegramID)
	if err != nil {
		return nil, err
	}

	release := r.locker.Lock(account.AccountID, inviter.AccountID)
	defer release()

	// Re-read under the lock; a concurrent claim may have linked the
	// account between resolution and locking.
	account, err = r.store.GetAccount(ctx, account.AccountID)
	if err != nil {
		return nil, err
	}

	if account.ReferredBy != nil {
		return &ClaimResult{Message: "already claimed"}, nil
	}
	if account.ReferralCode == code {
		return &ClaimResult{Message: "cannot claim own code"}, nil
	}

	if err := r.store.SetReferredBy(ctx, account.AccountID, code); err != nil {
		return nil, err
	}
	if err := r.store.IncrementBonusRate(ctx, inviter.AccountID, r.cfg.ReferralBonusStep); err != nil {
		r.log.Error().Err(err).Str("inviter", inviter.AccountID).Msg("failed to accrue referral bonus")
	}

	total, err := r.store.CountReferrals(ctx, code)
	if err != nil {
		return nil, err
	}

	return &ClaimResult{Message: "claimed", Total: &total}, nil
}
