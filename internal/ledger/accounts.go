package ledger

import (
	"context"
	"errors"
	"strconv"

	"github.com/google/uuid"

	"github.com/TonPlaygramBot/TonPlaygramMiniApp/internal/model"
	"github.com/TonPlaygramBot/TonPlaygramMiniApp/internal/repository"
)

// AccountRegistry creates and looks up accounts. Account ids are
// immutable once assigned; the registry is the only component that
// generates them.
type AccountRegistry struct {
	store repository.Store
}

func NewAccountRegistry(store repository.Store) *AccountRegistry {
	return &AccountRegistry{store: store}
}

// GetOrCreate resolves the account bound to a Telegram identity,
// creating it on first touch. A new account's referral code defaults to
// the stringified identity; with no identity the fresh account id
// doubles as the code.
func (s *AccountRegistry) GetOrCreate(ctx context.Context, telegramID *int64) (*model.Account, error) {
	if telegramID == nil {
		id := uuid.NewString()
		account := &model.Account{AccountID: id, ReferralCode: id}
		if err := s.store.CreateAccount(ctx, account); err != nil {
			return nil, err
		}
		return account, nil
	}

	account, err := s.store.GetAccountByTelegramID(ctx, *telegramID)
	if err == nil {
		if account.AccountID == "" {
			// Legacy row imported without an id; backfill once.
			account.AccountID = uuid.NewString()
			if err := s.store.RekeyAccount(ctx, *telegramID, account.AccountID); err != nil {
				return nil, err
			}
		}
		return account, nil
	}
	if !errors.Is(err, repository.ErrAccountNotFound) {
		return nil, err
	}

	account = &model.Account{
		AccountID:    uuid.NewString(),
		TelegramID:   telegramID,
		ReferralCode: strconv.FormatInt(*telegramID, 10),
	}
	if err := s.store.CreateAccount(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// Find looks up an account by id.
func (s *AccountRegistry) Find(ctx context.Context, accountID string) (*model.Account, error) {
	return s.store.GetAccount(ctx, accountID)
}

// Provision returns the account with the given id, creating an empty one
// if it does not exist. Unknown transfer receivers and operator accounts
// are provisioned this way on first credit.
func (s *AccountRegistry) Provision(ctx context.Context, accountID string) (*model.Account, error) {
	account, err := s.store.GetAccount(ctx, accountID)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, repository.ErrAccountNotFound) {
		return nil, err
	}

	account = &model.Account{AccountID: accountID, ReferralCode: accountID}
	if err := s.store.CreateAccount(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}
