package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/TonPlaygramBot/TonPlaygramMiniApp/internal/model"
)

func (r *Repository) GetAccount(ctx context.Context, accountID string) (*model.Account, error) {
	var account model.Account
	err := r.db.GetContext(ctx, &account, "SELECT * FROM accounts WHERE account_id = $1", accountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (r *Repository) GetAccountByTelegramID(ctx context.Context, telegramID int64) (*model.Account, error) {
	var account model.Account
	err := r.db.GetContext(ctx, &account, "SELECT * FROM accounts WHERE telegram_id = $1", telegramID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (r *Repository) GetAccountByReferralCode(ctx context.Context, code string) (*model.Account, error) {
	var account model.Account
	err := r.db.GetContext(ctx, &account, "SELECT * FROM accounts WHERE referral_code = $1", code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (r *Repository) CreateAccount(ctx context.Context, account *model.Account) error {
	query := `
		INSERT INTO accounts (account_id, telegram_id, nickname, first_name, referral_code, referred_by, balance)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	return r.db.QueryRowContext(ctx, query,
		account.AccountID,
		account.TelegramID,
		account.Nickname,
		account.FirstName,
		account.ReferralCode,
		account.ReferredBy,
		account.Balance,
	).Scan(&account.CreatedAt, &account.UpdatedAt)
}

// RekeyAccount backfills the account id on a legacy row that was
// imported without one.
func (r *Repository) RekeyAccount(ctx context.Context, telegramID int64, accountID string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE accounts SET account_id = $1, updated_at = NOW() WHERE telegram_id = $2 AND account_id = ''",
		accountID, telegramID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// SetReferredBy links an account to an inviter's code. Write-once: a row
// with referred_by already set is left untouched.
func (r *Repository) SetReferredBy(ctx context.Context, accountID, code string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE accounts SET referred_by = $1, updated_at = NOW() WHERE account_id = $2 AND referred_by IS NULL",
		code, accountID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (r *Repository) IncrementBonusRate(ctx context.Context, accountID string, step int64) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE accounts SET bonus_mining_rate = bonus_mining_rate + $1, updated_at = NOW() WHERE account_id = $2",
		step, accountID)
	return err
}

func (r *Repository) CountReferrals(ctx context.Context, code string) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM accounts WHERE referred_by = $1", code)
	return count, err
}
