package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/TonPlaygramBot/TonPlaygramMiniApp/internal/model"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrIntentNotFound  = errors.New("transfer intent not found")
)

// LedgerOp is one account's share of a ledger mutation: a balance delta
// plus the transaction record that explains it. ApplyLedgerOps applies a
// batch of these in a single storage transaction.
type LedgerOp struct {
	AccountID string
	Delta     int64
	Tx        model.Transaction
}

// Store is the persistence contract the ledger services run against.
// The Postgres implementation lives in this package; tests substitute an
// in-memory fake.
type Store interface {
	GetAccount(ctx context.Context, accountID string) (*model.Account, error)
	GetAccountByTelegramID(ctx context.Context, telegramID int64) (*model.Account, error)
	GetAccountByReferralCode(ctx context.Context, code string) (*model.Account, error)
	CreateAccount(ctx context.Context, account *model.Account) error
	RekeyAccount(ctx context.Context, telegramID int64, accountID string) error
	SetReferredBy(ctx context.Context, accountID, code string) error
	IncrementBonusRate(ctx context.Context, accountID string, step int64) error
	CountReferrals(ctx context.Context, code string) (int64, error)

	ListTransactions(ctx context.Context, accountID string, limit, offset int) ([]model.Transaction, error)
	SumTransactions(ctx context.Context, accountID string) (int64, error)
	SetBalance(ctx context.Context, accountID string, balance int64) error

	// ApplyLedgerOps applies every op atomically, locking the touched
	// account rows in ascending account-id order. The same account may
	// appear in several ops; each op appends its own transaction record.
	ApplyLedgerOps(ctx context.Context, ops []LedgerOp) error

	CreateIntent(ctx context.Context, intent *model.TransferIntent) error
	CompleteIntent(ctx context.Context, id uuid.UUID) error
	ListPendingIntents(ctx context.Context) ([]model.TransferIntent, error)
}
