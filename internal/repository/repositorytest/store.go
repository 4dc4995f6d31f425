// Package repositorytest provides an in-memory Store for tests.
package repositorytest

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/TonPlaygramBot/TonPlaygramMiniApp/internal/model"
	"github.com/TonPlaygramBot/TonPlaygramMiniApp/internal/repository"
)

type Store struct {
	mu       sync.Mutex
	accounts map[string]*model.Account
	txs      map[string][]model.Transaction
	intents  map[uuid.UUID]*model.TransferIntent

	applyErr   error
	createErrs map[string]error
}

var _ repository.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		accounts:   make(map[string]*model.Account),
		txs:        make(map[string][]model.Transaction),
		intents:    make(map[uuid.UUID]*model.TransferIntent),
		createErrs: make(map[string]error),
	}
}

// SetApplyErr makes every subsequent ApplyLedgerOps call fail with err.
func (s *Store) SetApplyErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyErr = err
}

// FailCreate makes CreateAccount fail for one account id.
func (s *Store) FailCreate(accountID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createErrs[accountID] = err
}

// SeedAccount inserts an account with a starting balance backed by a
// matching deposit record, so reconciliation holds for seeded state.
func (s *Store) SeedAccount(accountID string, telegramID *int64, balance int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[accountID] = &model.Account{
		AccountID:    accountID,
		TelegramID:   telegramID,
		ReferralCode: accountID,
		Balance:      balance,
	}
	if balance != 0 {
		s.txs[accountID] = append(s.txs[accountID], model.Transaction{
			AccountID: accountID,
			Seq:       1,
			Amount:    balance,
			Type:      model.TransactionTypeDeposit,
			Token:     model.TokenTPC,
			Status:    model.TransactionStatusDelivered,
			CreatedAt: time.Now(),
		})
	}
}

// Mutate edits a stored account in place, bypassing the Store contract.
func (s *Store) Mutate(accountID string, fn func(*model.Account)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.accounts[accountID]; ok {
		fn(a)
	}
}

func (s *Store) Balance(accountID string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[accountID]
	if !ok {
		return 0
	}
	return a.Balance
}

func (s *Store) TxSum(accountID string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum int64
	for _, tx := range s.txs[accountID] {
		sum += tx.Amount
	}
	return sum
}

func (s *Store) AccountCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.accounts)
}

func copyAccount(a *model.Account) *model.Account {
	c := *a
	return &c
}

func (s *Store) GetAccount(_ context.Context, accountID string) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[accountID]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	return copyAccount(a), nil
}

func (s *Store) GetAccountByTelegramID(_ context.Context, telegramID int64) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.TelegramID != nil && *a.TelegramID == telegramID {
			return copyAccount(a), nil
		}
	}
	return nil, repository.ErrAccountNotFound
}

func (s *Store) GetAccountByReferralCode(_ context.Context, code string) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.ReferralCode == code {
			return copyAccount(a), nil
		}
	}
	return nil, repository.ErrAccountNotFound
}

func (s *Store) CreateAccount(_ context.Context, account *model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.createErrs[account.AccountID]; err != nil {
		return err
	}
	account.CreatedAt = time.Now()
	account.UpdatedAt = account.CreatedAt
	s.accounts[account.AccountID] = copyAccount(account)
	return nil
}

func (s *Store) RekeyAccount(_ context.Context, telegramID int64, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, a := range s.accounts {
		if a.TelegramID != nil && *a.TelegramID == telegramID && a.AccountID == "" {
			a.AccountID = accountID
			delete(s.accounts, id)
			s.accounts[accountID] = a
			return nil
		}
	}
	return repository.ErrAccountNotFound
}

func (s *Store) SetReferredBy(_ context.Context, accountID, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[accountID]
	if !ok || a.ReferredBy != nil {
		return repository.ErrAccountNotFound
	}
	a.ReferredBy = &code
	return nil
}

func (s *Store) IncrementBonusRate(_ context.Context, accountID string, step int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[accountID]
	if !ok {
		return repository.ErrAccountNotFound
	}
	a.BonusMiningRate += step
	return nil
}

func (s *Store) CountReferrals(_ context.Context, code string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, a := range s.accounts {
		if a.ReferredBy != nil && *a.ReferredBy == code {
			count++
		}
	}
	return count, nil
}

func (s *Store) ListTransactions(_ context.Context, accountID string, limit, offset int) ([]model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	txs := s.txs[accountID]
	out := []model.Transaction{}
	for i := len(txs) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		out = append(out, txs[i])
	}
	return out, nil
}

func (s *Store) SumTransactions(_ context.Context, accountID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum int64
	for _, tx := range s.txs[accountID] {
		sum += tx.Amount
	}
	return sum, nil
}

func (s *Store) SetBalance(_ context.Context, accountID string, balance int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[accountID]
	if !ok {
		return repository.ErrAccountNotFound
	}
	a.Balance = balance
	return nil
}

func (s *Store) ApplyLedgerOps(_ context.Context, ops []repository.LedgerOp) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.applyErr != nil {
		return s.applyErr
	}
	for _, op := range ops {
		a, ok := s.accounts[op.AccountID]
		if !ok {
			return repository.ErrAccountNotFound
		}
		a.Balance += op.Delta
		tx := op.Tx
		tx.AccountID = op.AccountID
		tx.Seq = int64(len(s.txs[op.AccountID]) + 1)
		s.txs[op.AccountID] = append(s.txs[op.AccountID], tx)
	}
	return nil
}

func (s *Store) CreateIntent(_ context.Context, intent *model.TransferIntent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	intent.CreatedAt = time.Now()
	c := *intent
	s.intents[intent.ID] = &c
	return nil
}

func (s *Store) CompleteIntent(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	intent, ok := s.intents[id]
	if !ok {
		return repository.ErrIntentNotFound
	}
	now := time.Now()
	intent.Status = model.IntentStatusCompleted
	intent.CompletedAt = &now
	return nil
}

func (s *Store) ListPendingIntents(_ context.Context) ([]model.TransferIntent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.TransferIntent{}
	for _, intent := range s.intents {
		if intent.Status == model.IntentStatusPending {
			out = append(out, *intent)
		}
	}
	return out, nil
}
