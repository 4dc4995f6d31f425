package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/TonPlaygramBot/TonPlaygramMiniApp/internal/config"
	"github.com/TonPlaygramBot/TonPlaygramMiniApp/internal/model"
	"github.com/TonPlaygramBot/TonPlaygramMiniApp/internal/repository"
)

// DepositAuthorizer validates and applies external-origin credits such
// as game payouts and rewards. Crediting an account bound to someone
// else's Telegram identity is rejected; operator accounts are exempt
// from the ownership check.
type DepositAuthorizer struct {
	store    repository.Store
	cfg      config.LedgerConfig
	locker   *Locker
	notifier Notifier
	log      zerolog.Logger
}

func NewDepositAuthorizer(store repository.Store, cfg config.LedgerConfig, locker *Locker, log zerolog.Logger) *DepositAuthorizer {
	return &DepositAuthorizer{
		store:  store,
		cfg:    cfg,
		locker: locker,
		log:    log.With().Str("component", "deposit").Logger(),
	}
}

func (d *DepositAuthorizer) SetNotifier(n Notifier) {
	d.notifier = n
}

type DepositResult struct {
	Balance     int64             `json:"balance"`
	Transaction model.Transaction `json:"transaction"`
}

// Deposit credits amount TPC to an account. callerID is the
// authenticated Telegram identity of the requester; zero means the
// request carried no identity. game optionally tags the payout source.
func (d *DepositAuthorizer) Deposit(ctx context.Context, accountID string, amount int64, callerID int64, game string) (*DepositResult, error) {
	if accountID == "" || amount <= 0 {
		return nil, fmt.Errorf("%w: accountId and positive amount required", ErrValidation)
	}

	isOperator := d.cfg.IsOperator(accountID)

	release := d.locker.Lock(accountID)
	defer release()

	account, err := d.store.GetAccount(ctx, accountID)
	if err != nil {
		if !errors.Is(err, repository.ErrAccountNotFound) {
			return nil, err
		}
		account = &model.Account{AccountID: accountID, ReferralCode: accountID}
		if callerID != 0 && !isOperator {
			account.TelegramID = &callerID
		}
		if err := d.store.CreateAccount(ctx, account); err != nil {
			return nil, err
		}
	}

	// Identity is bound only at creation; an account created without
	// one stays open to any authenticated depositor.
	if !isOperator && callerID != 0 && account.TelegramID != nil && *account.TelegramID != callerID {
		return nil, fmt.Errorf("%w: account belongs to another identity", ErrForbidden)
	}

	tx := model.Transaction{
		Amount:    amount,
		Type:      model.TransactionTypeDeposit,
		Token:     model.TokenTPC,
		Status:    model.TransactionStatusDelivered,
		Game:      optional(game),
		CreatedAt: time.Now().UTC(),
	}

	if err := d.store.ApplyLedgerOps(ctx, []repository.LedgerOp{{AccountID: accountID, Delta: amount, Tx: tx}}); err != nil {
		d.log.Error().Err(err).Str("account_id", accountID).Int64("amount", amount).Msg("deposit persistence failed")
		return nil, fmt.Errorf("failed to apply deposit: %w", err)
	}

	result := &DepositResult{
		Balance:     account.Balance + amount,
		Transaction: tx,
	}

	release()
	if d.notifier != nil && account.TelegramID != nil && !isOperator {
		if err := d.notifier.SendDepositNotification(*account.TelegramID, amount); err != nil {
			d.log.Warn().Err(err).Str("account_id", accountID).Msg("failed to send deposit notification")
		}
	}

	return result, nil
}
