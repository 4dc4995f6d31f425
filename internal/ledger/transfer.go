package ledger

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/TonPlaygramBot/TonPlaygramMiniApp/internal/config"
	"github.com/TonPlaygramBot/TonPlaygramMiniApp/internal/model"
	"github.com/TonPlaygramBot/TonPlaygramMiniApp/internal/repository"
)

// TransferEngine executes peer-to-peer TPC transfers with fee skimming
// and operator fee routing.
//
// Unknown receivers are provisioned on the fly; unknown senders are
// rejected. That asymmetry is deliberate: a receiver id only needs to be
// a valid destination, while a sender must already hold value.
type TransferEngine struct {
	store    repository.Store
	registry *AccountRegistry
	cfg      config.LedgerConfig
	locker   *Locker
	notifier Notifier
	log      zerolog.Logger
}

func NewTransferEngine(store repository.Store, registry *AccountRegistry, cfg config.LedgerConfig, locker *Locker, log zerolog.Logger) *TransferEngine {
	return &TransferEngine{
		store:    store,
		registry: registry,
		cfg:      cfg,
		locker:   locker,
		log:      log.With().Str("component", "transfer").Logger(),
	}
}

// SetNotifier wires the best-effort Telegram notifier.
func (e *TransferEngine) SetNotifier(n Notifier) {
	e.notifier = n
}

type TransferResult struct {
	Balance     int64             `json:"balance"`
	Transaction model.Transaction `json:"transaction"`
}

// feeFor computes a fee leg, rounding half away from zero. The tie-break
// is observable by clients and pinned here.
func feeFor(amount int64, rate float64) int64 {
	return int64(math.Round(float64(amount) * rate))
}

// Transfer moves amount TPC from one account to another. The sender is
// debited amount plus the sender-side fee; the receiver is credited
// amount minus the receiver-side fee; each fee leg is credited to its
// configured operator account. A fee leg with no configured operator is
// not credited anywhere.
func (e *TransferEngine) Transfer(ctx context.Context, fromID, toID string, amount int64, note string) (*TransferResult, error) {
	if fromID == "" || toID == "" {
		return nil, fmt.Errorf("%w: fromAccount and toAccount required", ErrValidation)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}

	feeSender := feeFor(amount, e.cfg.SenderFeeRate)
	feeReceiver := feeFor(amount, e.cfg.ReceiverFeeRate)
	receiverFeeAccount := e.cfg.ReceiverFeeAccount()
	senderFeeAccount := e.cfg.SenderFeeAccount()

	release := e.locker.Lock(fromID, toID, receiverFeeAccount, senderFeeAccount)
	defer release()

	sender, err := e.store.GetAccount(ctx, fromID)
	if err != nil {
		return nil, err
	}
	if sender.Balance < amount+feeSender {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientBalance, sender.Balance, amount+feeSender)
	}

	receiver, err := e.registry.Provision(ctx, toID)
	if err != nil {
		return nil, err
	}

	safeNote := model.TruncateNote(note)

	intent := &model.TransferIntent{
		ID:          uuid.New(),
		FromAccount: fromID,
		ToAccount:   toID,
		Amount:      amount,
		Note:        safeNote,
		Status:      model.IntentStatusPending,
	}
	if err := e.store.CreateIntent(ctx, intent); err != nil {
		return nil, fmt.Errorf("failed to record transfer intent: %w", err)
	}

	now := time.Now().UTC()
	senderName := sender.DisplayName()
	receiverName := receiver.DisplayName()

	senderTx := model.Transaction{
		Amount:           -(amount + feeSender),
		Type:             model.TransactionTypeSend,
		Token:            model.TokenTPC,
		Status:           model.TransactionStatusDelivered,
		CounterpartyID:   &toID,
		CounterpartyName: optional(receiverName),
		Note:             safeNote,
		CreatedAt:        now,
	}
	receiverTx := model.Transaction{
		Amount:           amount - feeReceiver,
		Type:             model.TransactionTypeReceive,
		Token:            model.TokenTPC,
		Status:           model.TransactionStatusDelivered,
		CounterpartyID:   &fromID,
		CounterpartyName: optional(senderName),
		Note:             safeNote,
		CreatedAt:        now,
	}

	ops := []repository.LedgerOp{
		{AccountID: fromID, Delta: -(amount + feeSender), Tx: senderTx},
		{AccountID: toID, Delta: amount - feeReceiver, Tx: receiverTx},
	}
	receiverFeeOps, err := e.feeOps(ctx, fromID, receiverFeeAccount, feeReceiver, now)
	if err != nil {
		return nil, err
	}
	ops = append(ops, receiverFeeOps...)
	senderFeeOps, err := e.feeOps(ctx, fromID, senderFeeAccount, feeSender, now)
	if err != nil {
		return nil, err
	}
	ops = append(ops, senderFeeOps...)

	if err := e.store.ApplyLedgerOps(ctx, ops); err != nil {
		e.log.Error().Err(err).
			Str("intent_id", intent.ID.String()).
			Str("from", fromID).
			Str("to", toID).
			Int64("amount", amount).
			Msg("transfer persistence failed, intent left pending for replay")
		return nil, fmt.Errorf("failed to apply transfer: %w", err)
	}

	if err := e.store.CompleteIntent(ctx, intent.ID); err != nil {
		e.log.Error().Err(err).Str("intent_id", intent.ID.String()).Msg("failed to mark intent completed")
	}

	result := &TransferResult{
		Balance:     sender.Balance - (amount + feeSender),
		Transaction: senderTx,
	}

	// Notify outside the critical section.
	release()
	if e.notifier != nil && receiver.TelegramID != nil && !e.cfg.IsOperator(toID) {
		if err := e.notifier.SendTransferNotification(*receiver.TelegramID, fromID, amount, noteOrEmpty(safeNote)); err != nil {
			e.log.Warn().Err(err).Str("to", toID).Msg("failed to send transfer notification")
		}
	}

	return result, nil
}

// feeOps builds the ledger op for one fee leg, provisioning the operator
// account on first credit. A zero fee or an unrouted leg yields nothing;
// a provisioning failure aborts the transfer so the sender is never
// debited a fee that cannot be credited.
func (e *TransferEngine) feeOps(ctx context.Context, fromID, operatorID string, fee int64, now time.Time) ([]repository.LedgerOp, error) {
	if operatorID == "" || fee == 0 {
		return nil, nil
	}
	if _, err := e.registry.Provision(ctx, operatorID); err != nil {
		return nil, fmt.Errorf("failed to provision operator account %s: %w", operatorID, err)
	}
	return []repository.LedgerOp{{
		AccountID: operatorID,
		Delta:     fee,
		Tx: model.Transaction{
			Amount:         fee,
			Type:           model.TransactionTypeFee,
			Token:          model.TokenTPC,
			Status:         model.TransactionStatusDelivered,
			CounterpartyID: &fromID,
			CreatedAt:      now,
		},
	}}, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func noteOrEmpty(note *string) string {
	if note == nil {
		return ""
	}
	return *note
}
