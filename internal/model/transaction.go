package model

import (
	"time"
)

type TransactionType string

const (
	TransactionTypeSend    TransactionType = "send"
	TransactionTypeReceive TransactionType = "receive"
	TransactionTypeFee     TransactionType = "fee"
	TransactionTypeDeposit TransactionType = "deposit"
)

// Token tags the currency of a transaction. Only TPC exists today; the
// enum leaves room for future tokens.
type Token string

const TokenTPC Token = "TPC"

type TransactionStatus string

const TransactionStatusDelivered TransactionStatus = "delivered"

// NoteMaxLen caps the free-text note attached to a transfer; longer
// notes are truncated, not rejected.
const NoteMaxLen = 150

// Transaction is one immutable entry in an account's append-only log.
// Amount is signed: negative = debit, positive = credit.
type Transaction struct {
	ID               int64             `json:"-" db:"id"`
	AccountID        string            `json:"-" db:"account_id"`
	Seq              int64             `json:"-" db:"seq"`
	Amount           int64             `json:"amount" db:"amount"`
	Type             TransactionType   `json:"type" db:"type"`
	Token            Token             `json:"token" db:"token"`
	Status           TransactionStatus `json:"status" db:"status"`
	CounterpartyID   *string           `json:"counterparty_account_id,omitempty" db:"counterparty_account_id"`
	CounterpartyName *string           `json:"counterparty_name,omitempty" db:"counterparty_name"`
	Note             *string           `json:"note,omitempty" db:"note"`
	Game             *string           `json:"game,omitempty" db:"game"`
	CreatedAt        time.Time         `json:"date" db:"created_at"`
}

// TruncateNote clamps a transfer note to NoteMaxLen characters. An
// empty note yields nil. Counting runes, not bytes, keeps multibyte
// notes intact and never cuts mid-rune.
func TruncateNote(note string) *string {
	if note == "" {
		return nil
	}
	if r := []rune(note); len(r) > NoteMaxLen {
		note = string(r[:NoteMaxLen])
	}
	return &note
}
