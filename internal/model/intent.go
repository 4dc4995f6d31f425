package model

import (
	"time"

	"github.com/google/uuid"
)

type IntentStatus string

const (
	IntentStatusPending   IntentStatus = "pending"
	IntentStatusCompleted IntentStatus = "completed"
)

// TransferIntent records a transfer before any balance is touched. An
// intent still pending after a restart marks a transfer whose commit
// outcome is unknown; the replay worker reconciles the accounts it
// names before the server takes traffic.
type TransferIntent struct {
	ID          uuid.UUID    `json:"id" db:"id"`
	FromAccount string       `json:"from_account" db:"from_account"`
	ToAccount   string       `json:"to_account" db:"to_account"`
	Amount      int64        `json:"amount" db:"amount"`
	Note        *string      `json:"note,omitempty" db:"note"`
	Status      IntentStatus `json:"status" db:"status"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty" db:"completed_at"`
}
