package model

import (
	"time"
)

type Account struct {
	AccountID            string     `json:"account_id" db:"account_id"`
	TelegramID           *int64     `json:"telegram_id,omitempty" db:"telegram_id"`
	Nickname             *string    `json:"nickname,omitempty" db:"nickname"`
	FirstName            *string    `json:"first_name,omitempty" db:"first_name"`
	ReferralCode         string     `json:"referral_code" db:"referral_code"`
	ReferredBy           *string    `json:"referred_by,omitempty" db:"referred_by"`
	Balance              int64      `json:"balance" db:"balance"` // cached TPC, Σ transaction amounts
	BonusMiningRate      int64      `json:"bonus_mining_rate" db:"bonus_mining_rate"`
	StoreMiningRate      int64      `json:"store_mining_rate" db:"store_mining_rate"`
	StoreMiningExpiresAt *time.Time `json:"store_mining_expires_at,omitempty" db:"store_mining_expires_at"`
	CreatedAt            time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at" db:"updated_at"`
}

// DisplayName is the name shown to counterparties on transaction records.
func (a *Account) DisplayName() string {
	if a.Nickname != nil && *a.Nickname != "" {
		return *a.Nickname
	}
	if a.FirstName != nil && *a.FirstName != "" {
		return *a.FirstName
	}
	return ""
}
