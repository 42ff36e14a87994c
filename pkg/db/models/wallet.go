package models

import (
	"time"

	"github.com/google/uuid"
)

// Wallet is the per-manager running ledger of earned commission.
// Invariant: balance_cents == total_earned_cents - total_paid_out_cents,
// and balance_cents never goes negative.
type Wallet struct {
	UserID            uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey"`
	BalanceCents      int64     `gorm:"column:balance_cents;not null;default:0"`
	TotalEarnedCents  int64     `gorm:"column:total_earned_cents;not null;default:0"`
	TotalPaidOutCents int64     `gorm:"column:total_paid_out_cents;not null;default:0"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
