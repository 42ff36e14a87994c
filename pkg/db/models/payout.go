package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/salesdeskhq/salesdesk-backend/pkg/enums"
)

// Payout records an admin-authorized debit against a manager's wallet.
// The row and the wallet debit commit in the same transaction; completed
// payouts are immutable.
type Payout struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID          `gorm:"column:user_id;type:uuid;not null;index"`
	ProcessedBy uuid.UUID          `gorm:"column:processed_by;type:uuid;not null"`
	AmountCents int64              `gorm:"column:amount_cents;not null"`
	Status      enums.PayoutStatus `gorm:"column:status;type:payout_status;not null;default:pending"`
	Notes       *string            `gorm:"column:notes"`
	ProcessedAt *time.Time         `gorm:"column:processed_at"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
}
