package models

import (
	"time"

	"github.com/google/uuid"
)

// CommissionTier defines how much commission is earned per multiple of
// sales reaching the threshold. Tiers are disabled, never deleted, so
// historical calculations keep their audit trail.
type CommissionTier struct {
	ID                    uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SalesThresholdCents   int64     `gorm:"column:sales_threshold_cents;not null"`
	CommissionAmountCents int64     `gorm:"column:commission_amount_cents;not null"`
	Description           *string   `gorm:"column:description"`
	IsActive              bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt             time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
