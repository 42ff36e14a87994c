package models

import (
	"time"

	"github.com/google/uuid"
)

// Sale is the persisted result of a checkout. Rows are immutable once
// written; total_amount_cents always equals the sum of the item totals.
type Sale struct {
	ID               uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ManagerID        uuid.UUID  `gorm:"column:manager_id;type:uuid;not null;index"`
	TotalAmountCents int64      `gorm:"column:total_amount_cents;not null"`
	Items            []SaleItem `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time  `gorm:"column:created_at;autoCreateTime"`
}
