package models

import (
	"time"

	"github.com/google/uuid"
)

// SaleItem is one line of a sale, created in the same transaction as its
// parent and owned exclusively by it.
type SaleItem struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SaleID          uuid.UUID `gorm:"column:sale_id;type:uuid;not null;index"`
	ProductID       uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Quantity        int       `gorm:"column:quantity;not null"`
	UnitPriceCents  int64     `gorm:"column:unit_price_cents;not null"`
	TotalPriceCents int64     `gorm:"column:total_price_cents;not null"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
}
