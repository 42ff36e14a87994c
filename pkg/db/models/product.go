package models

import (
	"time"

	"github.com/google/uuid"
)

// Product represents a catalog listing. Stock lives on the associated
// InventoryItem row so checkout can mutate it without touching the listing.
type Product struct {
	ID                 uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SKU                string         `gorm:"column:sku;not null;uniqueIndex"`
	Title              string         `gorm:"column:title;not null"`
	CostPriceCents     int64          `gorm:"column:cost_price_cents;not null"`
	SellingPriceCents  int64          `gorm:"column:selling_price_cents;not null"`
	DiscountPriceCents *int64         `gorm:"column:discount_price_cents"`
	LowStockThreshold  int            `gorm:"column:low_stock_threshold;not null;default:0"`
	IsActive           bool           `gorm:"column:is_active;not null;default:true"`
	Inventory          *InventoryItem `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

// FloorPriceCents returns the minimum sale price a checkout line may carry:
// the discount price when one is configured, otherwise the selling price.
func (p Product) FloorPriceCents() int64 {
	if p.DiscountPriceCents != nil {
		return *p.DiscountPriceCents
	}
	return p.SellingPriceCents
}
