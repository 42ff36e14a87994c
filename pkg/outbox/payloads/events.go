package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/salesdeskhq/salesdesk-backend/pkg/enums"
)

// SaleCreatedEvent signals a committed checkout.
type SaleCreatedEvent struct {
	SaleID           uuid.UUID `json:"sale_id"`
	ManagerID        uuid.UUID `json:"manager_id"`
	TotalAmountCents int64     `json:"total_amount_cents"`
	ItemCount        int       `json:"item_count"`
}

// CommissionCreditedEvent reports the commission delta applied to a wallet.
type CommissionCreditedEvent struct {
	SaleID               uuid.UUID `json:"sale_id"`
	ManagerID            uuid.UUID `json:"manager_id"`
	CommissionCents      int64     `json:"commission_cents"`
	CumulativeSalesCents int64     `json:"cumulative_sales_cents"`
	WalletBalanceCents   int64     `json:"wallet_balance_cents"`
}

// PayoutCompletedEvent is emitted when an admin payout debits a wallet.
type PayoutCompletedEvent struct {
	PayoutID    uuid.UUID          `json:"payout_id"`
	UserID      uuid.UUID          `json:"user_id"`
	ProcessedBy uuid.UUID          `json:"processed_by"`
	AmountCents int64              `json:"amount_cents"`
	Status      enums.PayoutStatus `json:"status"`
	ProcessedAt time.Time          `json:"processed_at"`
}

// LowStockEvent warns that a product dropped to or below its threshold.
type LowStockEvent struct {
	ProductID uuid.UUID `json:"product_id"`
	SKU       string    `json:"sku"`
	OnHandQty int       `json:"on_hand_qty"`
	Threshold int       `json:"threshold"`
}
