package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/salesdeskhq/salesdesk-backend/pkg/db/models"
	pkgerrors "github.com/salesdeskhq/salesdesk-backend/pkg/errors"
)

// Repository manages per-product stock rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetByProductID(ctx context.Context, productID uuid.UUID) (*models.InventoryItem, error)
	SetOnHand(ctx context.Context, productID uuid.UUID, qty int) error
	ReserveAndDecrement(ctx context.Context, productID uuid.UUID, qty int) error
	Restock(ctx context.Context, productID uuid.UUID, qty int) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an inventory repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) GetByProductID(ctx context.Context, productID uuid.UUID) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		First(&item).Error
	if err == gorm.ErrRecordNotFound {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory row not found")
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) SetOnHand(ctx context.Context, productID uuid.UUID, qty int) error {
	if qty < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "on-hand quantity cannot be negative")
	}
	item := models.InventoryItem{ProductID: productID, OnHandQty: qty}
	return r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Assign(map[string]any{"on_hand_qty": qty, "updated_at": time.Now()}).
		FirstOrCreate(&item).Error
}

// ReserveAndDecrement atomically takes qty units off the shelf. The guard in
// the WHERE clause is the only oversell protection; zero rows affected means
// another transaction got there first or stock was short to begin with.
func (r *repository) ReserveAndDecrement(ctx context.Context, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	res := r.db.WithContext(ctx).Model(&models.InventoryItem{}).
		Where("product_id = ? AND on_hand_qty >= ?", productID, qty).
		Updates(map[string]any{
			"on_hand_qty": gorm.Expr("on_hand_qty - ?", qty),
			"updated_at":  time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
			WithDetails(map[string]any{"product_id": productID.String(), "requested_qty": qty})
	}
	return nil
}

func (r *repository) Restock(ctx context.Context, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	res := r.db.WithContext(ctx).Model(&models.InventoryItem{}).
		Where("product_id = ?", productID).
		Updates(map[string]any{
			"on_hand_qty": gorm.Expr("on_hand_qty + ?", qty),
			"updated_at":  time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "inventory row not found")
	}
	return nil
}
