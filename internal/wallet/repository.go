package wallet

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/salesdeskhq/salesdesk-backend/pkg/db/models"
	pkgerrors "github.com/salesdeskhq/salesdesk-backend/pkg/errors"
)

// Repository is the per-manager commission ledger. Credits and debits are
// single guarded UPDATEs so the balance invariant survives concurrent
// checkouts and payouts without row locks held across application code.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
	Get(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
	Credit(ctx context.Context, userID uuid.UUID, cents int64) error
	Debit(ctx context.Context, userID uuid.UUID, cents int64) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a wallet repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// GetOrCreate lazily provisions the wallet row. Managers get a wallet the
// first time anything touches it, not at account creation.
func (r *repository) GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	wallet := models.Wallet{UserID: userID}
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		FirstOrCreate(&wallet).Error
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

func (r *repository) Get(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&wallet).Error
	if err == gorm.ErrRecordNotFound {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "wallet not found")
	}
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

// Credit adds earned commission: balance and total_earned move together.
func (r *repository) Credit(ctx context.Context, userID uuid.UUID, cents int64) error {
	if cents <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "credit amount must be positive")
	}
	if _, err := r.GetOrCreate(ctx, userID); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Model(&models.Wallet{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			"balance_cents":      gorm.Expr("balance_cents + ?", cents),
			"total_earned_cents": gorm.Expr("total_earned_cents + ?", cents),
			"updated_at":         time.Now(),
		}).Error
}

// Debit removes paid-out commission. The balance guard in the WHERE clause
// is what keeps the wallet non-negative; zero rows affected means the
// balance was short and nothing moved.
func (r *repository) Debit(ctx context.Context, userID uuid.UUID, cents int64) error {
	if cents <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "debit amount must be positive")
	}
	res := r.db.WithContext(ctx).Model(&models.Wallet{}).
		Where("user_id = ? AND balance_cents >= ?", userID, cents).
		Updates(map[string]any{
			"balance_cents":        gorm.Expr("balance_cents - ?", cents),
			"total_paid_out_cents": gorm.Expr("total_paid_out_cents + ?", cents),
			"updated_at":           time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeInsufficientBalance, "insufficient wallet balance").
			WithDetails(map[string]any{"user_id": userID.String(), "requested_cents": cents})
	}
	return nil
}
