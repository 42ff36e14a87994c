package commission

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/salesdeskhq/salesdesk-backend/pkg/db/models"
	pkgerrors "github.com/salesdeskhq/salesdesk-backend/pkg/errors"
)

// Repository stores the commission tier table. Ordering and the active
// filter live here so the calculator never touches storage concerns.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, tier *models.CommissionTier) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.CommissionTier, error)
	List(ctx context.Context) ([]models.CommissionTier, error)
	ListActiveAscending(ctx context.Context) ([]models.CommissionTier, error)
	Update(ctx context.Context, tier *models.CommissionTier) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a tier repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, tier *models.CommissionTier) error {
	return r.db.WithContext(ctx).Create(tier).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*models.CommissionTier, error) {
	var tier models.CommissionTier
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&tier).Error
	if err == gorm.ErrRecordNotFound {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "commission tier not found")
	}
	if err != nil {
		return nil, err
	}
	return &tier, nil
}

func (r *repository) List(ctx context.Context) ([]models.CommissionTier, error) {
	var tiers []models.CommissionTier
	err := r.db.WithContext(ctx).
		Order("sales_threshold_cents ASC").
		Find(&tiers).Error
	if err != nil {
		return nil, err
	}
	return tiers, nil
}

func (r *repository) ListActiveAscending(ctx context.Context) ([]models.CommissionTier, error) {
	var tiers []models.CommissionTier
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("sales_threshold_cents ASC").
		Find(&tiers).Error
	if err != nil {
		return nil, err
	}
	return tiers, nil
}

func (r *repository) Update(ctx context.Context, tier *models.CommissionTier) error {
	res := r.db.WithContext(ctx).
		Model(&models.CommissionTier{}).
		Where("id = ?", tier.ID).
		Updates(map[string]any{
			"sales_threshold_cents":   tier.SalesThresholdCents,
			"commission_amount_cents": tier.CommissionAmountCents,
			"description":             tier.Description,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "commission tier not found")
	}
	return nil
}

func (r *repository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	res := r.db.WithContext(ctx).
		Model(&models.CommissionTier{}).
		Where("id = ?", id).
		Update("is_active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "commission tier not found")
	}
	return nil
}
