package commission

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/salesdeskhq/salesdesk-backend/pkg/db/models"
	pkgerrors "github.com/salesdeskhq/salesdesk-backend/pkg/errors"
	"github.com/salesdeskhq/salesdesk-backend/pkg/logger"
)

// CreateTierInput is the admin-facing payload for a new tier.
type CreateTierInput struct {
	SalesThresholdCents   int64
	CommissionAmountCents int64
	Description           *string
}

// UpdateTierInput carries the mutable tier fields. Nil pointers leave the
// current value untouched.
type UpdateTierInput struct {
	SalesThresholdCents   *int64
	CommissionAmountCents *int64
	Description           *string
}

// Service manages the tier table and runs the calculator over it.
type Service interface {
	CreateTier(ctx context.Context, input CreateTierInput) (*models.CommissionTier, error)
	UpdateTier(ctx context.Context, id uuid.UUID, input UpdateTierInput) (*models.CommissionTier, error)
	ToggleTier(ctx context.Context, id uuid.UUID) (*models.CommissionTier, error)
	ListTiers(ctx context.Context) ([]models.CommissionTier, error)
	CalculateForSales(ctx context.Context, salesCents int64) (Breakdown, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService wires the tier service.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, errors.New("commission repository is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) CreateTier(ctx context.Context, input CreateTierInput) (*models.CommissionTier, error) {
	if err := validateTierAmounts(input.SalesThresholdCents, input.CommissionAmountCents); err != nil {
		return nil, err
	}
	if err := s.ensureThresholdUnused(ctx, input.SalesThresholdCents, uuid.Nil); err != nil {
		return nil, err
	}

	tier := models.CommissionTier{
		SalesThresholdCents:   input.SalesThresholdCents,
		CommissionAmountCents: input.CommissionAmountCents,
		Description:           input.Description,
		IsActive:              true,
	}
	if err := s.repo.Create(ctx, &tier); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating commission tier")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"tier_id":         tier.ID.String(),
		"threshold_cents": tier.SalesThresholdCents,
	})
	s.logg.Info(logCtx, "commission tier created")
	return &tier, nil
}

func (s *service) UpdateTier(ctx context.Context, id uuid.UUID, input UpdateTierInput) (*models.CommissionTier, error) {
	tier, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.SalesThresholdCents != nil {
		tier.SalesThresholdCents = *input.SalesThresholdCents
	}
	if input.CommissionAmountCents != nil {
		tier.CommissionAmountCents = *input.CommissionAmountCents
	}
	if input.Description != nil {
		tier.Description = input.Description
	}

	if err := validateTierAmounts(tier.SalesThresholdCents, tier.CommissionAmountCents); err != nil {
		return nil, err
	}
	if input.SalesThresholdCents != nil {
		if err := s.ensureThresholdUnused(ctx, tier.SalesThresholdCents, tier.ID); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, tier); err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithField(ctx, "tier_id", tier.ID.String()), "commission tier updated")
	return tier, nil
}

// ToggleTier flips is_active. Tiers are never deleted so historical
// commission math stays reconstructible.
func (s *service) ToggleTier(ctx context.Context, id uuid.UUID) (*models.CommissionTier, error) {
	tier, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetActive(ctx, id, !tier.IsActive); err != nil {
		return nil, err
	}
	tier.IsActive = !tier.IsActive

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"tier_id":   tier.ID.String(),
		"is_active": tier.IsActive,
	})
	s.logg.Info(logCtx, "commission tier toggled")
	return tier, nil
}

func (s *service) ListTiers(ctx context.Context) ([]models.CommissionTier, error) {
	return s.repo.List(ctx)
}

// CalculateForSales loads the active tiers and runs the calculator.
func (s *service) CalculateForSales(ctx context.Context, salesCents int64) (Breakdown, error) {
	tiers, err := s.repo.ListActiveAscending(ctx)
	if err != nil {
		return Breakdown{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading commission tiers")
	}
	return Calculate(salesCents, tiers), nil
}

func (s *service) ensureThresholdUnused(ctx context.Context, thresholdCents int64, excludeID uuid.UUID) error {
	tiers, err := s.repo.ListActiveAscending(ctx)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading commission tiers")
	}
	for _, existing := range tiers {
		if existing.ID != excludeID && existing.SalesThresholdCents == thresholdCents {
			return pkgerrors.New(pkgerrors.CodeConflict, "an active tier already uses this threshold")
		}
	}
	return nil
}

func validateTierAmounts(thresholdCents, amountCents int64) error {
	if thresholdCents <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "sales threshold must be positive")
	}
	if amountCents < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "commission amount cannot be negative")
	}
	return nil
}
