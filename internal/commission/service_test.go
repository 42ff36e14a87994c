package commission

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/salesdeskhq/salesdesk-backend/pkg/db/models"
	pkgerrors "github.com/salesdeskhq/salesdesk-backend/pkg/errors"
	"github.com/salesdeskhq/salesdesk-backend/pkg/logger"
)

type fakeTierRepo struct {
	tiers map[uuid.UUID]models.CommissionTier
}

func newFakeTierRepo() *fakeTierRepo {
	return &fakeTierRepo{tiers: map[uuid.UUID]models.CommissionTier{}}
}

func (f *fakeTierRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeTierRepo) Create(ctx context.Context, tier *models.CommissionTier) error {
	if tier.ID == uuid.Nil {
		tier.ID = uuid.New()
	}
	f.tiers[tier.ID] = *tier
	return nil
}

func (f *fakeTierRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.CommissionTier, error) {
	tier, ok := f.tiers[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "commission tier not found")
	}
	return &tier, nil
}

func (f *fakeTierRepo) List(ctx context.Context) ([]models.CommissionTier, error) {
	out := make([]models.CommissionTier, 0, len(f.tiers))
	for _, tier := range f.tiers {
		out = append(out, tier)
	}
	return out, nil
}

func (f *fakeTierRepo) ListActiveAscending(ctx context.Context) ([]models.CommissionTier, error) {
	out := []models.CommissionTier{}
	for _, tier := range f.tiers {
		if tier.IsActive {
			out = append(out, tier)
		}
	}
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].SalesThresholdCents < out[i].SalesThresholdCents {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (f *fakeTierRepo) Update(ctx context.Context, tier *models.CommissionTier) error {
	if _, ok := f.tiers[tier.ID]; !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "commission tier not found")
	}
	f.tiers[tier.ID] = *tier
	return nil
}

func (f *fakeTierRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	tier, ok := f.tiers[id]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "commission tier not found")
	}
	tier.IsActive = active
	f.tiers[id] = tier
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
}

func TestCreateTierValidatesAmounts(t *testing.T) {
	svc, err := NewService(newFakeTierRepo(), testLogger())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.CreateTier(context.Background(), CreateTierInput{SalesThresholdCents: 0, CommissionAmountCents: 100})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	_, err = svc.CreateTier(context.Background(), CreateTierInput{SalesThresholdCents: 1000, CommissionAmountCents: -1})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateTierRejectsDuplicateActiveThreshold(t *testing.T) {
	repo := newFakeTierRepo()
	svc, err := NewService(repo, testLogger())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx := context.Background()

	if _, err := svc.CreateTier(ctx, CreateTierInput{SalesThresholdCents: 5000_00, CommissionAmountCents: 300_00}); err != nil {
		t.Fatalf("first create: %v", err)
	}

	_, err = svc.CreateTier(ctx, CreateTierInput{SalesThresholdCents: 5000_00, CommissionAmountCents: 100_00})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestToggleTierFlipsWithoutDeleting(t *testing.T) {
	repo := newFakeTierRepo()
	svc, err := NewService(repo, testLogger())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx := context.Background()

	tier, err := svc.CreateTier(ctx, CreateTierInput{SalesThresholdCents: 5000_00, CommissionAmountCents: 300_00})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	toggled, err := svc.ToggleTier(ctx, tier.ID)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if toggled.IsActive {
		t.Fatal("expected tier to be inactive after toggle")
	}
	if len(repo.tiers) != 1 {
		t.Fatalf("expected tier row to survive toggle, have %d", len(repo.tiers))
	}

	// inactive tiers release their threshold for reuse
	if _, err := svc.CreateTier(ctx, CreateTierInput{SalesThresholdCents: 5000_00, CommissionAmountCents: 200_00}); err != nil {
		t.Fatalf("create after toggle: %v", err)
	}
}

func TestUpdateTierPartialFields(t *testing.T) {
	repo := newFakeTierRepo()
	svc, err := NewService(repo, testLogger())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx := context.Background()

	tier, err := svc.CreateTier(ctx, CreateTierInput{SalesThresholdCents: 5000_00, CommissionAmountCents: 300_00})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	amount := int64(350_00)
	updated, err := svc.UpdateTier(ctx, tier.ID, UpdateTierInput{CommissionAmountCents: &amount})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.CommissionAmountCents != 350_00 || updated.SalesThresholdCents != 5000_00 {
		t.Fatalf("unexpected tier after update: %+v", updated)
	}
}

func TestCalculateForSalesUsesActiveTiers(t *testing.T) {
	repo := newFakeTierRepo()
	svc, err := NewService(repo, testLogger())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx := context.Background()

	lower, err := svc.CreateTier(ctx, CreateTierInput{SalesThresholdCents: 5000_00, CommissionAmountCents: 300_00})
	if err != nil {
		t.Fatalf("create lower: %v", err)
	}
	if _, err := svc.CreateTier(ctx, CreateTierInput{SalesThresholdCents: 10000_00, CommissionAmountCents: 700_00}); err != nil {
		t.Fatalf("create upper: %v", err)
	}

	got, err := svc.CalculateForSales(ctx, 10000_00)
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if got.TotalCents != 600_00 {
		t.Fatalf("expected total 60000, got %d", got.TotalCents)
	}

	if _, err := svc.ToggleTier(ctx, lower.ID); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	got, err = svc.CalculateForSales(ctx, 10000_00)
	if err != nil {
		t.Fatalf("calculate after toggle: %v", err)
	}
	if got.TotalCents != 700_00 {
		t.Fatalf("expected only upper tier to apply, got %d", got.TotalCents)
	}
}
