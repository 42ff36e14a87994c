package products

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/salesdeskhq/salesdesk-backend/internal/inventory"
	"github.com/salesdeskhq/salesdesk-backend/pkg/db/models"
	pkgerrors "github.com/salesdeskhq/salesdesk-backend/pkg/errors"
	"github.com/salesdeskhq/salesdesk-backend/pkg/logger"
)

// CreateProductInput is the admin payload for a new listing.
type CreateProductInput struct {
	SKU                string
	Title              string
	CostPriceCents     int64
	SellingPriceCents  int64
	DiscountPriceCents *int64
	LowStockThreshold  int
	InitialQty         int
}

// UpdateProductInput carries the mutable listing fields. Nil pointers leave
// the current value untouched; ClearDiscount removes the discount price.
type UpdateProductInput struct {
	SKU                *string
	Title              *string
	CostPriceCents     *int64
	SellingPriceCents  *int64
	DiscountPriceCents *int64
	ClearDiscount      bool
	LowStockThreshold  *int
}

// Service is the catalog surface the admin app and checkout validation use.
type Service interface {
	Create(ctx context.Context, input CreateProductInput) (*models.Product, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*models.Product, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
	List(ctx context.Context, activeOnly bool) ([]models.Product, error)
	SetInventory(ctx context.Context, id uuid.UUID, qty int) (*models.Product, error)
}

type service struct {
	repo      Repository
	inventory inventory.Repository
	logg      *logger.Logger
}

// NewService wires the product service.
func NewService(repo Repository, inv inventory.Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, errors.New("product repository is required")
	}
	if inv == nil {
		return nil, errors.New("inventory repository is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &service{repo: repo, inventory: inv, logg: logg}, nil
}

func (s *service) Create(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	input.SKU = strings.TrimSpace(input.SKU)
	if err := validatePricing(input.CostPriceCents, input.SellingPriceCents, input.DiscountPriceCents); err != nil {
		return nil, err
	}
	if input.SKU == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
	}
	if input.InitialQty < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "initial quantity cannot be negative")
	}

	product := models.Product{
		SKU:                input.SKU,
		Title:              input.Title,
		CostPriceCents:     input.CostPriceCents,
		SellingPriceCents:  input.SellingPriceCents,
		DiscountPriceCents: input.DiscountPriceCents,
		LowStockThreshold:  input.LowStockThreshold,
		IsActive:           true,
	}
	if err := s.repo.Create(ctx, &product); err != nil {
		return nil, err
	}
	if err := s.inventory.SetOnHand(ctx, product.ID, input.InitialQty); err != nil {
		return nil, err
	}
	product.Inventory = &models.InventoryItem{ProductID: product.ID, OnHandQty: input.InitialQty}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"product_id": product.ID.String(),
		"sku":        product.SKU,
	})
	s.logg.Info(logCtx, "product created")
	return &product, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.SKU != nil {
		product.SKU = strings.TrimSpace(*input.SKU)
	}
	if input.Title != nil {
		product.Title = *input.Title
	}
	if input.CostPriceCents != nil {
		product.CostPriceCents = *input.CostPriceCents
	}
	if input.SellingPriceCents != nil {
		product.SellingPriceCents = *input.SellingPriceCents
	}
	if input.ClearDiscount {
		product.DiscountPriceCents = nil
	} else if input.DiscountPriceCents != nil {
		product.DiscountPriceCents = input.DiscountPriceCents
	}
	if input.LowStockThreshold != nil {
		product.LowStockThreshold = *input.LowStockThreshold
	}

	if product.SKU == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
	}
	if err := validatePricing(product.CostPriceCents, product.SellingPriceCents, product.DiscountPriceCents); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithField(ctx, "product_id", product.ID.String()), "product updated")
	return product, nil
}

// Deactivate hides the listing from checkout without touching sale history.
func (s *service) Deactivate(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.SetActive(ctx, id, false); err != nil {
		return err
	}
	s.logg.Info(s.logg.WithField(ctx, "product_id", id.String()), "product deactivated")
	return nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, activeOnly bool) ([]models.Product, error) {
	return s.repo.List(ctx, activeOnly)
}

// SetInventory overwrites the on-hand count. Absolute, not a delta, so the
// admin app can reconcile after a physical count.
func (s *service) SetInventory(ctx context.Context, id uuid.UUID, qty int) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.inventory.SetOnHand(ctx, id, qty); err != nil {
		return nil, err
	}
	product.Inventory = &models.InventoryItem{ProductID: id, OnHandQty: qty}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"product_id":  id.String(),
		"on_hand_qty": qty,
	})
	s.logg.Info(logCtx, "inventory count set")
	return product, nil
}

func validatePricing(costCents, sellingCents int64, discountCents *int64) error {
	if costCents < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "cost price cannot be negative")
	}
	if sellingCents <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "selling price must be positive")
	}
	if discountCents != nil {
		if *discountCents <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "discount price must be positive")
		}
		if *discountCents >= sellingCents {
			return pkgerrors.New(pkgerrors.CodeValidation, "discount price must be below selling price")
		}
	}
	return nil
}
