package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/salesdeskhq/salesdesk-backend/internal/commission"
	"github.com/salesdeskhq/salesdesk-backend/internal/inventory"
	"github.com/salesdeskhq/salesdesk-backend/internal/products"
	"github.com/salesdeskhq/salesdesk-backend/internal/sales"
	"github.com/salesdeskhq/salesdesk-backend/internal/wallet"
	"github.com/salesdeskhq/salesdesk-backend/pkg/config"
	dbpkg "github.com/salesdeskhq/salesdesk-backend/pkg/db"
	"github.com/salesdeskhq/salesdesk-backend/pkg/db/models"
	"github.com/salesdeskhq/salesdesk-backend/pkg/enums"
	pkgerrors "github.com/salesdeskhq/salesdesk-backend/pkg/errors"
	"github.com/salesdeskhq/salesdesk-backend/pkg/logger"
	"github.com/salesdeskhq/salesdesk-backend/pkg/metrics"
	"github.com/salesdeskhq/salesdesk-backend/pkg/outbox"
	"github.com/salesdeskhq/salesdesk-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithSerializableTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// serializableAttempts bounds how often a checkout retries after Postgres
// aborts it with a serialization failure.
const serializableAttempts = 3

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Line is one item the manager is ringing up.
type Line struct {
	ProductID      uuid.UUID
	Quantity       int
	SalePriceCents int64
}

// LineFailure names the line that sank the checkout and why.
type LineFailure struct {
	ProductID uuid.UUID `json:"product_id"`
	Reason    string    `json:"reason"`
}

const (
	reasonUnknownProduct    = "unknown_product"
	reasonInactiveProduct   = "inactive_product"
	reasonInvalidQuantity   = "invalid_quantity"
	reasonPriceBelowFloor   = "price_below_floor"
	reasonInsufficientStock = "insufficient_stock"
)

// Receipt is what the manager sees when the sale commits.
type Receipt struct {
	SaleID                  uuid.UUID
	TotalAmountCents        int64
	CommissionCreditedCents int64
}

// Service executes the checkout transaction.
type Service interface {
	Execute(ctx context.Context, managerID uuid.UUID, lines []Line) (*Receipt, error)
}

type service struct {
	tx        txRunner
	products  products.Repository
	inventory inventory.Repository
	sales     sales.Repository
	wallets   wallet.Repository
	tiers     commission.Repository
	publisher outboxPublisher
	cfg       config.CheckoutConfig
	policy    config.CommissionConfig
	metrics   *metrics.CheckoutMetrics
	logg      *logger.Logger
}

// NewService builds the checkout service.
func NewService(
	tx txRunner,
	productRepo products.Repository,
	inv inventory.Repository,
	salesRepo sales.Repository,
	wallets wallet.Repository,
	tiers commission.Repository,
	publisher outboxPublisher,
	cfg config.CheckoutConfig,
	policy config.CommissionConfig,
	checkoutMetrics *metrics.CheckoutMetrics,
	logg *logger.Logger,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if productRepo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if inv == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if salesRepo == nil {
		return nil, fmt.Errorf("sales repository required")
	}
	if wallets == nil {
		return nil, fmt.Errorf("wallet repository required")
	}
	if tiers == nil {
		return nil, fmt.Errorf("commission tier repository required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		tx:        tx,
		products:  productRepo,
		inventory: inv,
		sales:     salesRepo,
		wallets:   wallets,
		tiers:     tiers,
		publisher: publisher,
		cfg:       cfg,
		policy:    policy,
		metrics:   checkoutMetrics,
		logg:      logg,
	}, nil
}

// Execute runs the whole checkout as one transaction: stale-cart
// re-validation, guarded stock decrements, the sale insert, the commission
// credit, and the outbox rows all commit or roll back together.
func (s *service) Execute(ctx context.Context, managerID uuid.UUID, lines []Line) (*Receipt, error) {
	started := time.Now()
	receipt, err := s.execute(ctx, managerID, lines)
	if err != nil {
		code := string(pkgerrors.CodeInternal)
		if typed := pkgerrors.As(err); typed != nil {
			code = string(typed.Code())
		}
		s.metrics.ObserveDuration("failure", time.Since(started))
		s.metrics.IncFailure(code)
		return nil, err
	}
	s.metrics.ObserveDuration("success", time.Since(started))
	s.metrics.IncSuccess(s.policy.AutoCredit)
	return receipt, nil
}

func (s *service) execute(ctx context.Context, managerID uuid.UUID, lines []Line) (*Receipt, error) {
	if managerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "manager id required")
	}
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout requires at least one line")
	}
	seen := make(map[uuid.UUID]struct{}, len(lines))
	for _, line := range lines {
		if _, dup := seen[line.ProductID]; dup {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "duplicate product in checkout").
				WithDetails(map[string]any{"product_id": line.ProductID.String()})
		}
		seen[line.ProductID] = struct{}{}
	}

	if s.cfg.TxTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.TxTimeout)
		defer cancel()
	}

	// The commission delta is computed from the manager's lifetime sales
	// total, so the cumulative read and the wallet credit must serialize
	// against concurrent checkouts by the same manager. SERIALIZABLE makes
	// Postgres abort one side of an overlap; the loop replays the loser
	// against the committed state.
	var receipt *Receipt
	var err error
	for attempt := 1; attempt <= serializableAttempts; attempt++ {
		receipt, err = s.runCheckoutTx(ctx, managerID, lines)
		if err == nil || !dbpkg.IsSerializationFailure(err) || attempt == serializableAttempts {
			break
		}
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"manager_id": managerID.String(),
			"attempt":    attempt,
		}), "checkout retrying after serialization failure")
	}
	if err != nil {
		if dbpkg.IsSerializationFailure(err) || dbpkg.IsTimeout(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConcurrency, err, "checkout lost a concurrency race")
		}
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"sale_id":          receipt.SaleID.String(),
		"manager_id":       managerID.String(),
		"total_cents":      receipt.TotalAmountCents,
		"commission_cents": receipt.CommissionCreditedCents,
		"line_count":       len(lines),
	})
	s.logg.Info(logCtx, "checkout committed")
	return receipt, nil
}

func (s *service) runCheckoutTx(ctx context.Context, managerID uuid.UUID, lines []Line) (*Receipt, error) {
	var receipt *Receipt
	err := s.tx.WithSerializableTx(ctx, func(tx *gorm.DB) error {
		invRepo := s.inventory.WithTx(tx)
		salesRepo := s.sales.WithTx(tx)
		walletRepo := s.wallets.WithTx(tx)
		tierRepo := s.tiers.WithTx(tx)

		products, failures, err := s.validateLines(ctx, tx, lines)
		if err != nil {
			return err
		}
		if len(failures) > 0 {
			return failureError(failures)
		}

		cumulativeBefore, err := salesRepo.CumulativeTotalByManager(ctx, managerID)
		if err != nil {
			return err
		}

		for _, line := range lines {
			if err := invRepo.ReserveAndDecrement(ctx, line.ProductID, line.Quantity); err != nil {
				return err
			}
		}

		sale := buildSale(managerID, lines)
		if err := salesRepo.Create(ctx, sale); err != nil {
			return err
		}

		credited := int64(0)
		cumulativeAfter := cumulativeBefore + sale.TotalAmountCents
		if s.policy.AutoCredit {
			tiers, err := tierRepo.ListActiveAscending(ctx)
			if err != nil {
				return err
			}
			credited = commission.Calculate(cumulativeAfter, tiers).TotalCents -
				commission.Calculate(cumulativeBefore, tiers).TotalCents
			if credited > 0 {
				if err := walletRepo.Credit(ctx, managerID, credited); err != nil {
					return err
				}
				w, err := walletRepo.Get(ctx, managerID)
				if err != nil {
					return err
				}
				event := outbox.DomainEvent{
					EventType:     enums.EventCommissionCredited,
					AggregateType: enums.AggregateWallet,
					AggregateID:   managerID,
					Actor:         &outbox.ActorRef{UserID: managerID, Role: string(enums.UserRoleManager)},
					Data: payloads.CommissionCreditedEvent{
						SaleID:               sale.ID,
						ManagerID:            managerID,
						CommissionCents:      credited,
						CumulativeSalesCents: cumulativeAfter,
						WalletBalanceCents:   w.BalanceCents,
					},
				}
				if err := s.publisher.Emit(ctx, tx, event); err != nil {
					return err
				}
			}
		}

		if err := s.emitLowStockEvents(ctx, tx, products, lines); err != nil {
			return err
		}

		saleEvent := outbox.DomainEvent{
			EventType:     enums.EventSaleCreated,
			AggregateType: enums.AggregateSale,
			AggregateID:   sale.ID,
			Actor:         &outbox.ActorRef{UserID: managerID, Role: string(enums.UserRoleManager)},
			Data: payloads.SaleCreatedEvent{
				SaleID:           sale.ID,
				ManagerID:        managerID,
				TotalAmountCents: sale.TotalAmountCents,
				ItemCount:        len(sale.Items),
			},
		}
		if err := s.publisher.Emit(ctx, tx, saleEvent); err != nil {
			return err
		}

		receipt = &Receipt{
			SaleID:                  sale.ID,
			TotalAmountCents:        sale.TotalAmountCents,
			CommissionCreditedCents: credited,
		}
		return nil
	})
	return receipt, err
}

// validateLines re-checks every line against the current product rows so a
// stale cart fails with reasons instead of writing anything.
func (s *service) validateLines(ctx context.Context, tx *gorm.DB, lines []Line) (map[uuid.UUID]models.Product, []LineFailure, error) {
	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	rows, err := s.products.WithTx(tx).GetByIDs(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	byID := make(map[uuid.UUID]models.Product, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}

	var failures []LineFailure
	for _, line := range lines {
		product, ok := byID[line.ProductID]
		switch {
		case !ok:
			failures = append(failures, LineFailure{ProductID: line.ProductID, Reason: reasonUnknownProduct})
		case !product.IsActive:
			failures = append(failures, LineFailure{ProductID: line.ProductID, Reason: reasonInactiveProduct})
		case line.Quantity < 1:
			failures = append(failures, LineFailure{ProductID: line.ProductID, Reason: reasonInvalidQuantity})
		case line.SalePriceCents < product.FloorPriceCents():
			failures = append(failures, LineFailure{ProductID: line.ProductID, Reason: reasonPriceBelowFloor})
		case product.Inventory == nil || product.Inventory.OnHandQty < line.Quantity:
			failures = append(failures, LineFailure{ProductID: line.ProductID, Reason: reasonInsufficientStock})
		}
	}
	return byID, failures, nil
}

// emitLowStockEvents queues one deduplicated alert per product that dropped
// to or below its threshold during this sale.
func (s *service) emitLowStockEvents(ctx context.Context, tx *gorm.DB, products map[uuid.UUID]models.Product, lines []Line) error {
	for _, line := range lines {
		product, ok := products[line.ProductID]
		if !ok || product.Inventory == nil || product.LowStockThreshold <= 0 {
			continue
		}
		remaining := product.Inventory.OnHandQty - line.Quantity
		if remaining > product.LowStockThreshold {
			continue
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventLowStock,
			AggregateType: enums.AggregateProduct,
			AggregateID:   product.ID,
			Data: payloads.LowStockEvent{
				ProductID: product.ID,
				SKU:       product.SKU,
				OnHandQty: remaining,
				Threshold: product.LowStockThreshold,
			},
		}
		if err := s.publisher.EmitIfNotExists(ctx, tx, event); err != nil {
			return err
		}
	}
	return nil
}

func buildSale(managerID uuid.UUID, lines []Line) *models.Sale {
	items := make([]models.SaleItem, 0, len(lines))
	total := int64(0)
	for _, line := range lines {
		lineTotal := int64(line.Quantity) * line.SalePriceCents
		items = append(items, models.SaleItem{
			ProductID:       line.ProductID,
			Quantity:        line.Quantity,
			UnitPriceCents:  line.SalePriceCents,
			TotalPriceCents: lineTotal,
		})
		total += lineTotal
	}
	return &models.Sale{
		ManagerID:        managerID,
		TotalAmountCents: total,
		Items:            items,
	}
}

// failureError collapses uniform failures to their specific code so clients
// can branch on it; mixed carts stay a generic validation error.
func failureError(failures []LineFailure) error {
	stockOnly := true
	floorOnly := true
	for _, failure := range failures {
		if failure.Reason != reasonInsufficientStock {
			stockOnly = false
		}
		if failure.Reason != reasonPriceBelowFloor {
			floorOnly = false
		}
	}
	code := pkgerrors.CodeValidation
	message := "checkout validation failed"
	switch {
	case stockOnly:
		code = pkgerrors.CodeInsufficientStock
		message = "insufficient stock"
	case floorOnly:
		code = pkgerrors.CodePriceBelowFloor
		message = "sale price below floor"
	}
	return pkgerrors.New(code, message).WithDetails(map[string]any{"lines": failures})
}
