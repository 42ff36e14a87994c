package checkout

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/salesdeskhq/salesdesk-backend/internal/commission"
	"github.com/salesdeskhq/salesdesk-backend/internal/inventory"
	"github.com/salesdeskhq/salesdesk-backend/internal/products"
	"github.com/salesdeskhq/salesdesk-backend/internal/sales"
	"github.com/salesdeskhq/salesdesk-backend/internal/wallet"
	"github.com/salesdeskhq/salesdesk-backend/pkg/config"
	"github.com/salesdeskhq/salesdesk-backend/pkg/db/models"
	"github.com/salesdeskhq/salesdesk-backend/pkg/enums"
	pkgerrors "github.com/salesdeskhq/salesdesk-backend/pkg/errors"
	"github.com/salesdeskhq/salesdesk-backend/pkg/logger"
	"github.com/salesdeskhq/salesdesk-backend/pkg/outbox"
	"github.com/salesdeskhq/salesdesk-backend/pkg/pagination"
)

type fakeTx struct {
	rolledBack bool
	conflicts  int
	calls      int
}

func (f *fakeTx) WithSerializableTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	f.calls++
	if f.conflicts > 0 {
		f.conflicts--
		f.rolledBack = true
		return &pgconn.PgError{Code: "40001", Message: "could not serialize access due to concurrent update"}
	}
	err := fn(nil)
	if err != nil {
		f.rolledBack = true
	}
	return err
}

type fakeProducts struct {
	rows map[uuid.UUID]models.Product
}

func (f *fakeProducts) WithTx(tx *gorm.DB) products.Repository { return f }

func (f *fakeProducts) Create(ctx context.Context, product *models.Product) error { return nil }

func (f *fakeProducts) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	row, ok := f.rows[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return &row, nil
}

func (f *fakeProducts) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	out := []models.Product{}
	for _, id := range ids {
		if row, ok := f.rows[id]; ok {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeProducts) List(ctx context.Context, activeOnly bool) ([]models.Product, error) {
	return nil, nil
}

func (f *fakeProducts) Update(ctx context.Context, product *models.Product) error { return nil }

func (f *fakeProducts) SetActive(ctx context.Context, id uuid.UUID, active bool) error { return nil }

type fakeInventory struct {
	onHand map[uuid.UUID]int
	fail   map[uuid.UUID]bool
}

func (f *fakeInventory) WithTx(tx *gorm.DB) inventory.Repository { return f }

func (f *fakeInventory) GetByProductID(ctx context.Context, productID uuid.UUID) (*models.InventoryItem, error) {
	return &models.InventoryItem{ProductID: productID, OnHandQty: f.onHand[productID]}, nil
}

func (f *fakeInventory) SetOnHand(ctx context.Context, productID uuid.UUID, qty int) error {
	f.onHand[productID] = qty
	return nil
}

func (f *fakeInventory) ReserveAndDecrement(ctx context.Context, productID uuid.UUID, qty int) error {
	if f.fail[productID] || f.onHand[productID] < qty {
		return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock")
	}
	f.onHand[productID] -= qty
	return nil
}

func (f *fakeInventory) Restock(ctx context.Context, productID uuid.UUID, qty int) error {
	f.onHand[productID] += qty
	return nil
}

type fakeSales struct {
	created    []*models.Sale
	cumulative int64
}

func (f *fakeSales) WithTx(tx *gorm.DB) sales.Repository { return f }

func (f *fakeSales) Create(ctx context.Context, sale *models.Sale) error {
	sale.ID = uuid.New()
	f.created = append(f.created, sale)
	f.cumulative += sale.TotalAmountCents
	return nil
}

func (f *fakeSales) GetByID(ctx context.Context, id uuid.UUID) (*models.Sale, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sale not found")
}

func (f *fakeSales) ListByManager(ctx context.Context, managerID uuid.UUID, params pagination.Params) ([]models.Sale, string, error) {
	return nil, "", nil
}

func (f *fakeSales) CumulativeTotalByManager(ctx context.Context, managerID uuid.UUID) (int64, error) {
	return f.cumulative, nil
}

type fakeWallets struct {
	balances map[uuid.UUID]int64
	credits  []int64
}

func (f *fakeWallets) WithTx(tx *gorm.DB) wallet.Repository { return f }

func (f *fakeWallets) GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	return &models.Wallet{UserID: userID, BalanceCents: f.balances[userID]}, nil
}

func (f *fakeWallets) Get(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	return &models.Wallet{UserID: userID, BalanceCents: f.balances[userID]}, nil
}

func (f *fakeWallets) Credit(ctx context.Context, userID uuid.UUID, cents int64) error {
	f.balances[userID] += cents
	f.credits = append(f.credits, cents)
	return nil
}

func (f *fakeWallets) Debit(ctx context.Context, userID uuid.UUID, cents int64) error {
	if f.balances[userID] < cents {
		return pkgerrors.New(pkgerrors.CodeInsufficientBalance, "insufficient wallet balance")
	}
	f.balances[userID] -= cents
	return nil
}

type fakeTiers struct {
	tiers []models.CommissionTier
}

func (f *fakeTiers) WithTx(tx *gorm.DB) commission.Repository { return f }

func (f *fakeTiers) Create(ctx context.Context, tier *models.CommissionTier) error { return nil }

func (f *fakeTiers) GetByID(ctx context.Context, id uuid.UUID) (*models.CommissionTier, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "commission tier not found")
}

func (f *fakeTiers) List(ctx context.Context) ([]models.CommissionTier, error) {
	return f.tiers, nil
}

func (f *fakeTiers) ListActiveAscending(ctx context.Context) ([]models.CommissionTier, error) {
	return f.tiers, nil
}

func (f *fakeTiers) Update(ctx context.Context, tier *models.CommissionTier) error { return nil }

func (f *fakeTiers) SetActive(ctx context.Context, id uuid.UUID, active bool) error { return nil }

type fakePublisher struct {
	events []outbox.DomainEvent
}

func (f *fakePublisher) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	f.events = append(f.events, event)
	return nil
}

func (f *fakePublisher) EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	for _, existing := range f.events {
		if existing.EventType == event.EventType && existing.AggregateID == event.AggregateID {
			return nil
		}
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakePublisher) countByType(eventType enums.OutboxEventType) int {
	n := 0
	for _, event := range f.events {
		if event.EventType == eventType {
			n++
		}
	}
	return n
}

type checkoutFixture struct {
	svc       Service
	tx        *fakeTx
	products  *fakeProducts
	inventory *fakeInventory
	sales     *fakeSales
	wallets   *fakeWallets
	publisher *fakePublisher
}

func newFixture(t *testing.T, autoCredit bool, tiers []models.CommissionTier) *checkoutFixture {
	t.Helper()
	f := &checkoutFixture{
		tx:        &fakeTx{},
		products:  &fakeProducts{rows: map[uuid.UUID]models.Product{}},
		inventory: &fakeInventory{onHand: map[uuid.UUID]int{}, fail: map[uuid.UUID]bool{}},
		sales:     &fakeSales{},
		wallets:   &fakeWallets{balances: map[uuid.UUID]int64{}},
		publisher: &fakePublisher{},
	}
	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
	svc, err := NewService(
		f.tx,
		f.products,
		f.inventory,
		f.sales,
		f.wallets,
		&fakeTiers{tiers: tiers},
		f.publisher,
		config.CheckoutConfig{},
		config.CommissionConfig{AutoCredit: autoCredit},
		nil,
		logg,
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	f.svc = svc
	return f
}

func (f *checkoutFixture) addProduct(t *testing.T, priceCents int64, onHand, lowStockThreshold int) uuid.UUID {
	t.Helper()
	id := uuid.New()
	f.products.rows[id] = models.Product{
		ID:                id,
		SKU:               "SKU-" + id.String()[:8],
		SellingPriceCents: priceCents,
		LowStockThreshold: lowStockThreshold,
		IsActive:          true,
		Inventory:         &models.InventoryItem{ProductID: id, OnHandQty: onHand},
	}
	f.inventory.onHand[id] = onHand
	return id
}

func activeTier(thresholdCents, amountCents int64) models.CommissionTier {
	return models.CommissionTier{
		ID:                    uuid.New(),
		SalesThresholdCents:   thresholdCents,
		CommissionAmountCents: amountCents,
		IsActive:              true,
	}
}

func TestExecuteCommitsSaleAndCreditsCommission(t *testing.T) {
	f := newFixture(t, true, []models.CommissionTier{activeTier(5000_00, 300_00)})
	manager := uuid.New()
	product := f.addProduct(t, 6000_00, 10, 0)

	receipt, err := f.svc.Execute(context.Background(), manager, []Line{
		{ProductID: product, Quantity: 2, SalePriceCents: 6000_00},
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	if receipt.TotalAmountCents != 12000_00 {
		t.Fatalf("unexpected total: %d", receipt.TotalAmountCents)
	}
	if receipt.CommissionCreditedCents != 600_00 {
		t.Fatalf("expected 60000 commission, got %d", receipt.CommissionCreditedCents)
	}
	if f.wallets.balances[manager] != 600_00 {
		t.Fatalf("wallet not credited: %d", f.wallets.balances[manager])
	}
	if f.inventory.onHand[product] != 8 {
		t.Fatalf("stock not decremented: %d", f.inventory.onHand[product])
	}
	if len(f.sales.created) != 1 || len(f.sales.created[0].Items) != 1 {
		t.Fatalf("unexpected persisted sale: %+v", f.sales.created)
	}
	if f.publisher.countByType(enums.EventSaleCreated) != 1 {
		t.Fatal("expected one sale_created event")
	}
	if f.publisher.countByType(enums.EventCommissionCredited) != 1 {
		t.Fatal("expected one commission_credited event")
	}
}

func TestExecuteCreditsOnlyTheDelta(t *testing.T) {
	f := newFixture(t, true, []models.CommissionTier{activeTier(5000_00, 300_00)})
	manager := uuid.New()
	product := f.addProduct(t, 4000_00, 10, 0)

	// 70000 in lifetime sales already: one threshold consumed, 20000 remainder
	f.sales.cumulative = 7000_00

	receipt, err := f.svc.Execute(context.Background(), manager, []Line{
		{ProductID: product, Quantity: 1, SalePriceCents: 4000_00},
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	// lifetime moves 7000 -> 11000, multiplier 1 -> 2, delta is one tier amount
	if receipt.CommissionCreditedCents != 300_00 {
		t.Fatalf("expected delta credit of 30000, got %d", receipt.CommissionCreditedCents)
	}
}

func TestExecuteStaleCartFailsWithReasons(t *testing.T) {
	f := newFixture(t, true, nil)
	manager := uuid.New()
	cheap := f.addProduct(t, 1000_00, 5, 0)
	inactiveID := f.addProduct(t, 1000_00, 5, 0)
	row := f.products.rows[inactiveID]
	row.IsActive = false
	f.products.rows[inactiveID] = row

	_, err := f.svc.Execute(context.Background(), manager, []Line{
		{ProductID: cheap, Quantity: 1, SalePriceCents: 900_00},
		{ProductID: inactiveID, Quantity: 1, SalePriceCents: 1000_00},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation failure, got %v", err)
	}
	details, ok := typed.Details().(map[string]any)
	if !ok {
		t.Fatalf("expected line details, got %T", typed.Details())
	}
	failures, ok := details["lines"].([]LineFailure)
	if !ok || len(failures) != 2 {
		t.Fatalf("expected two line failures, got %+v", details)
	}
	if len(f.sales.created) != 0 {
		t.Fatal("stale cart must not persist a sale")
	}
	if f.publisher.countByType(enums.EventSaleCreated) != 0 {
		t.Fatal("stale cart must not emit events")
	}
}

func TestExecuteConcurrentOversellRollsBack(t *testing.T) {
	f := newFixture(t, true, nil)
	manager := uuid.New()
	product := f.addProduct(t, 1000_00, 5, 0)

	// validation sees stock, but another checkout drains it before the
	// guarded decrement runs
	f.inventory.fail[product] = true

	_, err := f.svc.Execute(context.Background(), manager, []Line{
		{ProductID: product, Quantity: 2, SalePriceCents: 1000_00},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	if !f.tx.rolledBack {
		t.Fatal("expected transaction rollback")
	}
	if len(f.sales.created) != 0 {
		t.Fatal("oversell must not persist a sale")
	}
}

func TestExecuteAutoCreditDisabled(t *testing.T) {
	f := newFixture(t, false, []models.CommissionTier{activeTier(5000_00, 300_00)})
	manager := uuid.New()
	product := f.addProduct(t, 6000_00, 10, 0)

	receipt, err := f.svc.Execute(context.Background(), manager, []Line{
		{ProductID: product, Quantity: 2, SalePriceCents: 6000_00},
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if receipt.CommissionCreditedCents != 0 {
		t.Fatalf("expected no credit with auto-credit off, got %d", receipt.CommissionCreditedCents)
	}
	if len(f.wallets.credits) != 0 {
		t.Fatal("wallet must stay untouched with auto-credit off")
	}
	if f.publisher.countByType(enums.EventSaleCreated) != 1 {
		t.Fatal("sale_created event still expected")
	}
	if f.publisher.countByType(enums.EventCommissionCredited) != 0 {
		t.Fatal("no commission event expected with auto-credit off")
	}
}

func TestExecuteEmitsLowStockOnce(t *testing.T) {
	f := newFixture(t, false, nil)
	manager := uuid.New()
	product := f.addProduct(t, 1000_00, 5, 3)

	_, err := f.svc.Execute(context.Background(), manager, []Line{
		{ProductID: product, Quantity: 3, SalePriceCents: 1000_00},
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if f.publisher.countByType(enums.EventLowStock) != 1 {
		t.Fatal("expected a low stock event when stock crosses the threshold")
	}

	// refresh the snapshot the way a reload would
	row := f.products.rows[product]
	row.Inventory = &models.InventoryItem{ProductID: product, OnHandQty: f.inventory.onHand[product]}
	f.products.rows[product] = row

	_, err = f.svc.Execute(context.Background(), manager, []Line{
		{ProductID: product, Quantity: 1, SalePriceCents: 1000_00},
	})
	if err != nil {
		t.Fatalf("second execute: %v", err)
	}
	if f.publisher.countByType(enums.EventLowStock) != 1 {
		t.Fatal("low stock event must not repeat while already queued")
	}
}

func TestExecuteOverlappingCheckoutsCreditFullCommission(t *testing.T) {
	tiers := []models.CommissionTier{activeTier(5000_00, 300_00)}
	f := newFixture(t, true, tiers)
	manager := uuid.New()
	product := f.addProduct(t, 3000_00, 10, 0)

	// first checkout lands below the threshold, nothing credited yet
	first, err := f.svc.Execute(context.Background(), manager, []Line{
		{ProductID: product, Quantity: 1, SalePriceCents: 3000_00},
	})
	if err != nil {
		t.Fatalf("first execute: %v", err)
	}
	if first.CommissionCreditedCents != 0 {
		t.Fatalf("expected no credit below threshold, got %d", first.CommissionCreditedCents)
	}

	// the second checkout overlapped the first: its initial attempt is
	// aborted with a serialization failure and must replay against the
	// committed cumulative total
	f.tx.conflicts = 1
	second, err := f.svc.Execute(context.Background(), manager, []Line{
		{ProductID: product, Quantity: 1, SalePriceCents: 3000_00},
	})
	if err != nil {
		t.Fatalf("second execute: %v", err)
	}
	if f.tx.calls != 3 {
		t.Fatalf("expected the aborted attempt to be replayed, got %d tx calls", f.tx.calls)
	}

	lifetime := commission.Calculate(6000_00, tiers).TotalCents
	credited := first.CommissionCreditedCents + second.CommissionCreditedCents
	if credited != lifetime {
		t.Fatalf("credited %d across both checkouts, lifetime sales earn %d", credited, lifetime)
	}
	if f.wallets.balances[manager] != lifetime {
		t.Fatalf("wallet holds %d, want %d", f.wallets.balances[manager], lifetime)
	}
}

func TestExecuteSerializationRetriesExhausted(t *testing.T) {
	f := newFixture(t, true, []models.CommissionTier{activeTier(5000_00, 300_00)})
	manager := uuid.New()
	product := f.addProduct(t, 3000_00, 10, 0)

	f.tx.conflicts = serializableAttempts

	_, err := f.svc.Execute(context.Background(), manager, []Line{
		{ProductID: product, Quantity: 1, SalePriceCents: 3000_00},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConcurrency {
		t.Fatalf("expected concurrency error after exhausted retries, got %v", err)
	}
	if f.tx.calls != serializableAttempts {
		t.Fatalf("expected %d attempts, got %d", serializableAttempts, f.tx.calls)
	}
	if len(f.sales.created) != 0 || len(f.wallets.credits) != 0 {
		t.Fatal("an aborted checkout must not persist anything")
	}
}

func TestExecutePriceBelowFloorOnly(t *testing.T) {
	f := newFixture(t, true, nil)
	manager := uuid.New()
	product := f.addProduct(t, 1000_00, 5, 0)

	_, err := f.svc.Execute(context.Background(), manager, []Line{
		{ProductID: product, Quantity: 1, SalePriceCents: 900_00},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodePriceBelowFloor {
		t.Fatalf("expected price below floor error, got %v", err)
	}
	details, ok := typed.Details().(map[string]any)
	if !ok {
		t.Fatalf("expected line details, got %T", typed.Details())
	}
	failures, ok := details["lines"].([]LineFailure)
	if !ok || len(failures) != 1 || failures[0].Reason != reasonPriceBelowFloor {
		t.Fatalf("unexpected failures: %+v", details)
	}
	if len(f.sales.created) != 0 {
		t.Fatal("underpriced line must not persist a sale")
	}
}

func TestExecuteRejectsDuplicateLines(t *testing.T) {
	f := newFixture(t, false, nil)
	manager := uuid.New()
	product := f.addProduct(t, 1000_00, 5, 0)

	_, err := f.svc.Execute(context.Background(), manager, []Line{
		{ProductID: product, Quantity: 1, SalePriceCents: 1000_00},
		{ProductID: product, Quantity: 2, SalePriceCents: 1000_00},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
