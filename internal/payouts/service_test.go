package payouts

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/salesdeskhq/salesdesk-backend/internal/wallet"
	"github.com/salesdeskhq/salesdesk-backend/pkg/db/models"
	"github.com/salesdeskhq/salesdesk-backend/pkg/enums"
	pkgerrors "github.com/salesdeskhq/salesdesk-backend/pkg/errors"
	"github.com/salesdeskhq/salesdesk-backend/pkg/logger"
	"github.com/salesdeskhq/salesdesk-backend/pkg/metrics"
	"github.com/salesdeskhq/salesdesk-backend/pkg/outbox"
	"github.com/salesdeskhq/salesdesk-backend/pkg/pagination"
)

type fakeTx struct {
	rolledBack bool
}

func (f *fakeTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	err := fn(nil)
	if err != nil {
		f.rolledBack = true
	}
	return err
}

type fakeWallets struct {
	balances map[uuid.UUID]int64
	paidOut  map[uuid.UUID]int64
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
	return nil
}

func (f *fakeWallets) Debit(ctx context.Context, userID uuid.UUID, cents int64) error {
	if f.balances[userID] < cents {
		return pkgerrors.New(pkgerrors.CodeInsufficientBalance, "insufficient wallet balance")
	}
	f.balances[userID] -= cents
	f.paidOut[userID] += cents
	return nil
}

type fakePayoutRepo struct {
	created []*models.Payout
}

func (f *fakePayoutRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakePayoutRepo) Create(ctx context.Context, payout *models.Payout) error {
	payout.ID = uuid.New()
	f.created = append(f.created, payout)
	return nil
}

func (f *fakePayoutRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Payout, error) {
	for _, payout := range f.created {
		if payout.ID == id {
			return payout, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payout not found")
}

func (f *fakePayoutRepo) List(ctx context.Context, userID *uuid.UUID, params pagination.Params) ([]models.Payout, string, error) {
	out := []models.Payout{}
	for _, payout := range f.created {
		if userID == nil || payout.UserID == *userID {
			out = append(out, *payout)
		}
	}
	return out, "", nil
}

type fakePublisher struct {
	events []outbox.DomainEvent
}

func (f *fakePublisher) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	f.events = append(f.events, event)
	return nil
}

func newService(t *testing.T) (Service, *fakeTx, *fakeWallets, *fakePayoutRepo, *fakePublisher) {
	t.Helper()
	tx := &fakeTx{}
	wallets := &fakeWallets{balances: map[uuid.UUID]int64{}, paidOut: map[uuid.UUID]int64{}}
	repo := &fakePayoutRepo{}
	publisher := &fakePublisher{}
	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
	svc, err := NewService(tx, repo, wallets, publisher, metrics.NewPayoutMetrics(nil), logg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, tx, wallets, repo, publisher
}

func TestProcessDebitsAndRecordsPayout(t *testing.T) {
	svc, _, wallets, repo, publisher := newService(t)
	manager := uuid.New()
	admin := uuid.New()
	wallets.balances[manager] = 600_00

	payout, err := svc.Process(context.Background(), ProcessInput{
		UserID:      manager,
		ProcessedBy: admin,
		AmountCents: 250_00,
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	if payout.Status != enums.PayoutStatusCompleted || payout.ProcessedAt == nil {
		t.Fatalf("unexpected payout state: %+v", payout)
	}
	if wallets.balances[manager] != 350_00 {
		t.Fatalf("expected balance 35000, got %d", wallets.balances[manager])
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected one payout row, got %d", len(repo.created))
	}
	if len(publisher.events) != 1 || publisher.events[0].EventType != enums.EventPayoutCompleted {
		t.Fatalf("expected payout_completed event, got %+v", publisher.events)
	}
}

func TestProcessInsufficientBalanceLeavesNoTrace(t *testing.T) {
	svc, tx, wallets, repo, publisher := newService(t)
	manager := uuid.New()
	wallets.balances[manager] = 300_00

	_, err := svc.Process(context.Background(), ProcessInput{
		UserID:      manager,
		ProcessedBy: uuid.New(),
		AmountCents: 500_00,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientBalance {
		t.Fatalf("expected insufficient balance, got %v", err)
	}
	if !tx.rolledBack {
		t.Fatal("expected transaction rollback")
	}
	if wallets.balances[manager] != 300_00 {
		t.Fatalf("balance must be untouched, got %d", wallets.balances[manager])
	}
	if len(repo.created) != 0 {
		t.Fatal("no payout row may exist after a failed debit")
	}
	if len(publisher.events) != 0 {
		t.Fatal("no event may be emitted after a failed debit")
	}
}

func TestProcessValidatesInput(t *testing.T) {
	svc, _, _, _, _ := newService(t)
	admin := uuid.New()

	cases := []ProcessInput{
		{UserID: uuid.Nil, ProcessedBy: admin, AmountCents: 100},
		{UserID: uuid.New(), ProcessedBy: uuid.Nil, AmountCents: 100},
		{UserID: uuid.New(), ProcessedBy: admin, AmountCents: 0},
		{UserID: uuid.New(), ProcessedBy: admin, AmountCents: -50},
	}
	for _, input := range cases {
		_, err := svc.Process(context.Background(), input)
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected validation error for %+v, got %v", input, err)
		}
	}
}

func TestListScopesToUser(t *testing.T) {
	svc, _, wallets, _, _ := newService(t)
	managerA := uuid.New()
	managerB := uuid.New()
	wallets.balances[managerA] = 1000_00
	wallets.balances[managerB] = 1000_00

	for _, user := range []uuid.UUID{managerA, managerA, managerB} {
		if _, err := svc.Process(context.Background(), ProcessInput{
			UserID:      user,
			ProcessedBy: uuid.New(),
			AmountCents: 100_00,
		}); err != nil {
			t.Fatalf("process: %v", err)
		}
	}

	rows, _, err := svc.List(context.Background(), &managerA, pagination.Params{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected two payouts for manager a, got %d", len(rows))
	}
}
