package payouts

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/salesdeskhq/salesdesk-backend/internal/wallet"
	"github.com/salesdeskhq/salesdesk-backend/pkg/db/models"
	"github.com/salesdeskhq/salesdesk-backend/pkg/enums"
	pkgerrors "github.com/salesdeskhq/salesdesk-backend/pkg/errors"
	"github.com/salesdeskhq/salesdesk-backend/pkg/logger"
	"github.com/salesdeskhq/salesdesk-backend/pkg/metrics"
	"github.com/salesdeskhq/salesdesk-backend/pkg/outbox"
	"github.com/salesdeskhq/salesdesk-backend/pkg/outbox/payloads"
	"github.com/salesdeskhq/salesdesk-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// ProcessInput is the admin payload for paying out a manager.
type ProcessInput struct {
	UserID      uuid.UUID
	ProcessedBy uuid.UUID
	AmountCents int64
	Notes       *string
}

// Service moves money out of wallets with an audit row per movement.
type Service interface {
	Process(ctx context.Context, input ProcessInput) (*models.Payout, error)
	List(ctx context.Context, userID *uuid.UUID, params pagination.Params) ([]models.Payout, string, error)
}

type service struct {
	tx        txRunner
	repo      Repository
	wallets   wallet.Repository
	publisher outboxPublisher
	metrics   *metrics.PayoutMetrics
	logg      *logger.Logger
}

// NewService builds the payout service.
func NewService(tx txRunner, repo Repository, wallets wallet.Repository, publisher outboxPublisher, payoutMetrics *metrics.PayoutMetrics, logg *logger.Logger) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("payout repository required")
	}
	if wallets == nil {
		return nil, fmt.Errorf("wallet repository required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{tx: tx, repo: repo, wallets: wallets, publisher: publisher, metrics: payoutMetrics, logg: logg}, nil
}

// Process debits the wallet and writes the completed payout row in one
// transaction. The wallet guard carries the balance check, so a short
// balance aborts before anything persists.
func (s *service) Process(ctx context.Context, input ProcessInput) (*models.Payout, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if input.ProcessedBy == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "processing admin id required")
	}
	if input.AmountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payout amount must be positive")
	}

	var payout *models.Payout
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		walletRepo := s.wallets.WithTx(tx)
		payoutRepo := s.repo.WithTx(tx)

		if err := walletRepo.Debit(ctx, input.UserID, input.AmountCents); err != nil {
			return err
		}

		now := time.Now()
		payout = &models.Payout{
			UserID:      input.UserID,
			ProcessedBy: input.ProcessedBy,
			AmountCents: input.AmountCents,
			Status:      enums.PayoutStatusCompleted,
			Notes:       input.Notes,
			ProcessedAt: &now,
		}
		if err := payoutRepo.Create(ctx, payout); err != nil {
			return err
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventPayoutCompleted,
			AggregateType: enums.AggregatePayout,
			AggregateID:   payout.ID,
			Actor:         &outbox.ActorRef{UserID: input.ProcessedBy, Role: string(enums.UserRoleAdmin)},
			Data: payloads.PayoutCompletedEvent{
				PayoutID:    payout.ID,
				UserID:      payout.UserID,
				ProcessedBy: payout.ProcessedBy,
				AmountCents: payout.AmountCents,
				Status:      payout.Status,
				ProcessedAt: now,
			},
		}
		return s.publisher.Emit(ctx, tx, event)
	})
	if err != nil {
		code := string(pkgerrors.CodeInternal)
		if typed := pkgerrors.As(err); typed != nil {
			code = string(typed.Code())
		}
		s.metrics.IncFailure(code)
		return nil, err
	}
	s.metrics.IncCompleted(payout.AmountCents)

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"payout_id":    payout.ID.String(),
		"user_id":      payout.UserID.String(),
		"amount_cents": payout.AmountCents,
	})
	s.logg.Info(logCtx, "payout completed")
	return payout, nil
}

func (s *service) List(ctx context.Context, userID *uuid.UUID, params pagination.Params) ([]models.Payout, string, error) {
	return s.repo.List(ctx, userID, params)
}
