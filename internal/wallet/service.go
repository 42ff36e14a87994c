package wallet

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/salesdeskhq/salesdesk-backend/pkg/db/models"
	"github.com/salesdeskhq/salesdesk-backend/pkg/logger"
)

// Service covers the wallet read paths. Credits and debits happen inside
// the checkout and payout transactions via Repository.WithTx, not here.
type Service interface {
	GetOwnWallet(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
	GetWalletByUser(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService wires the wallet service.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, errors.New("wallet repository is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &service{repo: repo, logg: logg}, nil
}

// GetOwnWallet provisions the wallet on first read so new managers see a
// zero balance instead of a 404.
func (s *service) GetOwnWallet(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	return s.repo.GetOrCreate(ctx, userID)
}

// GetWalletByUser is the admin view; a manager who never earned anything
// legitimately has no wallet yet.
func (s *service) GetWalletByUser(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	return s.repo.Get(ctx, userID)
}
