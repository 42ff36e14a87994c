package sales

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/salesdeskhq/salesdesk-backend/pkg/db/models"
	"github.com/salesdeskhq/salesdesk-backend/pkg/logger"
	"github.com/salesdeskhq/salesdesk-backend/pkg/pagination"
)

// Service exposes the sale read paths. Writes only happen through the
// checkout transaction.
type Service interface {
	ListOwnSales(ctx context.Context, managerID uuid.UUID, params pagination.Params) ([]models.Sale, string, error)
	GetSale(ctx context.Context, id uuid.UUID) (*models.Sale, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService wires the sales service.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, errors.New("sales repository is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) ListOwnSales(ctx context.Context, managerID uuid.UUID, params pagination.Params) ([]models.Sale, string, error) {
	return s.repo.ListByManager(ctx, managerID, params)
}

func (s *service) GetSale(ctx context.Context, id uuid.UUID) (*models.Sale, error) {
	return s.repo.GetByID(ctx, id)
}
