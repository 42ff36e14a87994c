package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/salesdeskhq/salesdesk-backend/api/responses"
	"github.com/salesdeskhq/salesdesk-backend/api/validators"
	salessvc "github.com/salesdeskhq/salesdesk-backend/internal/sales"
	"github.com/salesdeskhq/salesdesk-backend/pkg/db/models"
	pkgerrors "github.com/salesdeskhq/salesdesk-backend/pkg/errors"
	"github.com/salesdeskhq/salesdesk-backend/pkg/logger"
	"github.com/salesdeskhq/salesdesk-backend/pkg/pagination"
)

// ListOwnSales pages through the authenticated manager's sale history.
func ListOwnSales(svc salessvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sales service unavailable"))
			return
		}

		managerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		}

		rows, next, err := svc.ListOwnSales(r.Context(), managerID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]saleResponse, 0, len(rows))
		for _, sale := range rows {
			out = append(out, newSaleResponse(sale))
		}
		responses.WriteSuccess(w, saleListResponse{Sales: out, NextCursor: next})
	}
}

type saleListResponse struct {
	Sales      []saleResponse `json:"sales"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

type saleResponse struct {
	ID               uuid.UUID          `json:"id"`
	TotalAmountCents int64              `json:"total_amount_cents"`
	Items            []saleItemResponse `json:"items"`
	CreatedAt        time.Time          `json:"created_at"`
}

type saleItemResponse struct {
	ProductID       uuid.UUID `json:"product_id"`
	Quantity        int       `json:"quantity"`
	UnitPriceCents  int64     `json:"unit_price_cents"`
	TotalPriceCents int64     `json:"total_price_cents"`
}

func newSaleResponse(sale models.Sale) saleResponse {
	items := make([]saleItemResponse, 0, len(sale.Items))
	for _, item := range sale.Items {
		items = append(items, saleItemResponse{
			ProductID:       item.ProductID,
			Quantity:        item.Quantity,
			UnitPriceCents:  item.UnitPriceCents,
			TotalPriceCents: item.TotalPriceCents,
		})
	}
	return saleResponse{
		ID:               sale.ID,
		TotalAmountCents: sale.TotalAmountCents,
		Items:            items,
		CreatedAt:        sale.CreatedAt,
	}
}
