package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/salesdeskhq/salesdesk-backend/api/responses"
	"github.com/salesdeskhq/salesdesk-backend/api/validators"
	checkoutsvc "github.com/salesdeskhq/salesdesk-backend/internal/checkout"
	pkgerrors "github.com/salesdeskhq/salesdesk-backend/pkg/errors"
	"github.com/salesdeskhq/salesdesk-backend/pkg/logger"
)

// Checkout rings up the manager's cart as one atomic sale.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		managerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines := make([]checkoutsvc.Line, 0, len(payload.Items))
		for _, item := range payload.Items {
			lines = append(lines, checkoutsvc.Line{
				ProductID:      item.ProductID,
				Quantity:       item.Quantity,
				SalePriceCents: item.SalePriceCents,
			})
		}

		receipt, err := svc.Execute(r.Context(), managerID, lines)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, checkoutResponse{
			SaleID:                  receipt.SaleID,
			TotalAmountCents:        receipt.TotalAmountCents,
			CommissionCreditedCents: receipt.CommissionCreditedCents,
		})
	}
}

type checkoutRequest struct {
	Items []checkoutItemRequest `json:"items" validate:"required,min=1,dive"`
}

type checkoutItemRequest struct {
	ProductID      uuid.UUID `json:"product_id" validate:"required"`
	Quantity       int       `json:"quantity" validate:"required,gte=1"`
	SalePriceCents int64     `json:"sale_price_cents" validate:"required,gt=0"`
}

type checkoutResponse struct {
	SaleID                  uuid.UUID `json:"sale_id"`
	TotalAmountCents        int64     `json:"total_amount_cents"`
	CommissionCreditedCents int64     `json:"commission_credited_cents"`
}
