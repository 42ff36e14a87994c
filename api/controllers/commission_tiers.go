package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/salesdeskhq/salesdesk-backend/api/responses"
	"github.com/salesdeskhq/salesdesk-backend/api/validators"
	commissionsvc "github.com/salesdeskhq/salesdesk-backend/internal/commission"
	"github.com/salesdeskhq/salesdesk-backend/pkg/db/models"
	pkgerrors "github.com/salesdeskhq/salesdesk-backend/pkg/errors"
	"github.com/salesdeskhq/salesdesk-backend/pkg/logger"
)

// ListCommissionTiers returns every tier, active or not.
func ListCommissionTiers(svc commissionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "commission service unavailable"))
			return
		}

		tiers, err := svc.ListTiers(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]tierResponse, 0, len(tiers))
		for i := range tiers {
			out = append(out, newTierResponse(&tiers[i]))
		}
		responses.WriteSuccess(w, tierListResponse{Tiers: out})
	}
}

// CreateCommissionTier adds a tier to the table.
func CreateCommissionTier(svc commissionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "commission service unavailable"))
			return
		}

		var payload createTierRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		tier, err := svc.CreateTier(r.Context(), commissionsvc.CreateTierInput{
			SalesThresholdCents:   payload.SalesThresholdCents,
			CommissionAmountCents: payload.CommissionAmountCents,
			Description:           payload.Description,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newTierResponse(tier))
	}
}

// UpdateCommissionTier patches the mutable fields of a tier.
func UpdateCommissionTier(svc commissionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "commission service unavailable"))
			return
		}

		id, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateTierRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		tier, err := svc.UpdateTier(r.Context(), id, commissionsvc.UpdateTierInput{
			SalesThresholdCents:   payload.SalesThresholdCents,
			CommissionAmountCents: payload.CommissionAmountCents,
			Description:           payload.Description,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newTierResponse(tier))
	}
}

// ToggleCommissionTier flips a tier's active flag; tiers are never deleted.
func ToggleCommissionTier(svc commissionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "commission service unavailable"))
			return
		}

		id, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		tier, err := svc.ToggleTier(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newTierResponse(tier))
	}
}

type createTierRequest struct {
	SalesThresholdCents   int64   `json:"sales_threshold_cents" validate:"required,gt=0"`
	CommissionAmountCents int64   `json:"commission_amount_cents" validate:"gte=0"`
	Description           *string `json:"description,omitempty" validate:"omitempty,max=500"`
}

type updateTierRequest struct {
	SalesThresholdCents   *int64  `json:"sales_threshold_cents,omitempty" validate:"omitempty,gt=0"`
	CommissionAmountCents *int64  `json:"commission_amount_cents,omitempty" validate:"omitempty,gte=0"`
	Description           *string `json:"description,omitempty" validate:"omitempty,max=500"`
}

type tierListResponse struct {
	Tiers []tierResponse `json:"tiers"`
}

type tierResponse struct {
	ID                    uuid.UUID `json:"id"`
	SalesThresholdCents   int64     `json:"sales_threshold_cents"`
	CommissionAmountCents int64     `json:"commission_amount_cents"`
	Description           *string   `json:"description,omitempty"`
	IsActive              bool      `json:"is_active"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

func newTierResponse(tier *models.CommissionTier) tierResponse {
	return tierResponse{
		ID:                    tier.ID,
		SalesThresholdCents:   tier.SalesThresholdCents,
		CommissionAmountCents: tier.CommissionAmountCents,
		Description:           tier.Description,
		IsActive:              tier.IsActive,
		CreatedAt:             tier.CreatedAt,
		UpdatedAt:             tier.UpdatedAt,
	}
}
