package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/salesdeskhq/salesdesk-backend/api/responses"
	"github.com/salesdeskhq/salesdesk-backend/api/validators"
	payoutssvc "github.com/salesdeskhq/salesdesk-backend/internal/payouts"
	"github.com/salesdeskhq/salesdesk-backend/pkg/db/models"
	pkgerrors "github.com/salesdeskhq/salesdesk-backend/pkg/errors"
	"github.com/salesdeskhq/salesdesk-backend/pkg/logger"
	"github.com/salesdeskhq/salesdesk-backend/pkg/pagination"
)

// CreatePayout debits a manager's wallet and records the audit row.
func CreatePayout(svc payoutssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payout service unavailable"))
			return
		}

		adminID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createPayoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payout, err := svc.Process(r.Context(), payoutssvc.ProcessInput{
			UserID:      payload.UserID,
			ProcessedBy: adminID,
			AmountCents: payload.AmountCents,
			Notes:       payload.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newPayoutResponse(payout))
	}
}

// ListPayouts pages the payout audit log, optionally for one manager.
func ListPayouts(svc payoutssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payout service unavailable"))
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

		var userID *uuid.UUID
		if raw := r.URL.Query().Get("user_id"); raw != "" {
			parsed, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid user_id filter"))
				return
			}
			userID = &parsed
		}

		rows, next, err := svc.List(r.Context(), userID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]payoutResponse, 0, len(rows))
		for i := range rows {
			out = append(out, newPayoutResponse(&rows[i]))
		}
		responses.WriteSuccess(w, payoutListResponse{Payouts: out, NextCursor: next})
	}
}

type createPayoutRequest struct {
	UserID      uuid.UUID `json:"user_id" validate:"required"`
	AmountCents int64     `json:"amount_cents" validate:"required,gt=0"`
	Notes       *string   `json:"notes,omitempty" validate:"omitempty,max=500"`
}

type payoutListResponse struct {
	Payouts    []payoutResponse `json:"payouts"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

type payoutResponse struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	ProcessedBy uuid.UUID  `json:"processed_by"`
	AmountCents int64      `json:"amount_cents"`
	Status      string     `json:"status"`
	Notes       *string    `json:"notes,omitempty"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func newPayoutResponse(payout *models.Payout) payoutResponse {
	return payoutResponse{
		ID:          payout.ID,
		UserID:      payout.UserID,
		ProcessedBy: payout.ProcessedBy,
		AmountCents: payout.AmountCents,
		Status:      string(payout.Status),
		Notes:       payout.Notes,
		ProcessedAt: payout.ProcessedAt,
		CreatedAt:   payout.CreatedAt,
	}
}
