package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/salesdeskhq/salesdesk-backend/api/responses"
	walletsvc "github.com/salesdeskhq/salesdesk-backend/internal/wallet"
	"github.com/salesdeskhq/salesdesk-backend/pkg/db/models"
	pkgerrors "github.com/salesdeskhq/salesdesk-backend/pkg/errors"
	"github.com/salesdeskhq/salesdesk-backend/pkg/logger"
)

// GetOwnWallet returns the authenticated manager's wallet.
func GetOwnWallet(svc walletsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wallet service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		wallet, err := svc.GetOwnWallet(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newWalletResponse(wallet))
	}
}

// GetWalletByUser is the admin view of any manager's wallet.
func GetWalletByUser(svc walletsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wallet service unavailable"))
			return
		}

		userID, err := pathUUID(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		wallet, err := svc.GetWalletByUser(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newWalletResponse(wallet))
	}
}

type walletResponse struct {
	UserID            uuid.UUID `json:"user_id"`
	BalanceCents      int64     `json:"balance_cents"`
	TotalEarnedCents  int64     `json:"total_earned_cents"`
	TotalPaidOutCents int64     `json:"total_paid_out_cents"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func newWalletResponse(wallet *models.Wallet) walletResponse {
	return walletResponse{
		UserID:            wallet.UserID,
		BalanceCents:      wallet.BalanceCents,
		TotalEarnedCents:  wallet.TotalEarnedCents,
		TotalPaidOutCents: wallet.TotalPaidOutCents,
		UpdatedAt:         wallet.UpdatedAt,
	}
}
