package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/salesdeskhq/salesdesk-backend/api/responses"
	"github.com/salesdeskhq/salesdesk-backend/api/validators"
	productssvc "github.com/salesdeskhq/salesdesk-backend/internal/products"
	"github.com/salesdeskhq/salesdesk-backend/pkg/db/models"
	pkgerrors "github.com/salesdeskhq/salesdesk-backend/pkg/errors"
	"github.com/salesdeskhq/salesdesk-backend/pkg/logger"
)

// ListProducts returns the catalog; ?active=1 filters to live listings.
func ListProducts(svc productssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		activeOnly := r.URL.Query().Get("active") == "1"
		rows, err := svc.List(r.Context(), activeOnly)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]productResponse, 0, len(rows))
		for i := range rows {
			out = append(out, newProductResponse(&rows[i]))
		}
		responses.WriteSuccess(w, productListResponse{Products: out})
	}
}

// CreateProduct adds a listing with its opening stock count.
func CreateProduct(svc productssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Create(r.Context(), productssvc.CreateProductInput{
			SKU:                payload.SKU,
			Title:              payload.Title,
			CostPriceCents:     payload.CostPriceCents,
			SellingPriceCents:  payload.SellingPriceCents,
			DiscountPriceCents: payload.DiscountPriceCents,
			LowStockThreshold:  payload.LowStockThreshold,
			InitialQty:         payload.InitialQty,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newProductResponse(product))
	}
}

// UpdateProduct patches the mutable listing fields.
func UpdateProduct(svc productssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		id, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Update(r.Context(), id, productssvc.UpdateProductInput{
			SKU:                payload.SKU,
			Title:              payload.Title,
			CostPriceCents:     payload.CostPriceCents,
			SellingPriceCents:  payload.SellingPriceCents,
			DiscountPriceCents: payload.DiscountPriceCents,
			ClearDiscount:      payload.ClearDiscount,
			LowStockThreshold:  payload.LowStockThreshold,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newProductResponse(product))
	}
}

// DeactivateProduct hides the listing from checkout without deleting it.
func DeactivateProduct(svc productssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		id, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Deactivate(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deactivated"})
	}
}

// SetProductInventory overwrites the on-hand count after a physical count.
func SetProductInventory(svc productssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		id, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload setInventoryRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.SetInventory(r.Context(), id, payload.OnHandQty)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newProductResponse(product))
	}
}

type createProductRequest struct {
	SKU                string `json:"sku" validate:"required,max=100"`
	Title              string `json:"title" validate:"required,max=255"`
	CostPriceCents     int64  `json:"cost_price_cents" validate:"gte=0"`
	SellingPriceCents  int64  `json:"selling_price_cents" validate:"required,gt=0"`
	DiscountPriceCents *int64 `json:"discount_price_cents,omitempty" validate:"omitempty,gt=0"`
	LowStockThreshold  int    `json:"low_stock_threshold" validate:"gte=0"`
	InitialQty         int    `json:"initial_qty" validate:"gte=0"`
}

type updateProductRequest struct {
	SKU                *string `json:"sku,omitempty" validate:"omitempty,max=100"`
	Title              *string `json:"title,omitempty" validate:"omitempty,max=255"`
	CostPriceCents     *int64  `json:"cost_price_cents,omitempty" validate:"omitempty,gte=0"`
	SellingPriceCents  *int64  `json:"selling_price_cents,omitempty" validate:"omitempty,gt=0"`
	DiscountPriceCents *int64  `json:"discount_price_cents,omitempty" validate:"omitempty,gt=0"`
	ClearDiscount      bool    `json:"clear_discount,omitempty"`
	LowStockThreshold  *int    `json:"low_stock_threshold,omitempty" validate:"omitempty,gte=0"`
}

type setInventoryRequest struct {
	OnHandQty int `json:"on_hand_qty" validate:"gte=0"`
}

type productListResponse struct {
	Products []productResponse `json:"products"`
}

type productResponse struct {
	ID                 uuid.UUID `json:"id"`
	SKU                string    `json:"sku"`
	Title              string    `json:"title"`
	CostPriceCents     int64     `json:"cost_price_cents"`
	SellingPriceCents  int64     `json:"selling_price_cents"`
	DiscountPriceCents *int64    `json:"discount_price_cents,omitempty"`
	FloorPriceCents    int64     `json:"floor_price_cents"`
	LowStockThreshold  int       `json:"low_stock_threshold"`
	OnHandQty          int       `json:"on_hand_qty"`
	IsActive           bool      `json:"is_active"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func newProductResponse(product *models.Product) productResponse {
	onHand := 0
	if product.Inventory != nil {
		onHand = product.Inventory.OnHandQty
	}
	return productResponse{
		ID:                 product.ID,
		SKU:                product.SKU,
		Title:              product.Title,
		CostPriceCents:     product.CostPriceCents,
		SellingPriceCents:  product.SellingPriceCents,
		DiscountPriceCents: product.DiscountPriceCents,
		FloorPriceCents:    product.FloorPriceCents(),
		LowStockThreshold:  product.LowStockThreshold,
		OnHandQty:          onHand,
		IsActive:           product.IsActive,
		CreatedAt:          product.CreatedAt,
		UpdatedAt:          product.UpdatedAt,
	}
}
