package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/meridianops/stockroute-backend/api/responses"
	"github.com/meridianops/stockroute-backend/api/validators"
	"github.com/meridianops/stockroute-backend/internal/centralinv"
	pkgerrors "github.com/meridianops/stockroute-backend/pkg/errors"
	"github.com/meridianops/stockroute-backend/pkg/logger"
)

const variantQueryPrefix = "variant."

type createItemRequest struct {
	SKU               string            `json:"sku" validate:"required"`
	ProductID         string            `json:"product_id" validate:"required"`
	VariantAttributes map[string]string `json:"variant_attributes,omitempty"`
	Quantity          int               `json:"quantity" validate:"min=0"`
	LowStockThreshold *int              `json:"low_stock_threshold,omitempty" validate:"omitempty,min=0"`
}

type adjustQuantityRequest struct {
	Delta int `json:"delta" validate:"required"`
}

type setQuantityRequest struct {
	Quantity int `json:"quantity" validate:"min=0"`
}

// CreateItem registers a new central inventory item.
func CreateItem(svc centralinv.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.CreateItem(r.Context(), centralinv.CreateItemInput{
			SKU:               strings.TrimSpace(payload.SKU),
			ProductID:         strings.TrimSpace(payload.ProductID),
			VariantAttributes: payload.VariantAttributes,
			Quantity:          payload.Quantity,
			LowStockThreshold: payload.LowStockThreshold,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

// ListItems returns the full central inventory.
func ListItems(svc centralinv.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListItems(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

// GetItem returns one item by id.
func GetItem(svc centralinv.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := itemIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.GetItem(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if item == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "central item not found"))
			return
		}
		responses.WriteSuccess(w, item)
	}
}

// LookupItem resolves an item by sku plus variant.<name> query parameters.
func LookupItem(svc centralinv.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sku := strings.TrimSpace(r.URL.Query().Get("sku"))
		if sku == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "sku query parameter is required"))
			return
		}

		attrs := map[string]string{}
		for key, values := range r.URL.Query() {
			if name, ok := strings.CutPrefix(key, variantQueryPrefix); ok && name != "" && len(values) > 0 {
				attrs[name] = values[0]
			}
		}

		item, err := svc.FindBySKUVariant(r.Context(), sku, attrs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if item == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "central item not found"))
			return
		}
		responses.WriteSuccess(w, item)
	}
}

// AdjustItemQuantity applies a relative stock change.
func AdjustItemQuantity(svc centralinv.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := itemIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload adjustQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.AdjustQuantity(r.Context(), id, payload.Delta)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

// SetItemQuantity overwrites the absolute stock count.
func SetItemQuantity(svc centralinv.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := itemIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload setQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.SetQuantity(r.Context(), id, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

func itemIDFromRequest(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "itemId")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item id")
	}
	return id, nil
}
