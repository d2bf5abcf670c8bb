package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/meridianops/stockroute-backend/api/responses"
	"github.com/meridianops/stockroute-backend/api/validators"
	"github.com/meridianops/stockroute-backend/internal/routing"
	"github.com/meridianops/stockroute-backend/pkg/enums"
	pkgerrors "github.com/meridianops/stockroute-backend/pkg/errors"
	"github.com/meridianops/stockroute-backend/pkg/logger"
)

type addRoutingRequest struct {
	ShopID           string   `json:"shop_id" validate:"required"`
	AllocationMode   string   `json:"allocation_mode" validate:"required,oneof=all percentage fixed"`
	AllocatedPercent *float64 `json:"allocated_percent,omitempty" validate:"omitempty,gte=0,lte=100"`
	AllocatedFixed   *int     `json:"allocated_fixed,omitempty" validate:"omitempty,min=0"`
}

// AddRouting upserts the shop routing for an item.
func AddRouting(svc routing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := itemIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addRoutingRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		mode, err := enums.ParseAllocationMode(strings.TrimSpace(payload.AllocationMode))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid allocation mode"))
			return
		}

		input := routing.AddRoutingInput{
			ShopID:         strings.TrimSpace(payload.ShopID),
			AllocationMode: mode,
			AllocatedFixed: payload.AllocatedFixed,
		}
		if payload.AllocatedPercent != nil {
			pct := decimal.NewFromFloat(*payload.AllocatedPercent)
			input.AllocatedPercent = &pct
		}

		dto, err := svc.AddRouting(r.Context(), itemID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// ListRoutings returns the item's routings in evaluation order.
func ListRoutings(svc routing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := itemIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		routings, err := svc.ListRoutings(r.Context(), itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, routings)
	}
}

// RemoveRouting unsubscribes a shop from an item.
func RemoveRouting(svc routing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := itemIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shopID := strings.TrimSpace(chi.URLParam(r, "shopId"))
		if err := svc.RemoveRouting(r.Context(), itemID, shopID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "removed"})
	}
}
