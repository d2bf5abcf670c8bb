package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/meridianops/stockroute-backend/api/responses"
	"github.com/meridianops/stockroute-backend/internal/shopsync"
	pkgerrors "github.com/meridianops/stockroute-backend/pkg/errors"
	"github.com/meridianops/stockroute-backend/pkg/logger"
)

// TriggerShopSync runs one sync pass for a single shop.
func TriggerShopSync(svc shopsync.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopID := strings.TrimSpace(chi.URLParam(r, "shopId"))
		if shopID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "shop id is required"))
			return
		}

		result, err := svc.SyncShop(r.Context(), shopID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// TriggerFullSync runs a sync pass for every routed shop.
func TriggerFullSync(svc shopsync.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results, err := svc.SyncAll(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "one or more shops failed to sync"))
			return
		}
		responses.WriteSuccess(w, results)
	}
}
