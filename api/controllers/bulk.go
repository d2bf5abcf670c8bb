package controllers

import (
	"net/http"

	"github.com/meridianops/stockroute-backend/api/responses"
	"github.com/meridianops/stockroute-backend/internal/bulk"
	pkgerrors "github.com/meridianops/stockroute-backend/pkg/errors"
	"github.com/meridianops/stockroute-backend/pkg/logger"
)

// ImportInventoryCSV ingests a CSV upload into central inventory.
func ImportInventoryCSV(svc bulk.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()

		result, err := svc.ImportCSV(r.Context(), r.Body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ExportInventoryCSV streams the central inventory as CSV.
func ExportInventoryCSV(svc bulk.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="central-inventory.csv"`)

		if err := svc.ExportCSV(r.Context(), w); err != nil {
			// Headers may already be out; log instead of switching to JSON mid-stream.
			logg.Error(r.Context(), "csv export failed", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "csv export"))
		}
	}
}
