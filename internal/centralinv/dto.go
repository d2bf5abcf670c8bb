package centralinv

import (
	"time"

	"github.com/google/uuid"

	"github.com/meridianops/stockroute-backend/pkg/db/models"
)

// ItemDTO is the read model returned to callers.
type ItemDTO struct {
	ID                uuid.UUID         `json:"id"`
	SKU               string            `json:"sku"`
	ProductID         string            `json:"product_id"`
	VariantAttributes map[string]string `json:"variant_attributes"`
	Quantity          int               `json:"quantity"`
	LowStockThreshold *int              `json:"low_stock_threshold,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// CreateItemInput holds the validated payload to create a central item.
type CreateItemInput struct {
	SKU               string
	ProductID         string
	VariantAttributes map[string]string
	Quantity          int
	LowStockThreshold *int
}

// ImportItem is one bulk-import row. Notes carry parse degradations (for
// example a malformed quantity defaulted to zero) so the import result can
// surface them instead of losing data silently.
type ImportItem struct {
	SKU               string
	ProductID         string
	VariantAttributes map[string]string
	Quantity          int
	LowStockThreshold *int
	RouteToShops      []string
	Notes             []string
}

// RowIssue describes a problem with one import row.
type RowIssue struct {
	Row     int    `json:"row"`
	SKU     string `json:"sku,omitempty"`
	Message string `json:"message"`
}

// ImportResult aggregates the outcome of a bulk import. Warnings list rows
// that were accepted in degraded form; Errors list rows that were skipped.
type ImportResult struct {
	Created  int        `json:"created"`
	Updated  int        `json:"updated"`
	Failed   int        `json:"failed"`
	Errors   []RowIssue `json:"errors,omitempty"`
	Warnings []RowIssue `json:"warnings,omitempty"`
}

func toItemDTO(item *models.CentralInventoryItem) *ItemDTO {
	if item == nil {
		return nil
	}
	attrs := map[string]string{}
	for k, v := range item.VariantAttributes {
		attrs[k] = v
	}
	return &ItemDTO{
		ID:                item.ID,
		SKU:               item.SKU,
		ProductID:         item.ProductID,
		VariantAttributes: attrs,
		Quantity:          item.Quantity,
		LowStockThreshold: item.LowStockThreshold,
		CreatedAt:         item.CreatedAt,
		UpdatedAt:         item.UpdatedAt,
	}
}
