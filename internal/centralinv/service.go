package centralinv

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/meridianops/stockroute-backend/pkg/db"
	"github.com/meridianops/stockroute-backend/pkg/db/models"
	dbtypes "github.com/meridianops/stockroute-backend/pkg/db/types"
	pkgerrors "github.com/meridianops/stockroute-backend/pkg/errors"
	"github.com/meridianops/stockroute-backend/pkg/logger"
)

// Service exposes source-of-truth stock management operations.
type Service interface {
	CreateItem(ctx context.Context, input CreateItemInput) (*ItemDTO, error)
	GetItem(ctx context.Context, id uuid.UUID) (*ItemDTO, error)
	FindBySKUVariant(ctx context.Context, sku string, attrs map[string]string) (*ItemDTO, error)
	AdjustQuantity(ctx context.Context, id uuid.UUID, delta int) (*ItemDTO, error)
	SetQuantity(ctx context.Context, id uuid.UUID, quantity int) (*ItemDTO, error)
	ListItems(ctx context.Context) ([]ItemDTO, error)
	Import(ctx context.Context, items []ImportItem) (*ImportResult, error)
}

type itemStore interface {
	CreateItem(ctx context.Context, item *models.CentralInventoryItem) error
	SaveItem(ctx context.Context, item *models.CentralInventoryItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.CentralInventoryItem, error)
	FindBySKUVariant(ctx context.Context, sku, variantKey string) (*models.CentralInventoryItem, error)
	ListItems(ctx context.Context) ([]models.CentralInventoryItem, error)
	AdjustQuantity(ctx context.Context, id uuid.UUID, delta int) (int64, error)
	SetQuantity(ctx context.Context, id uuid.UUID, quantity int) (int64, error)
}

type routingEnsurer interface {
	EnsureRouting(ctx context.Context, centralItemID uuid.UUID, shopID string) error
}

type service struct {
	store  itemStore
	router routingEnsurer
	logg   *logger.Logger
}

// NewService constructs the central inventory service. The routing ensurer is
// optional; without it, import rows requesting routeToShops are accepted with
// a warning instead of creating routings.
func NewService(store itemStore, router routingEnsurer, logg *logger.Logger) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("item store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{store: store, router: router, logg: logg}, nil
}

// CreateItem validates and inserts a new source-of-truth stock record.
func (s *service) CreateItem(ctx context.Context, input CreateItemInput) (*ItemDTO, error) {
	if err := validateItemInput(input.SKU, input.ProductID, input.Quantity, input.LowStockThreshold); err != nil {
		return nil, err
	}

	attrs := dbtypes.AttributeMap(input.VariantAttributes)
	existing, err := s.findBySKUVariant(ctx, input.SKU, attrs.Fingerprint())
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict,
			fmt.Sprintf("item with sku %q and matching variant attributes already exists", input.SKU))
	}

	item := &models.CentralInventoryItem{
		SKU:               input.SKU,
		ProductID:         input.ProductID,
		VariantKey:        attrs.Fingerprint(),
		VariantAttributes: attrs,
		Quantity:          input.Quantity,
		LowStockThreshold: input.LowStockThreshold,
	}
	if err := s.store.CreateItem(ctx, item); err != nil {
		if db.IsUniqueViolation(err, "idx_central_sku_variant") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err,
				fmt.Sprintf("item with sku %q and matching variant attributes already exists", input.SKU))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert central item")
	}
	return toItemDTO(item), nil
}

// GetItem returns the item or nil when it does not exist, so callers can
// distinguish absence from transport failures.
func (s *service) GetItem(ctx context.Context, id uuid.UUID) (*ItemDTO, error) {
	item, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load central item")
	}
	return toItemDTO(item), nil
}

// FindBySKUVariant returns the item matching the (sku, variant) identity or
// nil when absent.
func (s *service) FindBySKUVariant(ctx context.Context, sku string, attrs map[string]string) (*ItemDTO, error) {
	item, err := s.findBySKUVariant(ctx, sku, dbtypes.AttributeMap(attrs).Fingerprint())
	if err != nil {
		return nil, err
	}
	return toItemDTO(item), nil
}

// AdjustQuantity applies a relative stock change through the store's atomic
// conditional update. A rejected update is disambiguated into NotFound versus
// a would-be negative quantity.
func (s *service) AdjustQuantity(ctx context.Context, id uuid.UUID, delta int) (*ItemDTO, error) {
	affected, err := s.store.AdjustQuantity(ctx, id, delta)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: adjust quantity")
	}
	if affected == 0 {
		item, err := s.store.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "central item not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load central item")
		}
		return nil, pkgerrors.New(pkgerrors.CodeInvariant,
			fmt.Sprintf("adjustment %d would drive quantity below zero (current %d)", delta, item.Quantity)).
			WithDetails(map[string]any{"quantity": item.Quantity, "delta": delta})
	}

	item, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: reload central item")
	}
	return toItemDTO(item), nil
}

// SetQuantity overwrites the absolute on-hand count.
func (s *service) SetQuantity(ctx context.Context, id uuid.UUID, quantity int) (*ItemDTO, error) {
	if quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be non-negative")
	}
	affected, err := s.store.SetQuantity(ctx, id, quantity)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: set quantity")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "central item not found")
	}

	item, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: reload central item")
	}
	return toItemDTO(item), nil
}

// ListItems returns every central item.
func (s *service) ListItems(ctx context.Context) ([]ItemDTO, error) {
	rows, err := s.store.ListItems(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list central items")
	}
	items := make([]ItemDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *toItemDTO(&rows[i]))
	}
	return items, nil
}

// Import upserts items row by row. One bad row never aborts the batch: failed
// rows are counted and reported, degraded rows surface as warnings.
func (s *service) Import(ctx context.Context, items []ImportItem) (*ImportResult, error) {
	result := &ImportResult{}

	for i, row := range items {
		rowNum := i + 1
		for _, note := range row.Notes {
			result.Warnings = append(result.Warnings, RowIssue{Row: rowNum, SKU: row.SKU, Message: note})
			s.logg.Warn(s.logg.WithSKU(ctx, row.SKU), "import row degraded: "+note)
		}

		created, err := s.importRow(ctx, row)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, RowIssue{Row: rowNum, SKU: row.SKU, Message: err.Error()})
			continue
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}

		for _, issue := range s.ensureRoutes(ctx, row, rowNum) {
			result.Warnings = append(result.Warnings, issue)
		}
	}

	return result, nil
}

func (s *service) importRow(ctx context.Context, row ImportItem) (created bool, err error) {
	if err := validateItemInput(row.SKU, row.ProductID, row.Quantity, row.LowStockThreshold); err != nil {
		return false, err
	}

	attrs := dbtypes.AttributeMap(row.VariantAttributes)
	existing, err := s.findBySKUVariant(ctx, row.SKU, attrs.Fingerprint())
	if err != nil {
		return false, err
	}

	if existing == nil {
		item := &models.CentralInventoryItem{
			SKU:               row.SKU,
			ProductID:         row.ProductID,
			VariantKey:        attrs.Fingerprint(),
			VariantAttributes: attrs,
			Quantity:          row.Quantity,
			LowStockThreshold: row.LowStockThreshold,
		}
		if err := s.store.CreateItem(ctx, item); err != nil {
			return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert central item")
		}
		return true, nil
	}

	existing.ProductID = row.ProductID
	existing.Quantity = row.Quantity
	existing.VariantAttributes = attrs
	if row.LowStockThreshold != nil {
		existing.LowStockThreshold = row.LowStockThreshold
	}
	if err := s.store.SaveItem(ctx, existing); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update central item")
	}
	return false, nil
}

func (s *service) ensureRoutes(ctx context.Context, row ImportItem, rowNum int) []RowIssue {
	if len(row.RouteToShops) == 0 {
		return nil
	}
	if s.router == nil {
		return []RowIssue{{Row: rowNum, SKU: row.SKU, Message: "routeToShops ignored: routing not configured"}}
	}

	attrs := dbtypes.AttributeMap(row.VariantAttributes)
	item, err := s.findBySKUVariant(ctx, row.SKU, attrs.Fingerprint())
	if err != nil || item == nil {
		return []RowIssue{{Row: rowNum, SKU: row.SKU, Message: "routeToShops skipped: item not found after upsert"}}
	}

	var issues []RowIssue
	for _, shopID := range row.RouteToShops {
		if err := s.router.EnsureRouting(ctx, item.ID, shopID); err != nil {
			issues = append(issues, RowIssue{
				Row: rowNum, SKU: row.SKU,
				Message: fmt.Sprintf("routing to shop %q failed: %v", shopID, err),
			})
		}
	}
	return issues
}

func (s *service) findBySKUVariant(ctx context.Context, sku, variantKey string) (*models.CentralInventoryItem, error) {
	item, err := s.store.FindBySKUVariant(ctx, sku, variantKey)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: lookup by sku/variant")
	}
	return item, nil
}

func validateItemInput(sku, productID string, quantity int, lowStock *int) error {
	if strings.TrimSpace(sku) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
	}
	if strings.TrimSpace(productID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product_id is required")
	}
	if quantity < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be non-negative")
	}
	if lowStock != nil && *lowStock < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "low_stock_threshold must be non-negative")
	}
	return nil
}
