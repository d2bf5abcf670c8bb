package centralinv

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/meridianops/stockroute-backend/pkg/db/models"
)

// Repository defines persistence operations for central inventory items.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// CreateItem inserts a new central item row.
func (r *Repository) CreateItem(ctx context.Context, item *models.CentralInventoryItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// SaveItem persists all fields of an existing item.
func (r *Repository) SaveItem(ctx context.Context, item *models.CentralInventoryItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

// FindByID loads the item without associations.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.CentralInventoryItem, error) {
	var item models.CentralInventoryItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// FindBySKUVariant looks an item up by its (sku, variant fingerprint) identity.
func (r *Repository) FindBySKUVariant(ctx context.Context, sku, variantKey string) (*models.CentralInventoryItem, error) {
	var item models.CentralInventoryItem
	err := r.db.WithContext(ctx).
		First(&item, "sku = ? AND variant_key = ?", sku, variantKey).
		Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// ListItems returns every central item ordered by SKU for stable exports.
func (r *Repository) ListItems(ctx context.Context) ([]models.CentralInventoryItem, error) {
	var rows []models.CentralInventoryItem
	err := r.db.WithContext(ctx).
		Order("sku ASC").
		Order("variant_key ASC").
		Find(&rows).
		Error
	return rows, err
}

// ListRoutedToShop returns every item with at least one routing to the shop,
// with all of each item's routings preloaded in position order so allocations
// can be recomputed in full.
func (r *Repository) ListRoutedToShop(ctx context.Context, shopID string) ([]models.CentralInventoryItem, error) {
	var rows []models.CentralInventoryItem
	err := r.db.WithContext(ctx).
		Preload("Routings", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("id IN (?)", r.db.
			Model(&models.InventoryRouting{}).
			Select("central_item_id").
			Where("shop_id = ?", shopID),
		).
		Order("sku ASC").
		Find(&rows).
		Error
	return rows, err
}

// AdjustQuantity applies a relative quantity change as one conditional UPDATE.
// The guard clause makes the read-modify-write atomic at the storage layer:
// the row is only touched when the resulting quantity stays non-negative.
// Returns the number of affected rows (0 means unknown id or guard rejection).
func (r *Repository) AdjustQuantity(ctx context.Context, id uuid.UUID, delta int) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.CentralInventoryItem{}).
		Where("id = ? AND quantity + ? >= 0", id, delta).
		Update("quantity", gorm.Expr("quantity + ?", delta))
	return result.RowsAffected, result.Error
}

// SetQuantity overwrites the absolute quantity. Returns affected rows
// (0 means unknown id).
func (r *Repository) SetQuantity(ctx context.Context, id uuid.UUID, quantity int) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.CentralInventoryItem{}).
		Where("id = ?", id).
		Update("quantity", quantity)
	return result.RowsAffected, result.Error
}
