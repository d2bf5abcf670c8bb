package routing

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/meridianops/stockroute-backend/pkg/db/models"
)

// Repository defines persistence operations for inventory routings.
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

// ItemExists reports whether the central item is known.
func (r *Repository) ItemExists(ctx context.Context, centralItemID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CentralInventoryItem{}).
		Where("id = ?", centralItemID).
		Count(&count).
		Error
	return count > 0, err
}

// FindByItemAndShop loads the routing for one (item, shop) pair.
func (r *Repository) FindByItemAndShop(ctx context.Context, centralItemID uuid.UUID, shopID string) (*models.InventoryRouting, error) {
	var routing models.InventoryRouting
	err := r.db.WithContext(ctx).
		First(&routing, "central_item_id = ? AND shop_id = ?", centralItemID, shopID).
		Error
	if err != nil {
		return nil, err
	}
	return &routing, nil
}

// CreateRouting inserts a new routing row.
func (r *Repository) CreateRouting(ctx context.Context, routing *models.InventoryRouting) error {
	return r.db.WithContext(ctx).Create(routing).Error
}

// SaveRouting persists all fields of an existing routing.
func (r *Repository) SaveRouting(ctx context.Context, routing *models.InventoryRouting) error {
	return r.db.WithContext(ctx).Save(routing).Error
}

// DeleteByItemAndShop removes the routing and reports whether a row existed.
func (r *Repository) DeleteByItemAndShop(ctx context.Context, centralItemID uuid.UUID, shopID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("central_item_id = ? AND shop_id = ?", centralItemID, shopID).
		Delete(&models.InventoryRouting{})
	return result.RowsAffected > 0, result.Error
}

// ListByItem returns the item's routings in position order.
func (r *Repository) ListByItem(ctx context.Context, centralItemID uuid.UUID) ([]models.InventoryRouting, error) {
	var rows []models.InventoryRouting
	err := r.db.WithContext(ctx).
		Where("central_item_id = ?", centralItemID).
		Order("position ASC").
		Find(&rows).
		Error
	return rows, err
}

// NextPosition returns one past the highest position for the item, so new
// routings always sort after existing ones.
func (r *Repository) NextPosition(ctx context.Context, centralItemID uuid.UUID) (int, error) {
	var max *int
	err := r.db.WithContext(ctx).
		Model(&models.InventoryRouting{}).
		Where("central_item_id = ?", centralItemID).
		Select("MAX(position)").
		Scan(&max).
		Error
	if err != nil {
		return 0, err
	}
	if max == nil {
		return 0, nil
	}
	return *max + 1, nil
}

// ListShopIDs returns the distinct shops that have at least one routing.
func (r *Repository) ListShopIDs(ctx context.Context) ([]string, error) {
	var shopIDs []string
	err := r.db.WithContext(ctx).
		Model(&models.InventoryRouting{}).
		Distinct("shop_id").
		Order("shop_id ASC").
		Pluck("shop_id", &shopIDs).
		Error
	return shopIDs, err
}
