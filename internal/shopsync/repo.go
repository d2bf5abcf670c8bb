package shopsync

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/meridianops/stockroute-backend/pkg/db/models"
)

// Repository defines persistence operations for shop inventory views and sync
// run records.
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

// FindShopItem loads one shop-view row.
func (r *Repository) FindShopItem(ctx context.Context, shopID string, centralItemID uuid.UUID) (*models.ShopInventoryItem, error) {
	var item models.ShopInventoryItem
	err := r.db.WithContext(ctx).
		First(&item, "shop_id = ? AND central_item_id = ?", shopID, centralItemID).
		Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// SaveShopItem upserts the shop-view row on its composite key.
func (r *Repository) SaveShopItem(ctx context.Context, item *models.ShopInventoryItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

// DeleteStale removes shop rows whose central item is no longer routed to the
// shop. keep is the full set of currently routed item ids; an empty keep set
// clears the shop view. Returns the number of removed rows.
func (r *Repository) DeleteStale(ctx context.Context, shopID string, keep []uuid.UUID) (int64, error) {
	query := r.db.WithContext(ctx).Where("shop_id = ?", shopID)
	if len(keep) > 0 {
		query = query.Where("central_item_id NOT IN ?", keep)
	}
	result := query.Delete(&models.ShopInventoryItem{})
	return result.RowsAffected, result.Error
}

// RecordSyncRun persists the audit record for one sync pass.
func (r *Repository) RecordSyncRun(ctx context.Context, run *models.SyncRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}
