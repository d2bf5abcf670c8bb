package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/meridianops/stockroute-backend/pkg/db/types"
)

// CentralInventoryItem is the single source-of-truth stock record for one
// SKU/variant, independent of any storefront. Identity is (sku, variant_key)
// where variant_key is the canonical fingerprint of the attribute map.
type CentralInventoryItem struct {
	ID                uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SKU               string               `gorm:"column:sku;not null;uniqueIndex:idx_central_sku_variant,priority:1"`
	ProductID         string               `gorm:"column:product_id;not null"`
	VariantKey        string               `gorm:"column:variant_key;not null;default:'';uniqueIndex:idx_central_sku_variant,priority:2"`
	VariantAttributes dbtypes.AttributeMap `gorm:"column:variant_attributes;type:jsonb"`
	Quantity          int                  `gorm:"column:quantity;not null;default:0"`
	LowStockThreshold *int                 `gorm:"column:low_stock_threshold"`
	Routings          []InventoryRouting   `gorm:"foreignKey:CentralItemID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides GORM's pluralization.
func (CentralInventoryItem) TableName() string {
	return "central_inventory_items"
}
