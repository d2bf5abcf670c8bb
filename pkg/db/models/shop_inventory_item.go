package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/meridianops/stockroute-backend/pkg/db/types"
)

// ShopInventoryItem is the shop-local inventory view storefront read paths
// consume. Rows are derived cache data, always regenerable from the central
// item plus its routings.
type ShopInventoryItem struct {
	ShopID            string               `gorm:"column:shop_id;primaryKey"`
	CentralItemID     uuid.UUID            `gorm:"column:central_item_id;type:uuid;primaryKey"`
	SKU               string               `gorm:"column:sku;not null"`
	VariantAttributes dbtypes.AttributeMap `gorm:"column:variant_attributes;type:jsonb"`
	AllocatedQty      int                  `gorm:"column:allocated_qty;not null;default:0"`
	UpdatedAt         time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides GORM's pluralization.
func (ShopInventoryItem) TableName() string {
	return "shop_inventory_items"
}
