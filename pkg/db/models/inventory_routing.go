package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meridianops/stockroute-backend/pkg/enums"
)

// InventoryRouting subscribes one shop to a central item under a given
// allocation mode. One routing per (central_item_id, shop_id); re-adding
// replaces the prior rule. Position is the explicit tie-break order used by
// the allocation calculator.
type InventoryRouting struct {
	ID               uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CentralItemID    uuid.UUID            `gorm:"column:central_item_id;type:uuid;not null;uniqueIndex:idx_routing_item_shop,priority:1"`
	ShopID           string               `gorm:"column:shop_id;not null;uniqueIndex:idx_routing_item_shop,priority:2"`
	AllocationMode   enums.AllocationMode `gorm:"column:allocation_mode;type:allocation_mode;not null"`
	AllocatedPercent *decimal.Decimal     `gorm:"column:allocated_percent;type:numeric(5,2)"`
	AllocatedFixed   *int                 `gorm:"column:allocated_fixed"`
	Position         int                  `gorm:"column:position;not null;default:0"`
	CreatedAt        time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides GORM's pluralization.
func (InventoryRouting) TableName() string {
	return "inventory_routings"
}
