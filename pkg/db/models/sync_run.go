package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// SyncRun records the outcome of one shop inventory sync pass so operators
// can see which items failed and retry them.
type SyncRun struct {
	ID         uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ShopID     string         `gorm:"column:shop_id;not null;index"`
	Updated    int            `gorm:"column:updated;not null;default:0"`
	Unchanged  int            `gorm:"column:unchanged;not null;default:0"`
	Failed     int            `gorm:"column:failed;not null;default:0"`
	Removed    int            `gorm:"column:removed;not null;default:0"`
	FailedSKUs pq.StringArray `gorm:"column:failed_skus;type:text[]"`
	StartedAt  time.Time      `gorm:"column:started_at;not null"`
	FinishedAt time.Time      `gorm:"column:finished_at;not null"`
}

// TableName overrides GORM's pluralization.
func (SyncRun) TableName() string {
	return "sync_runs"
}
