package shopsync

import (
	"time"

	"github.com/google/uuid"
)

// ItemFailure describes one item that could not be pushed to the shop view.
type ItemFailure struct {
	CentralItemID uuid.UUID `json:"central_item_id"`
	SKU           string    `json:"sku"`
	Message       string    `json:"message"`
}

// SyncResult summarizes one sync pass for a shop. Failed counts items whose
// write failed; the pass itself still completes for the remaining items.
type SyncResult struct {
	ShopID     string        `json:"shop_id"`
	Updated    int           `json:"updated"`
	Unchanged  int           `json:"unchanged"`
	Removed    int           `json:"removed"`
	Failed     int           `json:"failed"`
	Failures   []ItemFailure `json:"failures,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
}
