package shopsync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/meridianops/stockroute-backend/internal/allocation"
	"github.com/meridianops/stockroute-backend/pkg/db/models"
	pkgerrors "github.com/meridianops/stockroute-backend/pkg/errors"
	"github.com/meridianops/stockroute-backend/pkg/logger"
	"github.com/meridianops/stockroute-backend/pkg/metrics"
)

// Service pushes computed allocations into per-shop inventory views.
type Service interface {
	SyncShop(ctx context.Context, shopID string) (*SyncResult, error)
	SyncAll(ctx context.Context) ([]SyncResult, error)
}

type itemSource interface {
	ListRoutedToShop(ctx context.Context, shopID string) ([]models.CentralInventoryItem, error)
}

type shopStore interface {
	FindShopItem(ctx context.Context, shopID string, centralItemID uuid.UUID) (*models.ShopInventoryItem, error)
	SaveShopItem(ctx context.Context, item *models.ShopInventoryItem) error
	DeleteStale(ctx context.Context, shopID string, keep []uuid.UUID) (int64, error)
	RecordSyncRun(ctx context.Context, run *models.SyncRun) error
}

type shopDirectory interface {
	ListShopIDs(ctx context.Context) ([]string, error)
}

type service struct {
	items   itemSource
	store   shopStore
	shops   shopDirectory
	locker  Locker
	metrics *metrics.SyncMetrics
	logg    *logger.Logger
}

// NewService constructs the sync service. The locker is optional; without it
// passes run unserialized, which is only acceptable in single-worker setups.
func NewService(items itemSource, store shopStore, shops shopDirectory, locker Locker, m *metrics.SyncMetrics, logg *logger.Logger) (Service, error) {
	if items == nil {
		return nil, fmt.Errorf("item source required")
	}
	if store == nil {
		return nil, fmt.Errorf("shop store required")
	}
	if shops == nil {
		return nil, fmt.Errorf("shop directory required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		items:   items,
		store:   store,
		shops:   shops,
		locker:  locker,
		metrics: m,
		logg:    logg,
	}, nil
}

// SyncShop recomputes allocations for every item routed to the shop and writes
// them into the shop view. One failed item never aborts the pass: it is
// recorded in the result and the pass moves on. Rows for items no longer
// routed to the shop are pruned.
func (s *service) SyncShop(ctx context.Context, shopID string) (*SyncResult, error) {
	if strings.TrimSpace(shopID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shop_id is required")
	}
	ctx = s.logg.WithShopID(ctx, shopID)

	if s.locker != nil {
		acquired, err := s.locker.Acquire(ctx, shopID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis: acquire sync lock")
		}
		if !acquired {
			return nil, pkgerrors.New(pkgerrors.CodeLocked,
				fmt.Sprintf("sync already in progress for shop %q", shopID))
		}
		defer func() {
			if err := s.locker.Release(ctx, shopID); err != nil {
				s.logg.Error(ctx, "release sync lock", err)
			}
		}()
	}

	result, err := s.runPass(ctx, shopID)
	if err != nil {
		s.metrics.IncFailure(shopID)
		return nil, err
	}

	s.metrics.ObserveDuration(shopID, result.FinishedAt.Sub(result.StartedAt))
	s.metrics.AddItems(shopID, "updated", result.Updated)
	s.metrics.AddItems(shopID, "unchanged", result.Unchanged)
	s.metrics.AddItems(shopID, "failed", result.Failed)

	if err := s.recordRun(ctx, result); err != nil {
		// The pass itself succeeded; a lost audit row is not worth failing it.
		s.logg.Error(ctx, "record sync run", err)
	}
	return result, nil
}

func (s *service) runPass(ctx context.Context, shopID string) (*SyncResult, error) {
	result := &SyncResult{ShopID: shopID, StartedAt: time.Now().UTC()}

	items, err := s.items.ListRoutedToShop(ctx, shopID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list routed items")
	}

	keep := make([]uuid.UUID, 0, len(items))
	for i := range items {
		item := &items[i]
		keep = append(keep, item.ID)

		qty := s.allocationFor(ctx, item, shopID)
		s.logg.Debug(s.logg.WithFields(ctx, map[string]any{"sku": item.SKU, "allocated": qty}), "allocation computed")
		if err := s.writeShopItem(ctx, shopID, item, qty, result); err != nil {
			result.Failed++
			result.Failures = append(result.Failures, ItemFailure{
				CentralItemID: item.ID,
				SKU:           item.SKU,
				Message:       err.Error(),
			})
			s.logg.Error(s.logg.WithSKU(ctx, item.SKU), "write shop item", err)
		}
	}

	removed, err := s.store.DeleteStale(ctx, shopID, keep)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: prune stale shop items")
	}
	result.Removed = int(removed)
	result.FinishedAt = time.Now().UTC()
	return result, nil
}

// allocationFor recomputes the full allocation for the item and extracts this
// shop's share.
func (s *service) allocationFor(ctx context.Context, item *models.CentralInventoryItem, shopID string) int {
	routings := make([]allocation.Routing, 0, len(item.Routings))
	for _, r := range item.Routings {
		routings = append(routings, allocation.Routing{
			ShopID:   r.ShopID,
			Mode:     r.AllocationMode,
			Percent:  r.AllocatedPercent,
			Fixed:    r.AllocatedFixed,
			Position: r.Position,
		})
	}

	computed := allocation.Allocate(item.Quantity, routings)
	for _, warning := range computed.Warnings {
		s.logg.Warn(s.logg.WithSKU(ctx, item.SKU), "allocation degraded: "+warning)
	}
	for _, a := range computed.Allocations {
		if a.ShopID == shopID {
			return a.Quantity
		}
	}
	return 0
}

func (s *service) writeShopItem(ctx context.Context, shopID string, item *models.CentralInventoryItem, qty int, result *SyncResult) error {
	existing, err := s.store.FindShopItem(ctx, shopID, item.ID)
	if err != nil && !isNotFound(err) {
		return err
	}

	if existing != nil && existing.AllocatedQty == qty && existing.SKU == item.SKU {
		result.Unchanged++
		return nil
	}

	row := &models.ShopInventoryItem{
		ShopID:            shopID,
		CentralItemID:     item.ID,
		SKU:               item.SKU,
		VariantAttributes: item.VariantAttributes,
		AllocatedQty:      qty,
	}
	if err := s.store.SaveShopItem(ctx, row); err != nil {
		return err
	}
	result.Updated++
	return nil
}

// SyncAll runs a pass for every shop with at least one routing. Shops that are
// already locked by another worker are skipped; other failures are collected
// and returned together, after every shop has had its turn.
func (s *service) SyncAll(ctx context.Context) ([]SyncResult, error) {
	shopIDs, err := s.shops.ListShopIDs(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list shops")
	}

	var (
		results []SyncResult
		errs    error
	)
	for _, shopID := range shopIDs {
		result, err := s.SyncShop(ctx, shopID)
		if err != nil {
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeLocked {
				s.logg.Warn(s.logg.WithShopID(ctx, shopID), "shop locked by another worker, skipping")
				continue
			}
			errs = multierr.Append(errs, fmt.Errorf("shop %s: %w", shopID, err))
			continue
		}
		results = append(results, *result)
	}
	return results, errs
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func (s *service) recordRun(ctx context.Context, result *SyncResult) error {
	failedSKUs := make([]string, 0, len(result.Failures))
	for _, f := range result.Failures {
		failedSKUs = append(failedSKUs, f.SKU)
	}
	return s.store.RecordSyncRun(ctx, &models.SyncRun{
		ShopID:     result.ShopID,
		Updated:    result.Updated,
		Unchanged:  result.Unchanged,
		Failed:     result.Failed,
		Removed:    result.Removed,
		FailedSKUs: failedSKUs,
		StartedAt:  result.StartedAt,
		FinishedAt: result.FinishedAt,
	})
}
