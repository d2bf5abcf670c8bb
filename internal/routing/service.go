package routing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/meridianops/stockroute-backend/pkg/db/models"
	"github.com/meridianops/stockroute-backend/pkg/enums"
	pkgerrors "github.com/meridianops/stockroute-backend/pkg/errors"
)

var oneHundred = decimal.NewFromInt(100)

// RoutingDTO is the read model returned to callers.
type RoutingDTO struct {
	ID               uuid.UUID            `json:"id"`
	CentralItemID    uuid.UUID            `json:"central_item_id"`
	ShopID           string               `json:"shop_id"`
	AllocationMode   enums.AllocationMode `json:"allocation_mode"`
	AllocatedPercent *decimal.Decimal     `json:"allocated_percent,omitempty"`
	AllocatedFixed   *int                 `json:"allocated_fixed,omitempty"`
	Position         int                  `json:"position"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

// AddRoutingInput holds the validated payload for a routing upsert.
type AddRoutingInput struct {
	ShopID           string
	AllocationMode   enums.AllocationMode
	AllocatedPercent *decimal.Decimal
	AllocatedFixed   *int
}

// Service manages shop subscriptions per central item.
type Service interface {
	AddRouting(ctx context.Context, centralItemID uuid.UUID, input AddRoutingInput) (*RoutingDTO, error)
	RemoveRouting(ctx context.Context, centralItemID uuid.UUID, shopID string) error
	ListRoutings(ctx context.Context, centralItemID uuid.UUID) ([]RoutingDTO, error)
	EnsureRouting(ctx context.Context, centralItemID uuid.UUID, shopID string) error
	ListShopIDs(ctx context.Context) ([]string, error)
}

type routingStore interface {
	ItemExists(ctx context.Context, centralItemID uuid.UUID) (bool, error)
	FindByItemAndShop(ctx context.Context, centralItemID uuid.UUID, shopID string) (*models.InventoryRouting, error)
	CreateRouting(ctx context.Context, routing *models.InventoryRouting) error
	SaveRouting(ctx context.Context, routing *models.InventoryRouting) error
	DeleteByItemAndShop(ctx context.Context, centralItemID uuid.UUID, shopID string) (bool, error)
	ListByItem(ctx context.Context, centralItemID uuid.UUID) ([]models.InventoryRouting, error)
	NextPosition(ctx context.Context, centralItemID uuid.UUID) (int, error)
	ListShopIDs(ctx context.Context) ([]string, error)
}

type service struct {
	store routingStore
}

// NewService constructs the routing service.
func NewService(store routingStore) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("routing store required")
	}
	return &service{store: store}, nil
}

// AddRouting upserts the routing for (centralItemID, shopID). Re-adding a
// routing for the same shop replaces the prior rule instead of duplicating it,
// keeping the routing's original position.
func (s *service) AddRouting(ctx context.Context, centralItemID uuid.UUID, input AddRoutingInput) (*RoutingDTO, error) {
	if err := validateRoutingInput(input); err != nil {
		return nil, err
	}

	exists, err := s.store.ItemExists(ctx, centralItemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: check central item")
	}
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "central item not found")
	}

	existing, err := s.findByItemAndShop(ctx, centralItemID, input.ShopID)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		existing.AllocationMode = input.AllocationMode
		existing.AllocatedPercent = input.AllocatedPercent
		existing.AllocatedFixed = input.AllocatedFixed
		if err := s.store.SaveRouting(ctx, existing); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update routing")
		}
		return toRoutingDTO(existing), nil
	}

	position, err := s.store.NextPosition(ctx, centralItemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: next routing position")
	}
	routing := &models.InventoryRouting{
		CentralItemID:    centralItemID,
		ShopID:           input.ShopID,
		AllocationMode:   input.AllocationMode,
		AllocatedPercent: input.AllocatedPercent,
		AllocatedFixed:   input.AllocatedFixed,
		Position:         position,
	}
	if err := s.store.CreateRouting(ctx, routing); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert routing")
	}
	return toRoutingDTO(routing), nil
}

// RemoveRouting deletes the routing; removing an absent routing is a no-op so
// retries stay safe.
func (s *service) RemoveRouting(ctx context.Context, centralItemID uuid.UUID, shopID string) error {
	if strings.TrimSpace(shopID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "shop_id is required")
	}
	if _, err := s.store.DeleteByItemAndShop(ctx, centralItemID, shopID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete routing")
	}
	return nil
}

// ListRoutings returns the item's routings in position order.
func (s *service) ListRoutings(ctx context.Context, centralItemID uuid.UUID) ([]RoutingDTO, error) {
	rows, err := s.store.ListByItem(ctx, centralItemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list routings")
	}
	out := make([]RoutingDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *toRoutingDTO(&rows[i]))
	}
	return out, nil
}

// EnsureRouting guarantees an all-mode subscription exists for the shop,
// leaving any existing rule for the pair untouched. Used by bulk import's
// routeToShops column.
func (s *service) EnsureRouting(ctx context.Context, centralItemID uuid.UUID, shopID string) error {
	if strings.TrimSpace(shopID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "shop_id is required")
	}

	existing, err := s.findByItemAndShop(ctx, centralItemID, shopID)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	_, err = s.AddRouting(ctx, centralItemID, AddRoutingInput{
		ShopID:         shopID,
		AllocationMode: enums.AllocationModeAll,
	})
	return err
}

// ListShopIDs returns every shop with at least one subscription.
func (s *service) ListShopIDs(ctx context.Context) ([]string, error) {
	shopIDs, err := s.store.ListShopIDs(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list shop ids")
	}
	return shopIDs, nil
}

func (s *service) findByItemAndShop(ctx context.Context, centralItemID uuid.UUID, shopID string) (*models.InventoryRouting, error) {
	routing, err := s.store.FindByItemAndShop(ctx, centralItemID, shopID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: lookup routing")
	}
	return routing, nil
}

func validateRoutingInput(input AddRoutingInput) error {
	if strings.TrimSpace(input.ShopID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "shop_id is required")
	}
	if !input.AllocationMode.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("allocation_mode must be one of all, percentage, fixed (got %q)", input.AllocationMode))
	}

	switch input.AllocationMode {
	case enums.AllocationModePercentage:
		if input.AllocatedPercent == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "allocated_percent is required for percentage mode")
		}
		if input.AllocatedPercent.IsNegative() || input.AllocatedPercent.GreaterThan(oneHundred) {
			return pkgerrors.New(pkgerrors.CodeValidation, "allocated_percent must be between 0 and 100")
		}
	case enums.AllocationModeFixed:
		if input.AllocatedFixed == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "allocated_fixed is required for fixed mode")
		}
		if *input.AllocatedFixed < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "allocated_fixed must be non-negative")
		}
	}
	return nil
}

func toRoutingDTO(routing *models.InventoryRouting) *RoutingDTO {
	if routing == nil {
		return nil
	}
	return &RoutingDTO{
		ID:               routing.ID,
		CentralItemID:    routing.CentralItemID,
		ShopID:           routing.ShopID,
		AllocationMode:   routing.AllocationMode,
		AllocatedPercent: routing.AllocatedPercent,
		AllocatedFixed:   routing.AllocatedFixed,
		Position:         routing.Position,
		CreatedAt:        routing.CreatedAt,
		UpdatedAt:        routing.UpdatedAt,
	}
}
