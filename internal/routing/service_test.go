package routing

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/meridianops/stockroute-backend/pkg/db/models"
	"github.com/meridianops/stockroute-backend/pkg/enums"
	pkgerrors "github.com/meridianops/stockroute-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:routing_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(&models.CentralInventoryItem{}, &models.InventoryRouting{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := newTestDB(t)
	svc, err := NewService(NewRepository(conn))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, conn
}

func seedItem(t *testing.T, conn *gorm.DB) uuid.UUID {
	t.Helper()
	item := &models.CentralInventoryItem{
		ID:        uuid.New(),
		SKU:       "SKU-" + uuid.NewString()[:8],
		ProductID: "prod-1",
		Quantity:  10,
	}
	if err := conn.Create(item).Error; err != nil {
		t.Fatalf("seed item: %v", err)
	}
	return item.ID
}

func percent(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func intPtr(v int) *int { return &v }

func TestAddRoutingValidation(t *testing.T) {
	t.Parallel()

	svc, conn := newTestService(t)
	itemID := seedItem(t, conn)
	ctx := context.Background()

	cases := []AddRoutingInput{
		{ShopID: "", AllocationMode: enums.AllocationModeAll},
		{ShopID: "shop-1", AllocationMode: enums.AllocationMode("weighted")},
		{ShopID: "shop-1", AllocationMode: enums.AllocationModePercentage},
		{ShopID: "shop-1", AllocationMode: enums.AllocationModePercentage, AllocatedPercent: percent("120")},
		{ShopID: "shop-1", AllocationMode: enums.AllocationModePercentage, AllocatedPercent: percent("-1")},
		{ShopID: "shop-1", AllocationMode: enums.AllocationModeFixed},
		{ShopID: "shop-1", AllocationMode: enums.AllocationModeFixed, AllocatedFixed: intPtr(-3)},
	}
	for i, input := range cases {
		_, err := svc.AddRouting(ctx, itemID, input)
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}
}

func TestAddRoutingUnknownItem(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	_, err := svc.AddRouting(context.Background(), uuid.New(), AddRoutingInput{
		ShopID:         "shop-1",
		AllocationMode: enums.AllocationModeAll,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAddRoutingAssignsPositions(t *testing.T) {
	t.Parallel()

	svc, conn := newTestService(t)
	itemID := seedItem(t, conn)
	ctx := context.Background()

	first, err := svc.AddRouting(ctx, itemID, AddRoutingInput{
		ShopID: "shop-1", AllocationMode: enums.AllocationModeFixed, AllocatedFixed: intPtr(5),
	})
	if err != nil {
		t.Fatalf("add first: %v", err)
	}
	second, err := svc.AddRouting(ctx, itemID, AddRoutingInput{
		ShopID: "shop-2", AllocationMode: enums.AllocationModePercentage, AllocatedPercent: percent("25"),
	})
	if err != nil {
		t.Fatalf("add second: %v", err)
	}

	if first.Position != 0 || second.Position != 1 {
		t.Fatalf("expected sequential positions 0,1; got %d,%d", first.Position, second.Position)
	}
}

func TestAddRoutingReplacesExisting(t *testing.T) {
	t.Parallel()

	svc, conn := newTestService(t)
	itemID := seedItem(t, conn)
	ctx := context.Background()

	if _, err := svc.AddRouting(ctx, itemID, AddRoutingInput{
		ShopID: "shop-1", AllocationMode: enums.AllocationModeFixed, AllocatedFixed: intPtr(5),
	}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := svc.AddRouting(ctx, itemID, AddRoutingInput{
		ShopID: "shop-2", AllocationMode: enums.AllocationModeAll,
	}); err != nil {
		t.Fatalf("add second shop: %v", err)
	}

	replaced, err := svc.AddRouting(ctx, itemID, AddRoutingInput{
		ShopID: "shop-1", AllocationMode: enums.AllocationModePercentage, AllocatedPercent: percent("40"),
	})
	if err != nil {
		t.Fatalf("re-add: %v", err)
	}

	if replaced.AllocationMode != enums.AllocationModePercentage {
		t.Fatalf("expected mode replaced, got %s", replaced.AllocationMode)
	}
	// Replacing keeps the routing's slot in the ordering.
	if replaced.Position != 0 {
		t.Fatalf("expected original position kept, got %d", replaced.Position)
	}

	routings, err := svc.ListRoutings(ctx, itemID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(routings) != 2 {
		t.Fatalf("expected upsert, not duplicate: %+v", routings)
	}
}

func TestRemoveRoutingIdempotent(t *testing.T) {
	t.Parallel()

	svc, conn := newTestService(t)
	itemID := seedItem(t, conn)
	ctx := context.Background()

	if _, err := svc.AddRouting(ctx, itemID, AddRoutingInput{
		ShopID: "shop-1", AllocationMode: enums.AllocationModeAll,
	}); err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := svc.RemoveRouting(ctx, itemID, "shop-1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := svc.RemoveRouting(ctx, itemID, "shop-1"); err != nil {
		t.Fatalf("expected second remove to be a no-op, got %v", err)
	}

	routings, err := svc.ListRoutings(ctx, itemID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(routings) != 0 {
		t.Fatalf("expected no routings, got %+v", routings)
	}
}

func TestEnsureRoutingDefaultsToAllMode(t *testing.T) {
	t.Parallel()

	svc, conn := newTestService(t)
	itemID := seedItem(t, conn)
	ctx := context.Background()

	if err := svc.EnsureRouting(ctx, itemID, "shop-1"); err != nil {
		t.Fatalf("ensure: %v", err)
	}

	routings, err := svc.ListRoutings(ctx, itemID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(routings) != 1 || routings[0].AllocationMode != enums.AllocationModeAll {
		t.Fatalf("expected one all-mode routing, got %+v", routings)
	}
}

func TestEnsureRoutingKeepsExistingRule(t *testing.T) {
	t.Parallel()

	svc, conn := newTestService(t)
	itemID := seedItem(t, conn)
	ctx := context.Background()

	if _, err := svc.AddRouting(ctx, itemID, AddRoutingInput{
		ShopID: "shop-1", AllocationMode: enums.AllocationModeFixed, AllocatedFixed: intPtr(7),
	}); err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := svc.EnsureRouting(ctx, itemID, "shop-1"); err != nil {
		t.Fatalf("ensure: %v", err)
	}

	routings, err := svc.ListRoutings(ctx, itemID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(routings) != 1 || routings[0].AllocationMode != enums.AllocationModeFixed {
		t.Fatalf("expected existing fixed rule untouched, got %+v", routings)
	}
}

func TestListShopIDs(t *testing.T) {
	t.Parallel()

	svc, conn := newTestService(t)
	ctx := context.Background()

	itemA := seedItem(t, conn)
	itemB := seedItem(t, conn)
	for _, pair := range []struct {
		item uuid.UUID
		shop string
	}{
		{itemA, "shop-b"},
		{itemA, "shop-a"},
		{itemB, "shop-a"},
	} {
		if _, err := svc.AddRouting(ctx, pair.item, AddRoutingInput{
			ShopID: pair.shop, AllocationMode: enums.AllocationModeAll,
		}); err != nil {
			t.Fatalf("add %s/%s: %v", pair.item, pair.shop, err)
		}
	}

	shopIDs, err := svc.ListShopIDs(ctx)
	if err != nil {
		t.Fatalf("list shops: %v", err)
	}
	if len(shopIDs) != 2 || shopIDs[0] != "shop-a" || shopIDs[1] != "shop-b" {
		t.Fatalf("expected deduped sorted shops, got %v", shopIDs)
	}
}
