package centralinv

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/meridianops/stockroute-backend/pkg/db/models"
	dbtypes "github.com/meridianops/stockroute-backend/pkg/db/types"
	"github.com/meridianops/stockroute-backend/pkg/enums"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:centralinv_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.CentralInventoryItem{}, &models.InventoryRouting{}))
	return conn
}

func seedItem(t *testing.T, conn *gorm.DB, sku string, qty int, attrs map[string]string) *models.CentralInventoryItem {
	t.Helper()
	m := dbtypes.AttributeMap(attrs)
	item := &models.CentralInventoryItem{
		ID:                uuid.New(),
		SKU:               sku,
		ProductID:         "prod-" + sku,
		VariantKey:        m.Fingerprint(),
		VariantAttributes: m,
		Quantity:          qty,
	}
	require.NoError(t, conn.Create(item).Error)
	return item
}

func TestAdjustQuantityGuardsNegative(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	item := seedItem(t, conn, "SKU-1", 5, nil)

	affected, err := repo.AdjustQuantity(ctx, item.ID, -3)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	affected, err = repo.AdjustQuantity(ctx, item.ID, -3)
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected, "guard should reject an update below zero")

	reloaded, err := repo.FindByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.Quantity)
}

func TestAdjustQuantityUnknownID(t *testing.T) {
	t.Parallel()

	repo := NewRepository(newTestDB(t))
	affected, err := repo.AdjustQuantity(context.Background(), uuid.New(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)
}

func TestFindBySKUVariantUsesFingerprint(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	seedItem(t, conn, "TEE", 10, map[string]string{"size": "M", "color": "blue"})
	seedItem(t, conn, "TEE", 4, map[string]string{"size": "L", "color": "blue"})

	key := dbtypes.AttributeMap{"color": "blue", "size": "M"}.Fingerprint()
	found, err := repo.FindBySKUVariant(ctx, "TEE", key)
	require.NoError(t, err)
	assert.Equal(t, 10, found.Quantity, "should match the M variant")
}

func TestListRoutedToShopPreloadsAllRoutings(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	routed := seedItem(t, conn, "A-1", 10, nil)
	seedItem(t, conn, "B-1", 10, nil)

	routings := []models.InventoryRouting{
		{ID: uuid.New(), CentralItemID: routed.ID, ShopID: "shop-x", AllocationMode: enums.AllocationModeAll, Position: 2},
		{ID: uuid.New(), CentralItemID: routed.ID, ShopID: "shop-y", AllocationMode: enums.AllocationModeAll, Position: 1},
	}
	for i := range routings {
		require.NoError(t, conn.Create(&routings[i]).Error)
	}

	rows, err := repo.ListRoutedToShop(ctx, "shop-x")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "A-1", rows[0].SKU)
	// All routings come back, not just the shop's own, so allocation can be
	// computed in full; ordered by position.
	require.Len(t, rows[0].Routings, 2)
	assert.Equal(t, "shop-y", rows[0].Routings[0].ShopID)
}

func TestSetQuantityReportsAffectedRows(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	item := seedItem(t, conn, "SKU-9", 3, nil)

	affected, err := repo.SetQuantity(ctx, item.ID, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	affected, err = repo.SetQuantity(ctx, uuid.New(), 42)
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)
}
