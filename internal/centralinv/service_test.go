package centralinv

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/meridianops/stockroute-backend/pkg/db/models"
	dbtypes "github.com/meridianops/stockroute-backend/pkg/db/types"
	pkgerrors "github.com/meridianops/stockroute-backend/pkg/errors"
	"github.com/meridianops/stockroute-backend/pkg/logger"
)

type stubStore struct {
	items map[string]*models.CentralInventoryItem // keyed by sku|variantKey
	byID  map[uuid.UUID]*models.CentralInventoryItem

	adjustAffected int64
	adjustErr      error
	createErr      error
}

func newStubStore() *stubStore {
	return &stubStore{
		items: map[string]*models.CentralInventoryItem{},
		byID:  map[uuid.UUID]*models.CentralInventoryItem{},
	}
}

func (s *stubStore) key(sku, variantKey string) string { return sku + "|" + variantKey }

func (s *stubStore) CreateItem(_ context.Context, item *models.CentralInventoryItem) error {
	if s.createErr != nil {
		return s.createErr
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	s.items[s.key(item.SKU, item.VariantKey)] = item
	s.byID[item.ID] = item
	return nil
}

func (s *stubStore) SaveItem(_ context.Context, item *models.CentralInventoryItem) error {
	s.items[s.key(item.SKU, item.VariantKey)] = item
	s.byID[item.ID] = item
	return nil
}

func (s *stubStore) FindByID(_ context.Context, id uuid.UUID) (*models.CentralInventoryItem, error) {
	if item, ok := s.byID[id]; ok {
		return item, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubStore) FindBySKUVariant(_ context.Context, sku, variantKey string) (*models.CentralInventoryItem, error) {
	if item, ok := s.items[s.key(sku, variantKey)]; ok {
		return item, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubStore) ListItems(context.Context) ([]models.CentralInventoryItem, error) {
	out := make([]models.CentralInventoryItem, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, *item)
	}
	return out, nil
}

func (s *stubStore) AdjustQuantity(context.Context, uuid.UUID, int) (int64, error) {
	return s.adjustAffected, s.adjustErr
}

func (s *stubStore) SetQuantity(context.Context, uuid.UUID, int) (int64, error) {
	return s.adjustAffected, s.adjustErr
}

type stubEnsurer struct {
	calls []string
	err   error
}

func (e *stubEnsurer) EnsureRouting(_ context.Context, itemID uuid.UUID, shopID string) error {
	e.calls = append(e.calls, shopID)
	return e.err
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func TestNewServiceRequiresStore(t *testing.T) {
	if _, err := NewService(nil, nil, testLogger()); err == nil {
		t.Fatal("expected error creating service without store")
	}
}

func TestCreateItemValidation(t *testing.T) {
	svc, err := NewService(newStubStore(), nil, testLogger())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	cases := []CreateItemInput{
		{SKU: "", ProductID: "p", Quantity: 1},
		{SKU: "s", ProductID: "", Quantity: 1},
		{SKU: "s", ProductID: "p", Quantity: -1},
	}
	for i, input := range cases {
		_, gotErr := svc.CreateItem(context.Background(), input)
		if typed := pkgerrors.As(gotErr); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("case %d: expected validation error, got %v", i, gotErr)
		}
	}
}

func TestCreateItemConflictOnDuplicateVariant(t *testing.T) {
	store := newStubStore()
	svc, err := NewService(store, nil, testLogger())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	input := CreateItemInput{
		SKU:               "TEE",
		ProductID:         "prod-1",
		VariantAttributes: map[string]string{"size": "M"},
		Quantity:          5,
	}
	if _, err := svc.CreateItem(context.Background(), input); err != nil {
		t.Fatalf("first create: %v", err)
	}

	// Same identity with different key order in the attribute map.
	_, gotErr := svc.CreateItem(context.Background(), input)
	if typed := pkgerrors.As(gotErr); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", gotErr)
	}
}

func TestGetItemNilWhenAbsent(t *testing.T) {
	svc, err := NewService(newStubStore(), nil, testLogger())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	dto, err := svc.GetItem(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if dto != nil {
		t.Fatalf("expected nil for absent item, got %+v", dto)
	}
}

func TestAdjustQuantityMapsGuardRejection(t *testing.T) {
	store := newStubStore()
	item := &models.CentralInventoryItem{ID: uuid.New(), SKU: "S", ProductID: "p", Quantity: 2}
	store.byID[item.ID] = item
	store.adjustAffected = 0

	svc, err := NewService(store, nil, testLogger())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, gotErr := svc.AdjustQuantity(context.Background(), item.ID, -5)
	if typed := pkgerrors.As(gotErr); typed == nil || typed.Code() != pkgerrors.CodeInvariant {
		t.Fatalf("expected invariant violation, got %v", gotErr)
	}

	_, gotErr = svc.AdjustQuantity(context.Background(), uuid.New(), -5)
	if typed := pkgerrors.As(gotErr); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", gotErr)
	}
}

func TestAdjustQuantityDependencyError(t *testing.T) {
	store := newStubStore()
	store.adjustErr = errors.New("boom")
	svc, err := NewService(store, nil, testLogger())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, gotErr := svc.AdjustQuantity(context.Background(), uuid.New(), 1)
	if typed := pkgerrors.As(gotErr); typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", gotErr)
	}
}

func TestSetQuantityRejectsNegative(t *testing.T) {
	svc, err := NewService(newStubStore(), nil, testLogger())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, gotErr := svc.SetQuantity(context.Background(), uuid.New(), -1)
	if typed := pkgerrors.As(gotErr); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", gotErr)
	}
}

func TestImportPartialFailure(t *testing.T) {
	store := newStubStore()
	svc, err := NewService(store, nil, testLogger())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	rows := []ImportItem{
		{SKU: "A", ProductID: "p", Quantity: 1},
		{SKU: "B", ProductID: "p", Quantity: 2},
		{SKU: "", ProductID: "p", Quantity: 3}, // invalid: missing sku
		{SKU: "C", ProductID: "p", Quantity: 0, Notes: []string{`quantity "abc" is not numeric, defaulted to 0`}},
		{SKU: "A", ProductID: "p2", Quantity: 9}, // update of row 1
	}

	result, err := svc.Import(context.Background(), rows)
	if err != nil {
		t.Fatalf("import: %v", err)
	}

	if result.Created != 3 || result.Updated != 1 || result.Failed != 1 {
		t.Fatalf("unexpected counts: %+v", result)
	}
	if len(result.Errors) != 1 || result.Errors[0].Row != 3 {
		t.Fatalf("expected row 3 error, got %+v", result.Errors)
	}
	if len(result.Warnings) != 1 || result.Warnings[0].SKU != "C" {
		t.Fatalf("expected degradation warning for C, got %+v", result.Warnings)
	}

	updated, _ := store.FindBySKUVariant(context.Background(), "A", dbtypes.AttributeMap(nil).Fingerprint())
	if updated.Quantity != 9 || updated.ProductID != "p2" {
		t.Fatalf("expected update applied, got %+v", updated)
	}
}

func TestImportRoutesToShops(t *testing.T) {
	store := newStubStore()
	ensurer := &stubEnsurer{}
	svc, err := NewService(store, ensurer, testLogger())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	result, err := svc.Import(context.Background(), []ImportItem{
		{SKU: "A", ProductID: "p", Quantity: 1, RouteToShops: []string{"shop-1", "shop-2"}},
	})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.Created != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(ensurer.calls) != 2 || ensurer.calls[0] != "shop-1" || ensurer.calls[1] != "shop-2" {
		t.Fatalf("expected routings ensured in order, got %v", ensurer.calls)
	}
}

func TestImportWithoutRouterWarnsOnRouteToShops(t *testing.T) {
	svc, err := NewService(newStubStore(), nil, testLogger())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	result, err := svc.Import(context.Background(), []ImportItem{
		{SKU: "A", ProductID: "p", Quantity: 1, RouteToShops: []string{"shop-1"}},
	})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.Created != 1 || len(result.Warnings) != 1 {
		t.Fatalf("expected create with warning, got %+v", result)
	}
}
