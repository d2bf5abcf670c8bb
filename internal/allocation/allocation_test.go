package allocation

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/meridianops/stockroute-backend/pkg/enums"
)

func pctRouting(shopID string, position int, percent string) Routing {
	pct := decimal.RequireFromString(percent)
	return Routing{ShopID: shopID, Mode: enums.AllocationModePercentage, Percent: &pct, Position: position}
}

func fixedRouting(shopID string, position, fixed int) Routing {
	return Routing{ShopID: shopID, Mode: enums.AllocationModeFixed, Fixed: &fixed, Position: position}
}

func allRouting(shopID string, position int) Routing {
	return Routing{ShopID: shopID, Mode: enums.AllocationModeAll, Position: position}
}

func quantitiesByShop(result Result) map[string]int {
	out := map[string]int{}
	for _, a := range result.Allocations {
		out[a.ShopID] = a.Quantity
	}
	return out
}

func TestAllocateMixedModes(t *testing.T) {
	t.Parallel()

	result := Allocate(100, []Routing{
		fixedRouting("shop-a", 0, 30),
		pctRouting("shop-b", 1, "50"),
		allRouting("shop-c", 2),
	})

	got := quantitiesByShop(result)
	if got["shop-a"] != 30 || got["shop-b"] != 50 || got["shop-c"] != 20 {
		t.Fatalf("unexpected allocations: %+v", got)
	}
	if len(result.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", result.Warnings)
	}
}

func TestAllocatePercentageOversubscribedScalesDown(t *testing.T) {
	t.Parallel()

	result := Allocate(10, []Routing{
		pctRouting("shop-a", 0, "70"),
		pctRouting("shop-b", 1, "70"),
	})

	got := quantitiesByShop(result)
	if got["shop-a"] != 5 || got["shop-b"] != 5 {
		t.Fatalf("expected proportional scale-down to 5/5, got %+v", got)
	}
	if result.Total() > 10 {
		t.Fatalf("total %d exceeds quantity", result.Total())
	}
}

func TestAllocateZeroQuantity(t *testing.T) {
	t.Parallel()

	result := Allocate(0, []Routing{
		fixedRouting("shop-a", 0, 10),
		pctRouting("shop-b", 1, "50"),
		allRouting("shop-c", 2),
	})

	for _, a := range result.Allocations {
		if a.Quantity != 0 {
			t.Fatalf("expected all zero allocations, got %+v", result.Allocations)
		}
	}
}

func TestAllocateNoRoutings(t *testing.T) {
	t.Parallel()

	result := Allocate(50, nil)
	if len(result.Allocations) != 0 || len(result.Warnings) != 0 {
		t.Fatalf("expected empty result, got %+v", result)
	}
}

func TestAllocateFixedEarlierPositionWinsScarceStock(t *testing.T) {
	t.Parallel()

	result := Allocate(10, []Routing{
		fixedRouting("shop-b", 2, 8),
		fixedRouting("shop-a", 1, 8),
	})

	got := quantitiesByShop(result)
	if got["shop-a"] != 8 || got["shop-b"] != 2 {
		t.Fatalf("expected position order to decide scarce stock, got %+v", got)
	}
}

func TestAllocateAllModeLeftoverGoesToEarliest(t *testing.T) {
	t.Parallel()

	result := Allocate(10, []Routing{
		allRouting("shop-a", 0),
		allRouting("shop-b", 1),
		allRouting("shop-c", 2),
	})

	got := quantitiesByShop(result)
	if got["shop-a"] != 4 || got["shop-b"] != 3 || got["shop-c"] != 3 {
		t.Fatalf("expected 4/3/3 split, got %+v", got)
	}
}

func TestAllocateNoAllModeLeavesRemainderUnallocated(t *testing.T) {
	t.Parallel()

	result := Allocate(100, []Routing{
		fixedRouting("shop-a", 0, 10),
	})

	if result.Total() != 10 {
		t.Fatalf("expected 10 allocated, got %d", result.Total())
	}
}

func TestAllocateMalformedRowsDegradeToZero(t *testing.T) {
	t.Parallel()

	badPct := decimal.RequireFromString("140")
	negFixed := -5
	result := Allocate(100, []Routing{
		{ShopID: "shop-a", Mode: enums.AllocationModePercentage, Percent: &badPct, Position: 0},
		{ShopID: "shop-b", Mode: enums.AllocationModeFixed, Fixed: &negFixed, Position: 1},
		{ShopID: "shop-c", Mode: enums.AllocationModePercentage, Position: 2},
	})

	for _, a := range result.Allocations {
		if a.Quantity != 0 {
			t.Fatalf("expected malformed rows to allocate 0, got %+v", result.Allocations)
		}
	}
	if len(result.Warnings) != 3 {
		t.Fatalf("expected 3 warnings, got %v", result.Warnings)
	}
}

func TestAllocateZeroPercentIsLegal(t *testing.T) {
	t.Parallel()

	result := Allocate(100, []Routing{pctRouting("shop-a", 0, "0")})
	if result.Total() != 0 || len(result.Warnings) != 0 {
		t.Fatalf("expected clean zero allocation, got %+v", result)
	}
}

func TestAllocateConservationAndNonNegativity(t *testing.T) {
	t.Parallel()

	cases := []struct {
		quantity int
		routings []Routing
	}{
		{0, []Routing{allRouting("a", 0)}},
		{1, []Routing{pctRouting("a", 0, "99.99"), pctRouting("b", 1, "99.99")}},
		{7, []Routing{fixedRouting("a", 0, 3), pctRouting("b", 1, "50"), pctRouting("c", 2, "80"), allRouting("d", 3)}},
		{1000, []Routing{fixedRouting("a", 0, 999), fixedRouting("b", 1, 999), pctRouting("c", 2, "33.33"), allRouting("d", 3), allRouting("e", 4)}},
		{13, []Routing{pctRouting("a", 0, "33.33"), pctRouting("b", 1, "33.33"), pctRouting("c", 2, "33.34"), allRouting("d", 3)}},
	}

	for i, tc := range cases {
		result := Allocate(tc.quantity, tc.routings)
		if result.Total() > tc.quantity {
			t.Fatalf("case %d: total %d exceeds quantity %d", i, result.Total(), tc.quantity)
		}
		for _, a := range result.Allocations {
			if a.Quantity < 0 {
				t.Fatalf("case %d: negative allocation %+v", i, a)
			}
		}
	}
}

func TestAllocateScaleDownDistributesByLargestRemainder(t *testing.T) {
	t.Parallel()

	// Shares 60 and 40 of 100 scaled into a remainder of 7: exact 4.2 and 2.8,
	// the single leftover unit goes to the larger fraction.
	result := Allocate(100, []Routing{
		fixedRouting("hold", 0, 93),
		pctRouting("shop-a", 1, "60"),
		pctRouting("shop-b", 2, "40"),
	})

	got := quantitiesByShop(result)
	if got["shop-a"] != 4 || got["shop-b"] != 3 {
		t.Fatalf("expected 4/3 largest-remainder split, got %+v", got)
	}
	if result.Total() != 100 {
		t.Fatalf("expected full allocation of 100, got %d", result.Total())
	}
}
