// Package allocation computes how many units of a central inventory item each
// subscribed shop may claim. The calculation is pure and total: malformed
// routing rows degrade to a zero allocation with a warning instead of failing
// the whole computation.
package allocation

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/meridianops/stockroute-backend/pkg/enums"
)

var oneHundred = decimal.NewFromInt(100)

// Routing is the calculator's view of one shop subscription. Position is the
// explicit tie-break order: earlier routings win scarce stock in fixed mode
// and receive leftover units in all mode.
type Routing struct {
	ShopID   string
	Mode     enums.AllocationMode
	Percent  *decimal.Decimal
	Fixed    *int
	Position int
}

// ShopAllocation is the computed quantity for one shop.
type ShopAllocation struct {
	ShopID   string
	Quantity int
}

// Result carries the allocations in routing order plus any diagnostics for
// rows that could not be honored as written.
type Result struct {
	Allocations []ShopAllocation
	Warnings    []string
}

// Total returns the sum of all allocated quantities.
func (r Result) Total() int {
	total := 0
	for _, a := range r.Allocations {
		total += a.Quantity
	}
	return total
}

// Allocate distributes quantity across the provided routings.
//
// Order of operations: fixed reservations first (in position order, capped by
// what remains), then percentage shares of the ORIGINAL quantity (floored,
// proportionally scaled down via largest remainder when their sum exceeds the
// post-fixed remainder), then an even split of whatever is left across
// all-mode routings. The total never exceeds quantity and no allocation is
// negative.
func Allocate(quantity int, routings []Routing) Result {
	result := Result{}
	if len(routings) == 0 {
		return result
	}

	if quantity < 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("negative quantity %d treated as 0", quantity))
		quantity = 0
	}

	ordered := make([]Routing, len(routings))
	copy(ordered, routings)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Position < ordered[j].Position
	})

	quantities := make(map[int]int, len(ordered))
	remaining := quantity

	// Fixed reservations, earlier positions first.
	for idx, routing := range ordered {
		if routing.Mode != enums.AllocationModeFixed {
			continue
		}
		if routing.Fixed == nil || *routing.Fixed < 0 {
			result.Warnings = append(result.Warnings, malformedWarning(routing))
			quantities[idx] = 0
			continue
		}
		take := *routing.Fixed
		if take > remaining {
			take = remaining
		}
		quantities[idx] = take
		remaining -= take
	}

	// Percentage shares of the original quantity, scaled to fit the remainder.
	remaining -= allocatePercentages(quantity, remaining, ordered, quantities, &result)

	// Even split of the remainder across all-mode routings.
	allocateRemainder(remaining, ordered, quantities)

	for idx, routing := range ordered {
		result.Allocations = append(result.Allocations, ShopAllocation{
			ShopID:   routing.ShopID,
			Quantity: quantities[idx],
		})
	}
	return result
}

type percentShare struct {
	index int
	exact decimal.Decimal
	whole int64
}

func allocatePercentages(quantity, remaining int, ordered []Routing, quantities map[int]int, result *Result) int {
	shares := make([]percentShare, 0)
	total := int64(0)
	base := decimal.NewFromInt(int64(quantity))

	for idx, routing := range ordered {
		if routing.Mode != enums.AllocationModePercentage {
			continue
		}
		pct := routing.Percent
		if pct == nil || pct.IsNegative() || pct.GreaterThan(oneHundred) {
			result.Warnings = append(result.Warnings, malformedWarning(routing))
			quantities[idx] = 0
			continue
		}
		exact := base.Mul(*pct).Div(oneHundred)
		whole := exact.Floor().IntPart()
		shares = append(shares, percentShare{index: idx, exact: exact, whole: whole})
		total += whole
	}

	if len(shares) == 0 {
		return 0
	}

	if total <= int64(remaining) {
		for _, share := range shares {
			quantities[share.index] = int(share.whole)
		}
		return int(total)
	}

	return scaleShares(shares, total, remaining, quantities)
}

// scaleShares shrinks the percentage allocations proportionally so their sum
// equals the post-fixed remainder, distributing rounding units by largest
// remainder (ties resolved by routing position, which is the shares' order).
func scaleShares(shares []percentShare, total int64, remaining int, quantities map[int]int) int {
	target := decimal.NewFromInt(int64(remaining))
	divisor := decimal.NewFromInt(total)

	type scaled struct {
		index int
		whole int64
		frac  decimal.Decimal
		order int
	}

	scaledShares := make([]scaled, 0, len(shares))
	assigned := int64(0)
	for order, share := range shares {
		exact := decimal.NewFromInt(share.whole).Mul(target).Div(divisor)
		whole := exact.Floor().IntPart()
		scaledShares = append(scaledShares, scaled{
			index: share.index,
			whole: whole,
			frac:  exact.Sub(exact.Floor()),
			order: order,
		})
		assigned += whole
	}

	leftover := int64(remaining) - assigned
	sort.SliceStable(scaledShares, func(i, j int) bool {
		if cmp := scaledShares[i].frac.Cmp(scaledShares[j].frac); cmp != 0 {
			return cmp > 0
		}
		return scaledShares[i].order < scaledShares[j].order
	})
	for i := int64(0); i < leftover && int(i) < len(scaledShares); i++ {
		scaledShares[i].whole++
	}

	for _, share := range scaledShares {
		quantities[share.index] = int(share.whole)
	}
	return remaining
}

func allocateRemainder(remaining int, ordered []Routing, quantities map[int]int) {
	allIndexes := make([]int, 0)
	for idx, routing := range ordered {
		if routing.Mode == enums.AllocationModeAll {
			allIndexes = append(allIndexes, idx)
		} else if _, seen := quantities[idx]; !seen {
			// Unknown mode: degrade to zero rather than guessing.
			quantities[idx] = 0
		}
	}
	if len(allIndexes) == 0 {
		return
	}

	share := remaining / len(allIndexes)
	extra := remaining % len(allIndexes)
	for i, idx := range allIndexes {
		qty := share
		if i == 0 {
			qty += extra
		}
		quantities[idx] = qty
	}
}

func malformedWarning(routing Routing) string {
	return fmt.Sprintf("routing for shop %q has malformed %s parameters, allocating 0", routing.ShopID, routing.Mode)
}
