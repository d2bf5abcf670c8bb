package enums

import "fmt"

// AllocationMode represents the canonical allocation_mode enum in Postgres.
type AllocationMode string

const (
	// AllocationModeAll claims an even share of whatever stock remains after
	// fixed and percentage routings are satisfied.
	AllocationModeAll AllocationMode = "all"
	// AllocationModePercentage claims a share of the item's total quantity.
	AllocationModePercentage AllocationMode = "percentage"
	// AllocationModeFixed reserves at most a flat number of units.
	AllocationModeFixed AllocationMode = "fixed"
)

var validAllocationModes = []AllocationMode{
	AllocationModeAll,
	AllocationModePercentage,
	AllocationModeFixed,
}

// String implements fmt.Stringer.
func (m AllocationMode) String() string {
	return string(m)
}

// IsValid reports whether the value is a known AllocationMode.
func (m AllocationMode) IsValid() bool {
	for _, candidate := range validAllocationModes {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseAllocationMode converts raw input into an AllocationMode.
func ParseAllocationMode(value string) (AllocationMode, error) {
	for _, candidate := range validAllocationModes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid allocation mode %q", value)
}
