package state

import (
	"strings"
)

// SortMode selects the ordering of the derived view
type SortMode string

const (
	// SortDefault keeps catalogue order
	SortDefault SortMode = "default"
	// SortUpfrontCost orders by ascending upfront cost
	SortUpfrontCost SortMode = "upfrontCost"
	// SortTotalContractCost orders by ascending total contract cost
	SortTotalContractCost SortMode = "totalContractCost"
)

// Valid reports whether m is one of the known sort modes
func (m SortMode) Valid() bool {
	switch m {
	case SortDefault, SortUpfrontCost, SortTotalContractCost:
		return true
	}
	return false
}

// ParseSortMode maps s to a sort mode, falling back to SortDefault
func ParseSortMode(s string) SortMode {
	m := SortMode(strings.TrimSpace(s))
	if !m.Valid() {
		return SortDefault
	}
	return m
}

// Criteria is the filter and sort input of ComputeView
type Criteria struct {
	// ProductFilters holds normalized category tokens, in any order
	ProductFilters []string
	// ProviderFilter restricts the view to one provider when non-nil
	ProviderFilter *int
	SortMode       SortMode
}

// CategoryRules normalize raw product labels before matching.
// Rename is keyed by the raw label. Drop is keyed by the lower-cased label
// after renaming; dropped labels never take part in matching.
type CategoryRules struct {
	Rename map[string]string
	Drop   map[string]struct{}
}

// DefaultCategoryRules folds fibre into broadband and ignores phone bundling
func DefaultCategoryRules() CategoryRules {
	return CategoryRules{
		Rename: map[string]string{
			"Fibre Broadband": "Broadband",
		},
		Drop: map[string]struct{}{
			"phone": {},
		},
	}
}

// normalizeToken is the canonical form of a product filter token
func normalizeToken(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
