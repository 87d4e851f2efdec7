package state

import (
	"cmp"
	"slices"
	"strings"
)

// ComputeView derives the visible deals from a catalogue.
// Stages run in order: product filter, provider filter, sort. The catalogue
// is never modified and the result never aliases it.
func ComputeView(deals []Deal, criteria Criteria, rules CategoryRules) []Deal {
	view := filterByProduct(deals, criteria.ProductFilters, rules)
	view = filterByProvider(view, criteria.ProviderFilter)
	return sortDeals(view, criteria.SortMode)
}

// NormalizeProductTypes returns the sorted token sequence used for matching.
// Duplicates are kept.
func NormalizeProductTypes(productTypes []string, rules CategoryRules) []string {
	tokens := make([]string, 0, len(productTypes))
	for _, label := range productTypes {
		if renamed, ok := rules.Rename[label]; ok {
			label = renamed
		}

		token := strings.ToLower(label)
		if token == "" {
			continue
		}
		if _, drop := rules.Drop[token]; drop {
			continue
		}

		tokens = append(tokens, token)
	}

	slices.Sort(tokens)
	return tokens
}

// filterByProduct keeps deals whose normalized categories equal the filter set exactly
func filterByProduct(deals []Deal, filters []string, rules CategoryRules) []Deal {
	if len(filters) == 0 {
		return deals
	}

	wanted := make([]string, len(filters))
	for i, f := range filters {
		wanted[i] = strings.ToLower(f)
	}
	slices.Sort(wanted)

	matched := make([]Deal, 0, len(deals))
	for _, deal := range deals {
		if slices.Equal(NormalizeProductTypes(deal.ProductTypes, rules), wanted) {
			matched = append(matched, deal)
		}
	}

	return matched
}

func filterByProvider(deals []Deal, providerID *int) []Deal {
	if providerID == nil {
		return deals
	}

	matched := make([]Deal, 0, len(deals))
	for _, deal := range deals {
		if deal.Provider.ID == *providerID {
			matched = append(matched, deal)
		}
	}

	return matched
}

// sortDeals orders a deep copy of deals; unknown modes keep input order
func sortDeals(deals []Deal, mode SortMode) []Deal {
	sorted := cloneDeals(deals)

	switch mode {
	case SortUpfrontCost:
		slices.SortStableFunc(sorted, func(a, b Deal) int {
			return cmp.Compare(a.Cost.UpfrontCost, b.Cost.UpfrontCost)
		})
	case SortTotalContractCost:
		slices.SortStableFunc(sorted, func(a, b Deal) int {
			return cmp.Compare(a.Cost.TotalContractCost, b.Cost.TotalContractCost)
		})
	}

	return sorted
}
