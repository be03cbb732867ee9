// Package shopping merges scaled ingredients into a shopping list and
// renders it.
package shopping

import (
	"sort"

	"github.com/mesh-intelligence/dishcalc/pkg/types"
)

// Aggregate groups ingredients by exact name. Contributions keep input
// order; entries are sorted by name in byte order. The input is not
// modified.
func Aggregate(ingredients []types.Ingredient) []types.AggregatedEntry {
	index := map[string]int{}
	var entries []types.AggregatedEntry
	for _, ing := range ingredients {
		i, ok := index[ing.Name]
		if !ok {
			i = len(entries)
			index[ing.Name] = i
			entries = append(entries, types.AggregatedEntry{Name: ing.Name})
		}
		entries[i].Contributions = append(entries[i].Contributions, types.Contribution{
			Amount:     ing.Amount,
			Measure:    ing.Measure,
			SourceDish: ing.SourceDish,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}
