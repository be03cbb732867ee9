package shopping

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/dishcalc/pkg/types"
)

// Render writes one markdown bullet per entry:
//
//	- Flour [200g, 150g] (Bread, Pizza)
//
// Entries are sorted by name and contributions are listed in a canonical
// order (dish, measure, amount), so the result depends only on the
// multiset of contributions, not on the order dishes were processed.
func Render(entries []types.AggregatedEntry) string {
	sorted := append([]types.AggregatedEntry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	var b strings.Builder
	for _, e := range sorted {
		b.WriteString(RenderEntry(e))
		b.WriteByte('\n')
	}
	return b.String()
}

// RenderEntry renders a single entry without a trailing newline.
func RenderEntry(e types.AggregatedEntry) string {
	contribs := Canonical(e.Contributions)

	var b strings.Builder
	b.WriteString("- ")
	b.WriteString(e.Name)
	b.WriteString(" [")
	for i, c := range contribs {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(FormatAmount(c.Amount))
		b.WriteString(c.Measure)
	}
	b.WriteString("] (")
	seen := map[string]bool{}
	first := true
	for _, c := range contribs {
		if seen[c.SourceDish] {
			continue
		}
		seen[c.SourceDish] = true
		if !first {
			b.WriteString(", ")
		}
		first = false
		b.WriteString(c.SourceDish)
	}
	b.WriteString(")")
	return b.String()
}

// Canonical returns a copy of contributions sorted by dish, measure and
// amount.
func Canonical(contributions []types.Contribution) []types.Contribution {
	out := append([]types.Contribution(nil), contributions...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.SourceDish != b.SourceDish {
			return a.SourceDish < b.SourceDish
		}
		if a.Measure != b.Measure {
			return a.Measure < b.Measure
		}
		return a.Amount < b.Amount
	})
	return out
}

// FormatAmount prints an amount with at most two decimals and no trailing
// zeros: 200, 0.5, 333.33.
func FormatAmount(v float64) string {
	r := math.Round(v*100) / 100
	if r == 0 {
		r = 0 // drop negative zero
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}
