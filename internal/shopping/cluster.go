package shopping

import (
	"context"
	"sort"
	"strings"

	"github.com/mesh-intelligence/dishcalc/pkg/types"
)

// Cluster is one category of the clustered list.
type Cluster struct {
	Category string                  `json:"category"`
	Entries  []types.AggregatedEntry `json:"entries"`
}

// Clusterer turns the flat list into categories. Implementations must not
// modify entries. A failing clusterer never fails the run; the flat list
// is written regardless.
type Clusterer interface {
	Cluster(ctx context.Context, entries []types.AggregatedEntry) ([]Cluster, error)
}

// CategoryClusterer assigns ingredients to categories from a static table
// (category -> ingredient names). Names are matched case-insensitively.
// Unassigned ingredients go to the fallback category, rendered last.
type CategoryClusterer struct {
	byName   map[string]string
	order    []string
	fallback string
}

// NewCategoryClusterer builds a clusterer. When a name is listed under
// several categories, the category that sorts first wins.
func NewCategoryClusterer(categories map[string][]string, fallback string) *CategoryClusterer {
	order := make([]string, 0, len(categories))
	for c := range categories {
		order = append(order, c)
	}
	sort.Strings(order)

	byName := map[string]string{}
	for _, c := range order {
		for _, name := range categories[c] {
			key := strings.ToLower(strings.TrimSpace(name))
			if _, taken := byName[key]; !taken {
				byName[key] = c
			}
		}
	}
	return &CategoryClusterer{byName: byName, order: order, fallback: fallback}
}

// Cluster implements Clusterer. Empty categories are omitted; entries keep
// their input order within a category.
func (c *CategoryClusterer) Cluster(ctx context.Context, entries []types.AggregatedEntry) ([]Cluster, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	groups := map[string][]types.AggregatedEntry{}
	for _, e := range entries {
		cat, ok := c.byName[strings.ToLower(e.Name)]
		if !ok {
			cat = c.fallback
		}
		groups[cat] = append(groups[cat], e)
	}

	var out []Cluster
	for _, cat := range c.order {
		if cat == c.fallback || len(groups[cat]) == 0 {
			continue
		}
		out = append(out, Cluster{Category: cat, Entries: groups[cat]})
	}
	if rest := groups[c.fallback]; len(rest) > 0 {
		out = append(out, Cluster{Category: c.fallback, Entries: rest})
	}
	return out, nil
}

// RenderClusters writes each cluster as a "## Category" section followed by
// its rendered entries.
func RenderClusters(clusters []Cluster) string {
	var b strings.Builder
	for i, cl := range clusters {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("## ")
		b.WriteString(cl.Category)
		b.WriteString("\n\n")
		b.WriteString(Render(cl.Entries))
	}
	return b.String()
}
