package types

// Contribution is one dish's share of an aggregated ingredient.
type Contribution struct {
	Amount     float64 `json:"amount"`
	Measure    string  `json:"measure,omitempty"`
	SourceDish string  `json:"source_dish"`
}

// AggregatedEntry is every contribution to one ingredient name.
type AggregatedEntry struct {
	Name          string         `json:"name"`
	Contributions []Contribution `json:"contributions"`
}

// Dishes returns the contributing dish names, de-duplicated, in
// contribution order.
func (e AggregatedEntry) Dishes() []string {
	seen := make(map[string]bool, len(e.Contributions))
	var out []string
	for _, c := range e.Contributions {
		if seen[c.SourceDish] {
			continue
		}
		seen[c.SourceDish] = true
		out = append(out, c.SourceDish)
	}
	return out
}
