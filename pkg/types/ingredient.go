package types

// Ingredient is one tokenized, optionally scaled, ingredient line of a dish.
// Values are treated as immutable once produced; scaling returns copies.
type Ingredient struct {
	Amount     float64 `json:"amount"`
	Measure    string  `json:"measure,omitempty"` // Empty when the line carried no known measure.
	Name       string  `json:"name"`
	SourceDish string  `json:"source_dish"`
}

// IngredientLine is a raw bullet line from a recipe's ingredients section,
// stripped of its marker, with the 1-based line number it was found on.
type IngredientLine struct {
	Text string
	Line int
}

// RecipeDocument is the parsed form of one recipe file.
type RecipeDocument struct {
	Path            string
	Dish            string // File stem, used as the provenance tag on ingredients.
	Participants    uint   // Headcount the amounts are written for.
	IngredientLines []IngredientLine
	Instructions    string   // Verbatim text of the instructions section, if any.
	Tags            []string // From optional YAML frontmatter.
}
