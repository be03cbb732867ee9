package recipe

import (
	"errors"

	"github.com/mesh-intelligence/dishcalc/pkg/types"
)

// Ingredients tokenizes every ingredient line of doc and tags each result
// with the document's dish name. Unparsable amounts are returned as
// warnings located at the offending line.
func Ingredients(doc *types.RecipeDocument, tok *Tokenizer) ([]types.Ingredient, []types.Warning, error) {
	out := make([]types.Ingredient, 0, len(doc.IngredientLines))
	var warnings []types.Warning
	for _, line := range doc.IngredientLines {
		ing, warn, err := tok.Tokenize(line.Text)
		if err != nil {
			return nil, nil, &types.ParseError{Kind: err, Path: doc.Path, Line: line.Line}
		}
		if warn != nil {
			warn.Path = doc.Path
			warn.Line = line.Line
			warnings = append(warnings, *warn)
		}
		ing.SourceDish = doc.Dish
		out = append(out, ing)
	}
	return out, warnings, nil
}

// Prepare tokenizes doc and scales it for requested people.
func Prepare(doc *types.RecipeDocument, tok *Tokenizer, requested float64) ([]types.Ingredient, []types.Warning, error) {
	ingredients, warnings, err := Ingredients(doc, tok)
	if err != nil {
		return nil, nil, err
	}
	scaled, err := Scale(ingredients, doc.Participants, requested)
	if err != nil {
		if errors.Is(err, types.ErrInvalidParticipantCount) {
			return nil, nil, &types.ParseError{
				Kind: types.ErrInvalidParticipantCount,
				Path: doc.Path,
				Msg:  "recipe declares 0 participants",
			}
		}
		return nil, nil, err
	}
	return scaled, warnings, nil
}
