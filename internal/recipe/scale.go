package recipe

import (
	"fmt"

	"github.com/mesh-intelligence/dishcalc/pkg/types"
)

// Ratio returns requested/declared. declared must be positive.
func Ratio(declared uint, requested float64) (float64, error) {
	if declared == 0 {
		return 0, fmt.Errorf("%w: recipe declares 0 participants", types.ErrInvalidParticipantCount)
	}
	return requested / float64(declared), nil
}

// Scale multiplies every amount by requested/declared and returns new
// ingredients; measure and name are left untouched. This is the only place
// quantities change.
func Scale(ingredients []types.Ingredient, declared uint, requested float64) ([]types.Ingredient, error) {
	ratio, err := Ratio(declared, requested)
	if err != nil {
		return nil, err
	}
	out := make([]types.Ingredient, len(ingredients))
	for i, ing := range ingredients {
		ing.Amount *= ratio
		out[i] = ing
	}
	return out, nil
}
