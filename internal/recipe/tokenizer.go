package recipe

import (
	"math"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/dishcalc/pkg/types"
)

// Tokenizer splits stripped ingredient lines into amount, measure and name.
// It holds no state between lines.
type Tokenizer struct {
	locale types.Locale
}

// NewTokenizer creates a tokenizer for the locale's measure vocabulary.
func NewTokenizer(locale types.Locale) *Tokenizer {
	return &Tokenizer{locale: locale}
}

// Tokenize parses one line. Dish and SourceDish are left empty; the caller
// tags provenance. A non-nil warning means the amount could not be parsed
// and defaulted to 0.
//
//	"200 g Flour" -> (200, "g", "Flour")
//	"2 Eggs"      -> (2, "", "Eggs")
//	"Butter"      -> (1, "", "Butter")
//	"xyz Milk"    -> (0, "", "Milk") + warning
func (t *Tokenizer) Tokenize(line string) (types.Ingredient, *types.Warning, error) {
	tokens := strings.Fields(line)
	switch len(tokens) {
	case 0:
		return types.Ingredient{}, nil, types.ErrEmptyIngredientLine
	case 1:
		return types.Ingredient{Amount: 1, Name: tokens[0]}, nil, nil
	}

	var warning *types.Warning
	amount, ok := t.parseAmount(tokens[0])
	if !ok {
		warning = &types.Warning{
			Kind:  types.WarnUnparsableAmount,
			Token: tokens[0],
			Text:  line,
		}
	}

	rest := tokens[1:]
	measure := ""
	// A trailing measure with nothing after it is the name ("2 Dose").
	if len(rest) > 1 && t.locale.IsMeasure(rest[0]) {
		measure = rest[0]
		rest = rest[1:]
	}

	return types.Ingredient{
		Amount:  amount,
		Measure: measure,
		Name:    strings.Join(rest, " "),
	}, warning, nil
}

func (t *Tokenizer) parseAmount(token string) (float64, bool) {
	if t.locale.DecimalComma && strings.Count(token, ",") == 1 && !strings.Contains(token, ".") {
		token = strings.Replace(token, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(token, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
