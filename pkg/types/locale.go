package types

import (
	"errors"
	"fmt"
	"slices"
)

// Locale errors.
var (
	ErrUnknownLocale = errors.New("unknown locale")
	ErrLocaleInvalid = errors.New("invalid locale")
)

// Locale holds every language-specific keyword and vocabulary the parsers
// depend on. It is passed explicitly so fixtures for several locales can be
// tested side by side.
type Locale struct {
	Name string `toml:"name" yaml:"name"`

	// IngredientsHeading is the heading text that opens the ingredients section.
	IngredientsHeading string `toml:"ingredients_heading" yaml:"ingredients_heading"`
	// InstructionsHeading opens the optional free-text instructions block.
	InstructionsHeading string `toml:"instructions_heading" yaml:"instructions_heading"`
	// PersonWords complete the participants declaration, as in "4 Personen".
	PersonWords []string `toml:"person_words" yaml:"person_words"`
	// Measures is the closed measure vocabulary, matched case-sensitively.
	Measures []string `toml:"measures" yaml:"measures"`
	// DecimalComma accepts "0,5" as an amount.
	DecimalComma bool `toml:"decimal_comma" yaml:"decimal_comma"`

	// ShoppingMarker is the literal in-plan token for a grocery run.
	ShoppingMarker string `toml:"shopping_marker" yaml:"shopping_marker"`
	// RestDay marks a day of leftovers in the list dialect.
	RestDay string `toml:"rest_day" yaml:"rest_day"`
	// PeopleKeys and StartKeys label the plan metadata lines.
	PeopleKeys []string `toml:"people_keys" yaml:"people_keys"`
	StartKeys  []string `toml:"start_keys" yaml:"start_keys"`

	// OtherCategory names the bucket for unclustered ingredients.
	OtherCategory string `toml:"other_category" yaml:"other_category"`
}

// Built-in locale names.
const (
	LocaleGerman  = "de"
	LocaleEnglish = "en"
)

var builtinLocales = map[string]Locale{
	LocaleGerman: {
		Name:                LocaleGerman,
		IngredientsHeading:  "Zutaten",
		InstructionsHeading: "Zubereitung",
		PersonWords:         []string{"Personen", "Portionen", "Persons"},
		Measures: []string{
			"g", "mg", "kg", "el", "tl", "l", "ml", "Liter", "Scheiben", "scheiben", "scheibe",
			"EL", "TL", "Prise", "Bund", "Dose",
		},
		DecimalComma:   true,
		ShoppingMarker: "#Einkauf",
		RestDay:        "Reste",
		PeopleKeys:     []string{"Personen", "People"},
		StartKeys:      []string{"Starttag", "Start"},
		OtherCategory:  "Sonstiges",
	},
	LocaleEnglish: {
		Name:                LocaleEnglish,
		IngredientsHeading:  "Ingredients",
		InstructionsHeading: "Instructions",
		PersonWords:         []string{"people", "persons", "servings"},
		Measures: []string{
			"g", "mg", "kg", "ml", "l", "tsp", "tbsp", "cup", "cups", "oz", "lb", "pinch", "slice", "slices", "can",
		},
		ShoppingMarker: "#shopping",
		RestDay:        "Leftovers",
		PeopleKeys:     []string{"People"},
		StartKeys:      []string{"Start"},
		OtherCategory:  "Other",
	},
}

// LocaleByName returns a copy of a built-in locale.
func LocaleByName(name string) (Locale, error) {
	l, ok := builtinLocales[name]
	if !ok {
		return Locale{}, fmt.Errorf("%w: %q", ErrUnknownLocale, name)
	}
	return l.Clone(), nil
}

// LocaleNames lists the built-in locales in sorted order.
func LocaleNames() []string {
	names := make([]string, 0, len(builtinLocales))
	for name := range builtinLocales {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Clone returns a deep copy so callers can adjust vocabularies safely.
func (l Locale) Clone() Locale {
	l.PersonWords = slices.Clone(l.PersonWords)
	l.Measures = slices.Clone(l.Measures)
	l.PeopleKeys = slices.Clone(l.PeopleKeys)
	l.StartKeys = slices.Clone(l.StartKeys)
	return l
}

// IsMeasure reports whether token is in the measure vocabulary.
func (l Locale) IsMeasure(token string) bool {
	return slices.Contains(l.Measures, token)
}

// Validate checks that the fields the parsers cannot work without are set.
func (l Locale) Validate() error {
	switch {
	case l.IngredientsHeading == "":
		return fmt.Errorf("%w: ingredients_heading is empty", ErrLocaleInvalid)
	case len(l.PersonWords) == 0:
		return fmt.Errorf("%w: person_words is empty", ErrLocaleInvalid)
	case l.ShoppingMarker == "":
		return fmt.Errorf("%w: shopping_marker is empty", ErrLocaleInvalid)
	}
	for _, w := range l.PersonWords {
		if w == "" {
			return fmt.Errorf("%w: person_words contains an empty word", ErrLocaleInvalid)
		}
	}
	return nil
}
