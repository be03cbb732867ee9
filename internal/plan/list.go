package plan

import (
	"regexp"
	"strings"

	"github.com/mesh-intelligence/dishcalc/pkg/types"
)

// dayLine matches "Montag (12): [[Curry]] (4), ⟨Markt⟩".
var dayLine = regexp.MustCompile(`^[ \t]*([^:(|#\[\n]+?)[ \t]*(?:\((\d+)\))?[ \t]*:[ \t]*(.*?)[ \t]*$`)

// isDayLine reports whether line starts a day in the list layout. Only lines
// whose menu begins with a reference, a shopping marker or the rest-day word
// count, so ordinary "Key: value" prose is not mistaken for a day.
func (p *Parser) isDayLine(line string) bool {
	m := dayLine.FindStringSubmatch(line)
	if m == nil || p.isMetaLine(line) {
		return false
	}
	menu := m[3]
	return strings.HasPrefix(menu, "[[") ||
		strings.HasPrefix(menu, "⟨") ||
		(p.locale.ShoppingMarker != "" && strings.HasPrefix(menu, p.locale.ShoppingMarker)) ||
		(p.locale.RestDay != "" && menu == p.locale.RestDay)
}

// parseList reads one day per line. Blank lines, headings and metadata are
// skipped; any other line is a syntax error.
func (p *Parser) parseList(doc *document, start int) ([]types.Day, error) {
	lx := lexer{marker: p.locale.ShoppingMarker, angled: true}
	var days []types.Day
	for i := start; i < len(doc.lines); i++ {
		line := doc.lines[i]
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || p.isMetaLine(line) {
			continue
		}
		loc := dayLine.FindStringSubmatchIndex(line)
		if loc == nil {
			return nil, doc.errorf(i, 1, "expected a day line such as \"Montag (12): [[Gericht]]\"")
		}

		day := types.Day{Heading: strings.TrimSpace(line[loc[2]:loc[3]])}
		if loc[4] >= 0 {
			n, err := doc.headcount(i, line[loc[4]:loc[5]])
			if err != nil {
				return nil, err
			}
			day.Headcount = &n
		}

		menu := line[loc[6]:loc[7]]
		switch {
		case menu == "":
		case p.locale.RestDay != "" && menu == p.locale.RestDay:
			day.Slots = []types.MealSlot{{Text: menu}}
		default:
			items, err := lx.lex(menu)
			if err != nil {
				return nil, rowError(doc, i, offsetError(err, loc[6]))
			}
			if s := slot("", items); !emptySlot(s) {
				day.Slots = []types.MealSlot{s}
			}
		}
		days = append(days, day)
	}
	return days, nil
}
