package plan

import (
	"regexp"
	"strings"

	"github.com/mesh-intelligence/dishcalc/pkg/types"
)

var (
	atxLine    = regexp.MustCompile(`^ {0,3}(#{1,6})(?:[ \t]+(.*?))?(?:[ \t]+#+)?[ \t]*$`)
	bulletItem = regexp.MustCompile(`^([ \t]*)[-*+][ \t]+(.*)$`)
)

// atxHeading returns the level and text of an ATX heading line.
func atxHeading(line string) (int, string, bool) {
	m := atxLine.FindStringSubmatch(line)
	if m == nil {
		return 0, "", false
	}
	return len(m[1]), strings.TrimSpace(m[2]), true
}

// bullet returns the indentation width and content of a bullet line.
// Tabs count as four columns.
func bullet(line string) (int, string, bool) {
	m := bulletItem.FindStringSubmatch(line)
	if m == nil {
		return 0, "", false
	}
	indent := 0
	for _, r := range m[1] {
		if r == '\t' {
			indent += 4
		} else {
			indent++
		}
	}
	return indent, m[2], true
}

// parseOutline reads days from headings at the level of the heading on
// line start. Top-level bullets under a day are slots; deeper bullets add
// items to the slot above them. The outline ends at a heading above the
// day level.
func (p *Parser) parseOutline(doc *document, start int) ([]types.Day, error) {
	dayLevel, _, _ := atxHeading(doc.lines[start])
	lx := lexer{marker: p.locale.ShoppingMarker, angled: true}

	var (
		days      []types.Day
		day       *types.Day
		slotIndex = -1
		topIndent = -1
		pending   []item // items of the current slot
		label     string
	)
	flushSlot := func() {
		if day == nil || slotIndex < 0 {
			return
		}
		s := slot(label, pending)
		day.Slots[slotIndex] = s
		pending = nil
	}

	for i := start; i < len(doc.lines); i++ {
		line := doc.lines[i]
		if level, text, ok := atxHeading(line); ok {
			if level < dayLevel {
				break
			}
			if level > dayLevel {
				continue
			}
			flushSlot()
			heading, count, err := splitHeadcount(text)
			if err != nil {
				return nil, doc.errorf(i, 1, "invalid day headcount in %q", text)
			}
			days = append(days, types.Day{Heading: heading, Headcount: count})
			day = &days[len(days)-1]
			slotIndex, topIndent = -1, -1
			continue
		}
		if day == nil {
			continue
		}
		indent, content, ok := bullet(line)
		if !ok {
			continue
		}
		contentOffset := len(line) - len(content)
		items, err := lx.lex(content)
		if err != nil {
			return nil, rowError(doc, i, offsetError(err, contentOffset))
		}

		if topIndent < 0 || indent <= topIndent {
			flushSlot()
			topIndent = indent
			label, items = slotLabel(items)
			day.Slots = append(day.Slots, types.MealSlot{})
			slotIndex = len(day.Slots) - 1
			pending = items
			continue
		}
		pending = append(pending, items...)
	}
	flushSlot()

	for d := range days {
		days[d].Slots = dropEmpty(days[d].Slots)
	}
	return days, nil
}

// slotLabel takes leading plain text as the slot label, stripping bold
// markers and a trailing colon.
func slotLabel(items []item) (string, []item) {
	if len(items) == 0 || items[0].kind != itemText {
		return "", items
	}
	label := strings.TrimSpace(items[0].text)
	label = strings.TrimSuffix(label, ":")
	label = strings.TrimSpace(strings.Trim(label, "*"))
	label = strings.TrimSuffix(label, ":")
	return strings.TrimSpace(label), items[1:]
}

func dropEmpty(slots []types.MealSlot) []types.MealSlot {
	out := slots[:0]
	for _, s := range slots {
		if emptySlot(s) && s.Label == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}
