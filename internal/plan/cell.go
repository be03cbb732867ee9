package plan

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/mesh-intelligence/dishcalc/pkg/types"
)

type itemKind int

const (
	itemShopping itemKind = iota
	itemReference
	itemBreak
	itemText
)

// item is one lexed piece of a cell or bullet.
type item struct {
	kind      itemKind
	text      string
	headcount *float64
	offset    int // byte offset in the lexed string
}

var (
	lineBreak     = regexp.MustCompile(`(?i)^<br\s*/?>`)
	refHeadcount  = regexp.MustCompile(`^[ \t]*\((\d+(?:[.,]\d+)?)\)`)
	angledMarker  = regexp.MustCompile(`^⟨[^⟩]+⟩`)
	headcountSufx = regexp.MustCompile(`\((\d+)\)`)
)

// lexer splits free text into items. Alternatives are tried in a fixed
// order (shopping marker, meal reference, line break) before anything is
// taken as plain text, so plain text never swallows a structural token.
type lexer struct {
	marker string // literal shopping marker, e.g. "#Einkauf"
	angled bool   // also accept "⟨...⟩" as a shopping marker
}

// lexError reports a malformed token at a byte offset of the lexed string.
type lexError struct {
	offset int
	msg    string
}

func (e *lexError) Error() string { return e.msg }

func (l lexer) lex(s string) ([]item, error) {
	var items []item
	textStart := -1
	flush := func(end int) {
		if textStart >= 0 {
			items = append(items, item{kind: itemText, text: s[textStart:end], offset: textStart})
			textStart = -1
		}
	}

	for i := 0; i < len(s); {
		rest := s[i:]
		if n := l.shopping(rest); n > 0 {
			flush(i)
			items = append(items, item{kind: itemShopping, text: rest[:n], offset: i})
			i += n
			continue
		}
		if strings.HasPrefix(rest, "[[") {
			flush(i)
			ref, n, err := lexReference(rest)
			if err != nil {
				err.offset += i
				return nil, err
			}
			ref.offset = i
			items = append(items, ref)
			i += n
			continue
		}
		if m := lineBreak.FindString(rest); m != "" {
			flush(i)
			items = append(items, item{kind: itemBreak, text: m, offset: i})
			i += len(m)
			continue
		}
		if textStart < 0 {
			textStart = i
		}
		_, size := utf8.DecodeRuneInString(rest)
		i += size
	}
	flush(len(s))
	return items, nil
}

func (l lexer) shopping(s string) int {
	if l.marker != "" && strings.HasPrefix(s, l.marker) {
		return len(l.marker)
	}
	if l.angled {
		return len(angledMarker.FindString(s))
	}
	return 0
}

// lexReference reads "[[Name]]", "[[Name|Alias]]" or "[[Name]] (N)" from
// the start of s and returns the item and the bytes consumed.
func lexReference(s string) (item, int, *lexError) {
	end := strings.Index(s, "]]")
	if end < 0 {
		return item{}, 0, &lexError{msg: "unterminated [["}
	}
	inner := s[2:end]
	if strings.Contains(inner, "[[") {
		return item{}, 0, &lexError{msg: "unterminated [["}
	}
	name, _, _ := strings.Cut(inner, "|")
	name = strings.TrimSpace(name)
	if name == "" {
		return item{}, 0, &lexError{msg: "empty meal reference"}
	}

	ref := item{kind: itemReference, text: name}
	n := end + 2
	if m := refHeadcount.FindStringSubmatch(s[n:]); m != nil {
		at := n + strings.Index(m[0], "(")
		v, err := strconv.ParseFloat(strings.Replace(m[1], ",", ".", 1), 64)
		if err != nil {
			return item{}, 0, &lexError{offset: at, msg: "invalid headcount " + m[1]}
		}
		if v <= 0 {
			return item{}, 0, &lexError{offset: at, msg: "headcount must be positive"}
		}
		ref.headcount = &v
		n += len(m[0])
	}
	return ref, n, nil
}

// slot folds lexed items into a meal slot. Plain text is kept for display.
func slot(label string, items []item) types.MealSlot {
	s := types.MealSlot{Label: label}
	var text []string
	for _, it := range items {
		switch it.kind {
		case itemShopping:
			s.Shopping = true
		case itemReference:
			s.References = append(s.References, types.MealReference{DishName: it.text, Headcount: it.headcount})
		case itemText:
			if t := strings.Trim(it.text, " \t,;"); t != "" {
				text = append(text, t)
			}
		}
	}
	s.Text = strings.Join(text, " ")
	return s
}

func emptySlot(s types.MealSlot) bool {
	return len(s.References) == 0 && !s.Shopping && s.Text == ""
}

var errZeroHeadcount = errors.New("headcount must be positive")

// splitHeadcount removes the first "(N)" from a heading and returns the
// trimmed heading and N.
func splitHeadcount(heading string) (string, *uint, error) {
	loc := headcountSufx.FindStringSubmatchIndex(heading)
	if loc == nil {
		return strings.TrimSpace(heading), nil, nil
	}
	n, err := strconv.ParseUint(heading[loc[2]:loc[3]], 10, 0)
	if err != nil {
		return "", nil, err
	}
	if n == 0 {
		return "", nil, errZeroHeadcount
	}
	count := uint(n)
	name := strings.TrimSpace(heading[:loc[0]] + heading[loc[1]:])
	return strings.Join(strings.Fields(name), " "), &count, nil
}

// column converts a byte offset in line to a 1-based rune column.
func column(line string, offset int) int {
	if offset > len(line) {
		offset = len(line)
	}
	return utf8.RuneCountInString(line[:offset]) + 1
}
