package plan

import (
	"regexp"
	"strings"

	"github.com/mesh-intelligence/dishcalc/pkg/types"
)

// Table grammar:
//
//	table      = header_row divider_row meal_row+
//	header_row = "|" label_cell ("|" day_cell)* "|"?
//	day_cell   = text ["(" digits ")"] text
//	divider    = "|" (" " | "-" | ":")+ ("|" ...)* "|"?
//	meal_row   = "|" time_cell ("|" items)* "|"?
//	time_cell  = "**" text "**" | text
//	items      = (shopping | meal_ref | break | plain)*

var dividerCell = regexp.MustCompile(`^[ \t:]*-[- \t:]*$`)

// cell is the unescaped content of one table cell and the byte offset of
// its first character in the line.
type cell struct {
	text   string
	offset int
}

func isRow(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "|")
}

func isDividerRow(line string) bool {
	cells, err := splitRow(line)
	if err != nil || len(cells) == 0 {
		return false
	}
	for _, c := range cells {
		if !dividerCell.MatchString(c.text) {
			return false
		}
	}
	return true
}

// splitRow splits a table row on unescaped pipes. Pipes inside "[[...]]"
// belong to the link (Obsidian aliases) and "\|" is an escaped pipe.
func splitRow(line string) ([]cell, error) {
	trimmed := strings.TrimRight(line, " \t")
	start := strings.Index(trimmed, "|")
	if start < 0 {
		return nil, &lexError{msg: "table row must start with |"}
	}

	var (
		cells  []cell
		b      strings.Builder
		offset = start + 1
		inLink = -1
	)
	for i := start + 1; i < len(trimmed); i++ {
		c := trimmed[i]
		switch {
		case c == '\\' && i+1 < len(trimmed) && trimmed[i+1] == '|':
			b.WriteByte('|')
			i++
		case inLink < 0 && strings.HasPrefix(trimmed[i:], "[["):
			inLink = i
			b.WriteString("[[")
			i++
		case inLink >= 0 && strings.HasPrefix(trimmed[i:], "]]"):
			inLink = -1
			b.WriteString("]]")
			i++
		case c == '|' && inLink < 0:
			cells = append(cells, cell{text: b.String(), offset: offset})
			b.Reset()
			offset = i + 1
		default:
			b.WriteByte(c)
		}
	}
	if inLink >= 0 {
		return nil, &lexError{offset: inLink, msg: "unterminated [["}
	}
	// Without a closing pipe the remainder is the last cell.
	if offset < len(trimmed) || b.Len() > 0 {
		cells = append(cells, cell{text: b.String(), offset: offset})
	}
	return cells, nil
}

// headerCell is one parsed header cell.
type headerCell struct {
	heading   string
	headcount *uint
}

func parseHeader(doc *document, i int) ([]headerCell, error) {
	line := doc.lines[i]
	cells, err := splitRow(line)
	if err != nil {
		return nil, rowError(doc, i, err)
	}
	out := make([]headerCell, len(cells))
	for j, c := range cells {
		heading, count, err := splitHeadcount(c.text)
		if err != nil {
			return nil, doc.errorf(i, column(line, c.offset), "invalid day headcount in %q", strings.TrimSpace(c.text))
		}
		out[j] = headerCell{heading: heading, headcount: count}
	}
	return out, nil
}

// HeaderHeadcounts parses a single table header row and returns the
// headcount of every cell, the leading label cell included. Cells without
// "(N)" yield nil:
//
//	"| | Monday (12) | Tuesday |" -> [nil, 12, nil]
func HeaderHeadcounts(line string) ([]*uint, error) {
	doc := &document{lines: []string{strings.TrimSuffix(line, "\n")}}
	cells, err := parseHeader(doc, 0)
	if err != nil {
		return nil, err
	}
	out := make([]*uint, len(cells))
	for i, c := range cells {
		out[i] = c.headcount
	}
	return out, nil
}

func (p *Parser) parseTable(doc *document, start int) ([]types.Day, error) {
	header, err := parseHeader(doc, start)
	if err != nil {
		return nil, err
	}
	if len(header) < 2 {
		return nil, doc.errorf(start, 1, "table header needs a label column and at least one day")
	}
	days := make([]types.Day, len(header)-1)
	for j, h := range header[1:] {
		days[j] = types.Day{Heading: h.heading, Headcount: h.headcount}
	}

	divider := start + 1
	if err := checkColumns(doc, divider, len(header)); err != nil {
		return nil, err
	}

	lx := lexer{marker: p.locale.ShoppingMarker}
	rows := 0
	for i := divider + 1; i < len(doc.lines) && isRow(doc.lines[i]); i++ {
		line := doc.lines[i]
		cells, err := splitRow(line)
		if err != nil {
			return nil, rowError(doc, i, err)
		}
		if len(cells) != len(header) {
			col := column(line, len(line))
			if len(cells) > len(header) {
				col = column(line, cells[len(header)].offset)
			}
			return nil, doc.errorf(i, col, "row has %d columns, header has %d", len(cells), len(header))
		}

		label := timeLabel(cells[0].text)
		for j, c := range cells[1:] {
			items, err := lx.lex(c.text)
			if err != nil {
				return nil, rowError(doc, i, offsetError(err, c.offset))
			}
			s := slot(label, items)
			if emptySlot(s) {
				continue
			}
			days[j].Slots = append(days[j].Slots, s)
		}
		rows++
	}
	if rows == 0 {
		return nil, doc.errorf(divider, 1, "table has no meal rows")
	}
	return days, nil
}

func checkColumns(doc *document, i int, want int) error {
	line := doc.lines[i]
	cells, err := splitRow(line)
	if err != nil {
		return rowError(doc, i, err)
	}
	for _, c := range cells {
		if !dividerCell.MatchString(c.text) {
			return doc.errorf(i, column(line, c.offset), "malformed divider cell %q", strings.TrimSpace(c.text))
		}
	}
	if len(cells) != want {
		return doc.errorf(i, 1, "divider has %d columns, header has %d", len(cells), want)
	}
	return nil
}

// timeLabel strips bold markers from a meal-time cell.
func timeLabel(text string) string {
	t := strings.TrimSpace(text)
	if strings.HasPrefix(t, "**") && strings.HasSuffix(t, "**") && len(t) >= 4 {
		t = strings.TrimSpace(t[2 : len(t)-2])
	}
	return t
}

// offsetError shifts a cell-relative lex error to a line offset.
func offsetError(err error, base int) error {
	if le, ok := err.(*lexError); ok {
		return &lexError{offset: le.offset + base, msg: le.msg}
	}
	return err
}

func rowError(doc *document, i int, err error) error {
	if le, ok := err.(*lexError); ok {
		return doc.errorf(i, column(doc.lines[i], le.offset), "%s", le.msg)
	}
	return doc.errorf(i, 1, "%v", err)
}
