// Package plan parses meal-plan documents into a types.WeekPlan.
//
// A plan starts with metadata (default headcount and start date) followed by
// the week in one of three layouts:
//
//	table    | | Montag (12) | Dienstag |     columns are days, rows are meal times
//	outline  ## Montag (12)                  headings are days, bullets are slots
//	list     Montag (12): [[Curry]], ⟨Markt⟩ one line per day
//
// The layout is probed once at entry and recorded in WeekPlan.Dialect; all
// three produce the same structure.
package plan

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/frontmatter"

	"github.com/mesh-intelligence/dishcalc/pkg/types"
)

const dateLayout = "2006-01-02"

var (
	metaLine = regexp.MustCompile(`^[ \t]*(?:[-*][ \t]+)?\**([\p{L}][\p{L}\p{N} _-]*?)\**[ \t]*:\**[ \t]*(.*?)[ \t]*$`)
	intLine  = regexp.MustCompile(`^[ \t]*(\d+)[ \t]*$`)
	dateLine = regexp.MustCompile(`^[ \t]*(\d{4}-\d{2}-\d{2})[ \t]*$`)
	leadInt  = regexp.MustCompile(`^(\d+)`)
)

// Parser reads plan documents for one locale.
type Parser struct {
	locale           types.Locale
	defaultHeadcount uint
}

// NewParser creates a plan parser. defaultHeadcount is used when the plan
// itself declares none.
func NewParser(locale types.Locale, defaultHeadcount uint) *Parser {
	return &Parser{locale: locale, defaultHeadcount: defaultHeadcount}
}

// planMeta is the optional YAML frontmatter of a plan.
type planMeta struct {
	People   *uint  `yaml:"people"`
	Personen *uint  `yaml:"personen"`
	Start    string `yaml:"start"`
	Starttag string `yaml:"starttag"`
}

// ParseFile reads and parses the plan at path.
func (p *Parser) ParseFile(path string) (*types.WeekPlan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan %s: %w", path, err)
	}
	return p.Parse(path, data)
}

// Parse parses plan content. path is only used in errors.
func (p *Parser) Parse(path string, content []byte) (*types.WeekPlan, error) {
	var meta planMeta
	body, err := frontmatter.Parse(bytes.NewReader(content), &meta)
	if err != nil {
		return nil, &types.ParseError{Kind: types.ErrPlanSyntax, Path: path, Msg: "frontmatter: " + err.Error()}
	}
	doc := newDocument(path, content, body)

	plan := &types.WeekPlan{}
	if meta.People != nil {
		plan.DefaultHeadcount = *meta.People
	} else if meta.Personen != nil {
		plan.DefaultHeadcount = *meta.Personen
	}
	if start := firstNonEmpty(meta.Start, meta.Starttag); start != "" {
		t, err := time.Parse(dateLayout, start)
		if err != nil {
			return nil, &types.ParseError{Kind: types.ErrPlanSyntax, Path: path, Msg: fmt.Sprintf("start date %q is not YYYY-MM-DD", start)}
		}
		plan.Start = t
	}

	dialect, bodyStart, ok := p.probe(doc.lines)
	if !ok {
		return nil, &types.ParseError{
			Kind: types.ErrPlanSyntax,
			Path: path,
			Msg:  "no plan table, day outline or day list found",
		}
	}
	plan.Dialect = dialect

	fixed := metaSet{people: plan.DefaultHeadcount > 0, start: !plan.Start.IsZero()}
	if err := p.readMetadata(doc, bodyStart, plan, fixed); err != nil {
		return nil, err
	}

	switch dialect {
	case types.DialectTable:
		plan.Days, err = p.parseTable(doc, bodyStart)
	case types.DialectOutline:
		plan.Days, err = p.parseOutline(doc, bodyStart)
	case types.DialectList:
		plan.Days, err = p.parseList(doc, bodyStart)
	}
	if err != nil {
		return nil, err
	}

	if plan.DefaultHeadcount == 0 {
		plan.DefaultHeadcount = p.defaultHeadcount
	}
	if plan.DefaultHeadcount == 0 {
		return nil, &types.ParseError{Kind: types.ErrPlanSyntax, Path: path, Msg: "no default headcount declared"}
	}
	if plan.Start.IsZero() {
		return nil, &types.ParseError{Kind: types.ErrPlanSyntax, Path: path, Msg: "no start date declared"}
	}
	return plan, nil
}

// probe decides the dialect and the line the plan body starts on. Tables
// are tried first, then outlines, then day lists.
func (p *Parser) probe(lines []string) (types.Dialect, int, bool) {
	for i := 0; i+1 < len(lines); i++ {
		if isRow(lines[i]) && isRow(lines[i+1]) && isDividerRow(lines[i+1]) {
			return types.DialectTable, i, true
		}
	}
	for i := range lines {
		if _, _, ok := atxHeading(lines[i]); !ok {
			continue
		}
		for j := i + 1; j < len(lines); j++ {
			if strings.TrimSpace(lines[j]) == "" {
				continue
			}
			if _, _, ok := bullet(lines[j]); ok && !p.isMetaLine(lines[j]) {
				return types.DialectOutline, i, true
			}
			break
		}
	}
	for i := range lines {
		if p.isDayLine(lines[i]) {
			return types.DialectList, i, true
		}
	}
	return 0, 0, false
}

// metaSet records which plan fields the frontmatter already declared.
type metaSet struct {
	people bool
	start  bool
}

// readMetadata scans the lines before the plan body for the headcount and
// start date. Lines are still validated, but fields set by frontmatter keep
// their frontmatter value.
func (p *Parser) readMetadata(doc *document, end int, plan *types.WeekPlan, fixed metaSet) error {
	sawPeople, sawStart := false, false
	for i := 0; i < end; i++ {
		line := doc.lines[i]
		if m := metaLine.FindStringSubmatch(line); m != nil {
			key := strings.TrimSpace(m[1])
			switch {
			case matchesKey(p.locale.PeopleKeys, key):
				n, err := doc.headcount(i, leadInt.FindString(m[2]))
				if err != nil {
					return err
				}
				if !fixed.people {
					plan.DefaultHeadcount = n
				}
				sawPeople = true
			case matchesKey(p.locale.StartKeys, key):
				t, err := time.Parse(dateLayout, m[2])
				if err != nil {
					return doc.errorf(i, 1, "start date %q is not YYYY-MM-DD", m[2])
				}
				if !fixed.start {
					plan.Start = t
				}
				sawStart = true
			}
			continue
		}
		// Bare form: an integer line followed by a date line.
		if m := intLine.FindStringSubmatch(line); m != nil && !sawPeople {
			n, err := doc.headcount(i, m[1])
			if err != nil {
				return err
			}
			if !fixed.people {
				plan.DefaultHeadcount = n
			}
			sawPeople = true
			continue
		}
		if m := dateLine.FindStringSubmatch(line); m != nil && !sawStart {
			t, err := time.Parse(dateLayout, m[1])
			if err != nil {
				return doc.errorf(i, 1, "start date %q is not a valid date", m[1])
			}
			if !fixed.start {
				plan.Start = t
			}
			sawStart = true
		}
	}
	return nil
}

func matchesKey(keys []string, key string) bool {
	for _, k := range keys {
		if strings.EqualFold(k, key) {
			return true
		}
	}
	return false
}

func (p *Parser) isMetaLine(line string) bool {
	m := metaLine.FindStringSubmatch(line)
	if m == nil {
		return false
	}
	key := strings.TrimSpace(m[1])
	return matchesKey(p.locale.PeopleKeys, key) || matchesKey(p.locale.StartKeys, key)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// document is a plan body split into lines, with enough context to report
// positions against the original file.
type document struct {
	path   string
	lines  []string
	offset int // file lines preceding lines[0]
}

func newDocument(path string, content, body []byte) *document {
	offset := 0
	if bytes.HasSuffix(content, body) {
		offset = bytes.Count(content[:len(content)-len(body)], []byte("\n"))
	}
	text := strings.ReplaceAll(string(body), "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	var lines []string
	if text != "" {
		lines = strings.Split(text, "\n")
	}
	return &document{path: path, lines: lines, offset: offset}
}

// errorf builds a PlanSyntaxError for 0-based body line i at 1-based column col.
func (d *document) errorf(i, col int, format string, args ...any) error {
	return &types.ParseError{
		Kind:   types.ErrPlanSyntax,
		Path:   d.path,
		Line:   i + 1 + d.offset,
		Column: col,
		Msg:    fmt.Sprintf(format, args...),
	}
}

func (d *document) headcount(i int, digits string) (uint, error) {
	if digits == "" {
		return 0, d.errorf(i, 1, "expected a headcount")
	}
	n, err := strconv.ParseUint(digits, 10, 0)
	if err != nil {
		return 0, d.errorf(i, 1, "headcount %q out of range", digits)
	}
	if n == 0 {
		return 0, d.errorf(i, 1, "headcount must be positive")
	}
	return uint(n), nil
}
