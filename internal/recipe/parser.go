// Package recipe extracts participants and ingredient lines from markdown
// recipe documents, tokenizes the lines and scales them to a headcount.
package recipe

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/adrg/frontmatter"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/mesh-intelligence/dishcalc/pkg/types"
)

// bulletLine matches a "-" bullet at any indentation; group 1 is the item text.
var bulletLine = regexp.MustCompile(`^[ \t]*-(?:[ \t]+(.*))?$`)

// thematicBreak matches "---", "- - -" and longer runs, which start with "-"
// but are not bullets.
var thematicBreak = regexp.MustCompile(`^[ \t]*-[ \t]*-[ \t]*-[- \t]*$`)

// Parser reads recipe documents for one locale. It is safe for concurrent
// use; goldmark parsers are stateless between calls.
type Parser struct {
	locale       types.Locale
	md           goldmark.Markdown
	participants *regexp.Regexp
}

// NewParser creates a parser for the locale's section headings and
// person-count words.
func NewParser(locale types.Locale) (*Parser, error) {
	if err := locale.Validate(); err != nil {
		return nil, err
	}
	words := make([]string, len(locale.PersonWords))
	for i, w := range locale.PersonWords {
		words[i] = regexp.QuoteMeta(w)
	}
	re, err := regexp.Compile(`(\d+)\s*(?:` + strings.Join(words, "|") + `)`)
	if err != nil {
		return nil, fmt.Errorf("compile participants pattern: %w", err)
	}
	return &Parser{
		locale:       locale,
		md:           goldmark.New(),
		participants: re,
	}, nil
}

// recipeMeta is the optional YAML frontmatter of a recipe.
type recipeMeta struct {
	Tags []string `yaml:"tags"`
}

// ParseFile reads and parses the recipe at path.
func (p *Parser) ParseFile(path string) (*types.RecipeDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read recipe %s: %w", path, err)
	}
	return p.Parse(path, data)
}

// Parse extracts the participant count, ingredient lines and instructions
// from raw document content. path is used for the dish name and in errors.
func (p *Parser) Parse(path string, content []byte) (*types.RecipeDocument, error) {
	var meta recipeMeta
	body, err := frontmatter.Parse(bytes.NewReader(content), &meta)
	if err != nil {
		return nil, fmt.Errorf("%s: parse frontmatter: %w", path, err)
	}
	// Line numbers are reported against the full document.
	lineOffset := 0
	if bytes.HasSuffix(content, body) {
		lineOffset = bytes.Count(content[:len(content)-len(body)], []byte("\n"))
	}

	src := newSource(body)
	root := p.md.Parser().Parse(text.NewReader(body))
	sections := headingSections(root, src)

	ingredients, ok := findSection(sections, p.locale.IngredientsHeading)
	if !ok {
		return nil, &types.ParseError{
			Kind: types.ErrMissingIngredientsSection,
			Path: path,
			Msg:  fmt.Sprintf("no %q heading", p.locale.IngredientsHeading),
		}
	}

	participants, err := p.declaredParticipants(path, content)
	if err != nil {
		return nil, err
	}

	doc := &types.RecipeDocument{
		Path:         path,
		Dish:         DishName(path),
		Participants: participants,
		Tags:         meta.Tags,
	}

	skip := codeLines(root, src)
	for i := ingredients.start; i < ingredients.end; i++ {
		if skip[i] {
			continue
		}
		line := src.line(i)
		if thematicBreak.MatchString(line) {
			continue
		}
		m := bulletLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		doc.IngredientLines = append(doc.IngredientLines, types.IngredientLine{
			Text: strings.TrimSpace(m[1]),
			Line: i + 1 + lineOffset,
		})
	}

	if p.locale.InstructionsHeading != "" {
		if instr, ok := findSection(sections, p.locale.InstructionsHeading); ok {
			doc.Instructions = strings.Trim(src.span(instr.start, instr.end), "\n")
		}
	}

	return doc, nil
}

func (p *Parser) declaredParticipants(path string, content []byte) (uint, error) {
	loc := p.participants.FindSubmatchIndex(content)
	if loc == nil {
		return 0, &types.ParseError{
			Kind: types.ErrMissingParticipants,
			Path: path,
			Msg:  fmt.Sprintf("expected a count followed by one of %s", strings.Join(p.locale.PersonWords, ", ")),
		}
	}
	digits := string(content[loc[2]:loc[3]])
	n, err := strconv.ParseUint(digits, 10, 0)
	if err != nil {
		return 0, &types.ParseError{
			Kind: types.ErrInvalidParticipantCount,
			Path: path,
			Line: bytes.Count(content[:loc[0]], []byte("\n")) + 1,
			Msg:  fmt.Sprintf("%q is not a valid count", digits),
		}
	}
	return uint(n), nil
}

// section is a heading and the half-open range of 0-based body lines it owns.
type section struct {
	title string
	level int
	start int
	end   int
}

// headingSections lists every top-level heading with the lines it owns: from the
// line after the heading up to the next heading of the same or a higher
// level, or the end of the document.
func headingSections(doc ast.Node, src *source) []section {
	type heading struct {
		title     string
		level     int
		firstLine int
		lastLine  int
	}
	var headings []heading
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok || h.Lines().Len() == 0 {
			continue
		}
		lines := h.Lines()
		first := src.lineOf(lines.At(0).Start)
		last := src.lineOf(lines.At(lines.Len() - 1).Start)
		if !strings.HasPrefix(strings.TrimSpace(src.line(first)), "#") {
			// Setext heading: the underline belongs to the heading.
			last++
		}
		headings = append(headings, heading{
			title:     strings.TrimSpace(inlineText(h, src.data)),
			level:     h.Level,
			firstLine: first,
			lastLine:  last,
		})
	}

	out := make([]section, 0, len(headings))
	for i, h := range headings {
		end := src.lineCount()
		for _, next := range headings[i+1:] {
			if next.level <= h.level {
				end = next.firstLine
				break
			}
		}
		out = append(out, section{title: h.title, level: h.level, start: h.lastLine + 1, end: end})
	}
	return out
}

// findSection returns the first section whose title is keyword, or starts
// with keyword followed by a space or colon ("Zutaten für 4 Personen").
func findSection(sections []section, keyword string) (section, bool) {
	for _, s := range sections {
		if s.title == keyword ||
			strings.HasPrefix(s.title, keyword+" ") ||
			strings.HasPrefix(s.title, keyword+":") {
			return s, true
		}
	}
	return section{}, false
}

// codeLines marks body lines that belong to code blocks so bullets inside
// them are not read as ingredients.
func codeLines(doc ast.Node, src *source) map[int]bool {
	out := map[int]bool{}
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch n.(type) {
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				out[src.lineOf(lines.At(i).Start)] = true
			}
		}
	}
	return out
}

// inlineText concatenates the text segments below n.
func inlineText(n ast.Node, src []byte) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() {
				b.WriteByte(' ')
			}
			continue
		}
		b.WriteString(inlineText(c, src))
	}
	return b.String()
}

// DishName returns the dish name for a recipe path: its file stem.
func DishName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// source indexes line starts of a document body.
type source struct {
	data   []byte
	starts []int
}

func newSource(data []byte) *source {
	starts := []int{0}
	for i, b := range data {
		if b == '\n' && i+1 < len(data) {
			starts = append(starts, i+1)
		}
	}
	return &source{data: data, starts: starts}
}

func (s *source) lineCount() int {
	if len(s.data) == 0 {
		return 0
	}
	return len(s.starts)
}

// lineOf returns the 0-based line containing byte offset off.
func (s *source) lineOf(off int) int {
	return sort.Search(len(s.starts), func(i int) bool { return s.starts[i] > off }) - 1
}

// line returns line i without its terminator.
func (s *source) line(i int) string {
	if i < 0 || i >= s.lineCount() {
		return ""
	}
	end := len(s.data)
	if i+1 < len(s.starts) {
		end = s.starts[i+1]
	}
	return strings.TrimRight(string(s.data[s.starts[i]:end]), "\r\n")
}

// span returns lines [from, to) verbatim.
func (s *source) span(from, to int) string {
	if from >= to || from >= s.lineCount() {
		return ""
	}
	start := s.starts[from]
	end := len(s.data)
	if to < len(s.starts) {
		end = s.starts[to]
	}
	return string(s.data[start:end])
}
