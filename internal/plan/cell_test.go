package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderHeadcounts(t *testing.T) {
	tests := []struct {
		line string
		want []*uint
	}{
		{"| | Monday (12) | Tuesday |\n", []*uint{nil, uintPtr(12), nil}},
		{"| Donnerstag | Montag |\n", []*uint{nil, nil}},
		{"| Donnerstag | Montag (12) |\n", []*uint{nil, uintPtr(12)}},
		{"| | (3) Mo | Di (0) |", []*uint{nil, uintPtr(3), uintPtr(0)}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := HeaderHeadcounts(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHeaderHeadcountsOverflow(t *testing.T) {
	_, err := HeaderHeadcounts("| | Mo (99999999999999999999999) |")
	assert.Error(t, err)
}

func TestSplitRow(t *testing.T) {
	cells, err := splitRow(`| a | [[B|Alias]] | c\|d |`)
	require.NoError(t, err)
	texts := make([]string, len(cells))
	for i, c := range cells {
		texts[i] = c.text
	}
	assert.Equal(t, []string{" a ", " [[B|Alias]] ", " c|d "}, texts)
	assert.Equal(t, 1, cells[0].offset)
	assert.Equal(t, 5, cells[1].offset)

	_, err = splitRow("| a | [[B |")
	var le *lexError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, 6, le.offset)
}

func TestLexOrderedAlternatives(t *testing.T) {
	lx := lexer{marker: "#Einkauf"}

	items, err := lx.lex("[[Curry]] (4)<br/>#Einkauf dann [[Reis|Basmati]]<BR >Text")
	require.NoError(t, err)

	kinds := make([]itemKind, len(items))
	for i, it := range items {
		kinds[i] = it.kind
	}
	assert.Equal(t, []itemKind{
		itemReference, itemBreak, itemShopping, itemText, itemReference, itemBreak, itemText,
	}, kinds)
	assert.Equal(t, "Curry", items[0].text)
	require.NotNil(t, items[0].headcount)
	assert.Equal(t, 4.0, *items[0].headcount)
	assert.Equal(t, " dann ", items[3].text)
	assert.Equal(t, "Reis", items[4].text)
	assert.Nil(t, items[4].headcount)
	assert.Equal(t, "Text", items[6].text)
}

func TestLexPlainTextDoesNotSwallowTokens(t *testing.T) {
	lx := lexer{marker: "#Einkauf"}
	items, err := lx.lex("vorher#Einkaufnachher[[A]]")
	require.NoError(t, err)
	require.Len(t, items, 4)
	assert.Equal(t, itemText, items[0].kind)
	assert.Equal(t, itemShopping, items[1].kind)
	assert.Equal(t, itemText, items[2].kind)
	assert.Equal(t, itemReference, items[3].kind)
}

func TestLexAngledMarker(t *testing.T) {
	items, err := lexer{marker: "#Einkauf", angled: true}.lex("⟨Wochenmarkt⟩, [[A]]")
	require.NoError(t, err)
	s := slot("", items)
	assert.True(t, s.Shopping)
	assert.Empty(t, s.Text)
	require.Len(t, s.References, 1)

	items, err = lexer{marker: "#Einkauf"}.lex("⟨Wochenmarkt⟩")
	require.NoError(t, err)
	assert.False(t, slot("", items).Shopping)
}

func TestLexReferenceErrors(t *testing.T) {
	lx := lexer{marker: "#Einkauf"}
	tests := []struct {
		in     string
		offset int
		msg    string
	}{
		{"abc [[Curry", 4, "unterminated [["},
		{"[[A [[B]]", 0, "unterminated [["},
		{"x [[ ]]", 2, "empty meal reference"},
		{"[[Curry]] (0)", 10, "headcount must be positive"},
		{"a [[Curry]](0,0)", 11, "headcount must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			_, err := lx.lex(tt.in)
			var le *lexError
			require.ErrorAs(t, err, &le)
			assert.Equal(t, tt.offset, le.offset)
			assert.Equal(t, tt.msg, le.msg)
		})
	}
}

func TestSplitHeadcount(t *testing.T) {
	name, count, err := splitHeadcount(" Montag (12) ")
	require.NoError(t, err)
	assert.Equal(t, "Montag", name)
	assert.Equal(t, uintPtr(12), count)

	name, count, err = splitHeadcount("Dienstag")
	require.NoError(t, err)
	assert.Equal(t, "Dienstag", name)
	assert.Nil(t, count)

	_, _, err = splitHeadcount("Mittwoch (0)")
	assert.ErrorIs(t, err, errZeroHeadcount)
}
