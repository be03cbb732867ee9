package plan

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/dishcalc/pkg/types"
)

func germanLocale(t *testing.T) types.Locale {
	t.Helper()
	loc, err := types.LocaleByName("de")
	require.NoError(t, err)
	return loc
}

func uintPtr(v uint) *uint        { return &v }
func floatPtr(v float64) *float64 { return &v }

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}

const tablePlan = `14
2024-05-02
## Essensplan
|                 | Donnerstag (12)                                  | Freitag         |
| --------------- | ------------------------------------------------ | --------------- |
| **Frühstück**   |                                                  | [[Müsli]]       |
| **Mittagessen** | [[Nudeln]] (4)                                   | [[Curry]]       |
| **Kaffee**      | #Einkauf                                         | [[Blechkuchen]] |
| **Abendessen**  | [[Maultaschen]]<br>[[Salat\|Gurkensalat]] vorher | [[Curry]]       |

Notizen nach der Tabelle.
`

func TestParseTablePlan(t *testing.T) {
	p := NewParser(germanLocale(t), 0)

	plan, err := p.Parse("plan.md", []byte(tablePlan))
	require.NoError(t, err)

	assert.Equal(t, types.DialectTable, plan.Dialect)
	assert.Equal(t, uint(14), plan.DefaultHeadcount)
	assert.Equal(t, date(t, "2024-05-02"), plan.Start)
	require.Len(t, plan.Days, 2)

	assert.Equal(t, types.Day{
		Heading:   "Donnerstag",
		Headcount: uintPtr(12),
		Slots: []types.MealSlot{
			{Label: "Mittagessen", References: []types.MealReference{{DishName: "Nudeln", Headcount: floatPtr(4)}}},
			{Label: "Kaffee", Shopping: true},
			{
				Label:      "Abendessen",
				References: []types.MealReference{{DishName: "Maultaschen"}, {DishName: "Salat"}},
				Text:       "vorher",
			},
		},
	}, plan.Days[0])

	assert.Equal(t, types.Day{
		Heading: "Freitag",
		Slots: []types.MealSlot{
			{Label: "Frühstück", References: []types.MealReference{{DishName: "Müsli"}}},
			{Label: "Mittagessen", References: []types.MealReference{{DishName: "Curry"}}},
			{Label: "Kaffee", References: []types.MealReference{{DishName: "Blechkuchen"}}},
			{Label: "Abendessen", References: []types.MealReference{{DishName: "Curry"}}},
		},
	}, plan.Days[1])

	assert.Equal(t, []types.Serving{
		{Day: "Donnerstag", Slot: "Mittagessen", DishName: "Nudeln", Headcount: 4},
		{Day: "Donnerstag", Slot: "Abendessen", DishName: "Maultaschen", Headcount: 12},
		{Day: "Donnerstag", Slot: "Abendessen", DishName: "Salat", Headcount: 12},
		{Day: "Freitag", Slot: "Frühstück", DishName: "Müsli", Headcount: 14},
		{Day: "Freitag", Slot: "Mittagessen", DishName: "Curry", Headcount: 14},
		{Day: "Freitag", Slot: "Kaffee", DishName: "Blechkuchen", Headcount: 14},
		{Day: "Freitag", Slot: "Abendessen", DishName: "Curry", Headcount: 14},
	}, plan.Servings())
	assert.Equal(t, []string{"Donnerstag"}, plan.ShoppingDays())
}

func TestParseTablePlanKeyedMetadata(t *testing.T) {
	content := "People: 4\nStart: 2024-01-01\n\n## Plan\n\n| | Mo | Di |\n|:---|:---:|---:|\n| Mittag | [[A]] | [[B]] |\n"
	plan, err := NewParser(germanLocale(t), 0).Parse("plan.md", []byte(content))
	require.NoError(t, err)

	assert.Equal(t, uint(4), plan.DefaultHeadcount)
	assert.Equal(t, date(t, "2024-01-01"), plan.Start)
	require.Len(t, plan.Days, 2)
	assert.Equal(t, "Mo", plan.Days[0].Heading)
	assert.Equal(t, "B", plan.Days[1].Slots[0].References[0].DishName)
}

func TestParseTablePlanWithoutClosingPipes(t *testing.T) {
	content := "Personen: 2\nStarttag: 2024-01-01\n| | Mo\n| --- | ---\n| Mittag | [[A]]\n"
	plan, err := NewParser(germanLocale(t), 0).Parse("plan.md", []byte(content))
	require.NoError(t, err)
	require.Len(t, plan.Days, 1)
	assert.Equal(t, "A", plan.Days[0].Slots[0].References[0].DishName)
}

func TestParseOutlinePlan(t *testing.T) {
	content := `---
people: 6
start: 2024-06-03
---
# Woche

## Montag (4)
- **Mittag**: [[Curry]]
- Abend
  - [[Brot]] (2)
  - [[Salat]]

Eine Notiz.

## Dienstag
- Einkauf: #Einkauf
- [[Suppe]]

# Anhang
- [[NichtImPlan]]
`
	plan, err := NewParser(germanLocale(t), 0).Parse("plan.md", []byte(content))
	require.NoError(t, err)

	assert.Equal(t, types.DialectOutline, plan.Dialect)
	assert.Equal(t, uint(6), plan.DefaultHeadcount)
	assert.Equal(t, date(t, "2024-06-03"), plan.Start)
	assert.Equal(t, []types.Day{
		{
			Heading:   "Montag",
			Headcount: uintPtr(4),
			Slots: []types.MealSlot{
				{Label: "Mittag", References: []types.MealReference{{DishName: "Curry"}}},
				{Label: "Abend", References: []types.MealReference{
					{DishName: "Brot", Headcount: floatPtr(2)},
					{DishName: "Salat"},
				}},
			},
		},
		{
			Heading: "Dienstag",
			Slots: []types.MealSlot{
				{Label: "Einkauf", Shopping: true},
				{References: []types.MealReference{{DishName: "Suppe"}}},
			},
		},
	}, plan.Days)
}

func TestParsePlanFrontmatterWinsOverMetadataLines(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		wantPeople uint
		wantStart  string
	}{
		{
			name:       "both fields in frontmatter",
			content:    "---\npeople: 8\nstart: 2024-01-01\n---\nPersonen: 3\nStarttag: 2025-05-05\n\nMontag: [[Curry]]\n",
			wantPeople: 8,
			wantStart:  "2024-01-01",
		},
		{
			name:       "start only in frontmatter",
			content:    "---\nstarttag: 2024-01-01\n---\n3\n2025-05-05\n\nMontag: [[Curry]]\n",
			wantPeople: 3,
			wantStart:  "2024-01-01",
		},
		{
			name:       "people only in frontmatter",
			content:    "---\npersonen: 8\n---\nPersonen: 3\nStarttag: 2025-05-05\n\nMontag: [[Curry]]\n",
			wantPeople: 8,
			wantStart:  "2025-05-05",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := NewParser(germanLocale(t), 0).Parse("plan.md", []byte(tt.content))
			require.NoError(t, err)
			assert.Equal(t, tt.wantPeople, plan.DefaultHeadcount)
			assert.Equal(t, date(t, tt.wantStart), plan.Start)
		})
	}
}

func TestParseListPlan(t *testing.T) {
	content := `Personen: 10
Starttag: 2024-07-01

Montag (8): [[Curry]] (3), [[Reis]], ⟨Markt⟩
Dienstag: Reste
Mittwoch: [[Suppe]]
Donnerstag:
`
	plan, err := NewParser(germanLocale(t), 0).Parse("plan.md", []byte(content))
	require.NoError(t, err)

	assert.Equal(t, types.DialectList, plan.Dialect)
	assert.Equal(t, uint(10), plan.DefaultHeadcount)
	assert.Equal(t, []types.Day{
		{
			Heading:   "Montag",
			Headcount: uintPtr(8),
			Slots: []types.MealSlot{{
				References: []types.MealReference{
					{DishName: "Curry", Headcount: floatPtr(3)},
					{DishName: "Reis"},
				},
				Shopping: true,
			}},
		},
		{Heading: "Dienstag", Slots: []types.MealSlot{{Text: "Reste"}}},
		{Heading: "Mittwoch", Slots: []types.MealSlot{{References: []types.MealReference{{DishName: "Suppe"}}}}},
		{Heading: "Donnerstag"},
	}, plan.Days)

	assert.Equal(t, []types.Serving{
		{Day: "Montag", DishName: "Curry", Headcount: 3},
		{Day: "Montag", DishName: "Reis", Headcount: 8},
		{Day: "Mittwoch", DishName: "Suppe", Headcount: 10},
	}, plan.Servings())
}

func TestParseDialectsConverge(t *testing.T) {
	loc := germanLocale(t)
	table := "Personen: 3\nStarttag: 2024-02-05\n| | Montag (2) |\n|---|---|\n| | [[Curry]] |\n"
	outline := "Personen: 3\nStarttag: 2024-02-05\n## Montag (2)\n- [[Curry]]\n"
	list := "Personen: 3\nStarttag: 2024-02-05\nMontag (2): [[Curry]]\n"

	var servings [][]types.Serving
	for _, content := range []string{table, outline, list} {
		plan, err := NewParser(loc, 0).Parse("plan.md", []byte(content))
		require.NoError(t, err)
		servings = append(servings, plan.Servings())
	}
	want := []types.Serving{{Day: "Montag", DishName: "Curry", Headcount: 2}}
	for _, s := range servings {
		assert.Equal(t, want, s)
	}
}

func TestParseDefaultHeadcountFallback(t *testing.T) {
	content := "Starttag: 2024-02-05\nMontag: [[Curry]]\n"

	plan, err := NewParser(germanLocale(t), 5).Parse("plan.md", []byte(content))
	require.NoError(t, err)
	assert.Equal(t, uint(5), plan.DefaultHeadcount)

	_, err = NewParser(germanLocale(t), 0).Parse("plan.md", []byte(content))
	assert.ErrorIs(t, err, types.ErrPlanSyntax)
}

func TestParsePlanErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		line    int
		column  int
	}{
		{
			name:    "column count mismatch",
			content: "4\n2024-01-01\n| | Mo | Di |\n|---|---|---|\n| Mittag | [[A]] |\n",
			line:    5,
			column:  19,
		},
		{
			name:    "extra column",
			content: "4\n2024-01-01\n| | Mo |\n|---|---|\n| Mittag | [[A]] | [[B]] |\n",
			line:    5,
			column:  19,
		},
		{
			name:    "unterminated reference",
			content: "4\n2024-01-01\n| | Mo |\n|---|---|\n| Mittag | [[Curry |\n",
			line:    5,
			column:  12,
		},
		{
			name:    "malformed divider",
			content: "4\n2024-01-01\n| | Mo |\n|---|x-x|\n| Mittag | [[A]] |\n",
			line:    0,
		},
		{
			name:    "no meal rows",
			content: "4\n2024-01-01\n| | Mo |\n|---|---|\n",
			line:    4,
			column:  1,
		},
		{
			name:    "unterminated reference in list",
			content: "Personen: 4\nStarttag: 2024-01-01\nMontag: [[Curry]], [[Reis\n",
			line:    3,
			column:  20,
		},
		{
			name:    "stray line in list",
			content: "Personen: 4\nStarttag: 2024-01-01\nMontag: [[Curry]]\nDienstag [[Reis]]\n",
			line:    4,
			column:  1,
		},
		{
			name:    "invalid start date",
			content: "Personen: 4\nStarttag: 2024-13-01\nMontag: [[Curry]]\n",
			line:    2,
			column:  1,
		},
		{
			name:    "zero headcount",
			content: "Personen: 0\nStarttag: 2024-01-01\nMontag: [[Curry]]\n",
			line:    1,
			column:  1,
		},
		{
			name:    "zero day headcount in table",
			content: "4\n2024-01-01\n| | Mo (0) |\n|---|---|\n| Mittag | [[A]] |\n",
			line:    3,
			column:  4,
		},
		{
			name:    "zero reference headcount in table",
			content: "4\n2024-01-01\n| | Mo |\n|---|---|\n| Mittag | [[A]] (0) |\n",
			line:    5,
			column:  18,
		},
		{
			name:    "zero day headcount in outline",
			content: "Personen: 4\nStarttag: 2024-01-01\n## Montag (0)\n- [[Curry]]\n",
			line:    3,
			column:  1,
		},
		{
			name:    "zero reference headcount in outline",
			content: "Personen: 4\nStarttag: 2024-01-01\n## Montag\n- [[Curry]] (0)\n",
			line:    4,
			column:  13,
		},
		{
			name:    "zero reference headcount in list",
			content: "Personen: 4\nStarttag: 2024-01-01\nMontag: [[Curry]] (0)\n",
			line:    3,
			column:  19,
		},
		{
			name:    "missing start date",
			content: "Personen: 4\nMontag: [[Curry]]\n",
		},
		{
			name:    "no plan body",
			content: "Personen: 4\nStarttag: 2024-01-01\nNur Text.\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParser(germanLocale(t), 0).Parse("woche.md", []byte(tt.content))
			require.Error(t, err)
			assert.ErrorIs(t, err, types.ErrPlanSyntax)

			var perr *types.ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, "woche.md", perr.Path)
			if tt.line > 0 {
				assert.Equal(t, tt.line, perr.Line)
				assert.Equal(t, tt.column, perr.Column)
			}
		})
	}
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plan.md")
	require.NoError(t, os.WriteFile(path, []byte(tablePlan), 0o644))

	plan, err := NewParser(germanLocale(t), 0).ParseFile(path)
	require.NoError(t, err)
	assert.Len(t, plan.Days, 2)

	_, err = NewParser(germanLocale(t), 0).ParseFile(filepath.Join(dir, "nope.md"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
