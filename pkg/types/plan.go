package types

import "time"

// Dialect identifies which layout a plan document used. It is decided once
// when parsing starts and never re-interpreted afterwards.
type Dialect int

const (
	// DialectTable is a markdown table: columns are days, rows are meal times.
	DialectTable Dialect = iota
	// DialectOutline uses headings for days and bullets for meal slots.
	DialectOutline
	// DialectList uses one "Day (N): [[Dish]], ..." line per day.
	DialectList
)

// String returns the lower-case dialect name.
func (d Dialect) String() string {
	switch d {
	case DialectTable:
		return "table"
	case DialectOutline:
		return "outline"
	case DialectList:
		return "list"
	default:
		return "unknown"
	}
}

// MealReference points from the plan to a recipe document by dish name.
// Headcount, when set, overrides every other headcount for this reference only.
type MealReference struct {
	DishName  string
	Headcount *float64
}

// MealSlot is one meal time within a day.
type MealSlot struct {
	Label      string
	References []MealReference
	Shopping   bool   // The slot carries a shopping marker.
	Text       string // Plain text found in the slot, kept for display only.
}

// Day is one column (table), heading (outline) or line (list) of the plan.
type Day struct {
	Heading   string
	Headcount *uint
	Slots     []MealSlot
}

// WeekPlan is the structured form of a plan document.
type WeekPlan struct {
	Start            time.Time
	DefaultHeadcount uint
	Days             []Day
	Dialect          Dialect
}

// Serving is a single meal reference together with its effective headcount.
type Serving struct {
	Day       string
	Slot      string
	DishName  string
	Headcount float64
}

// Servings flattens the plan into references in plan order (day by day,
// slot by slot) and resolves each one's headcount: an explicit reference
// headcount wins, then the day's headcount, then the plan default.
func (w WeekPlan) Servings() []Serving {
	var out []Serving
	for _, day := range w.Days {
		dayCount := float64(w.DefaultHeadcount)
		if day.Headcount != nil {
			dayCount = float64(*day.Headcount)
		}
		for _, slot := range day.Slots {
			for _, ref := range slot.References {
				count := dayCount
				if ref.Headcount != nil {
					count = *ref.Headcount
				}
				out = append(out, Serving{
					Day:       day.Heading,
					Slot:      slot.Label,
					DishName:  ref.DishName,
					Headcount: count,
				})
			}
		}
	}
	return out
}

// ShoppingDays returns the headings of days with at least one slot that
// carries a shopping marker, in plan order.
func (w WeekPlan) ShoppingDays() []string {
	var out []string
	for _, day := range w.Days {
		for _, slot := range day.Slots {
			if slot.Shopping {
				out = append(out, day.Heading)
				break
			}
		}
	}
	return out
}
