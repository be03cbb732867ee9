// Package dishcalc is the public API for generating shopping lists from a
// meal plan and a directory of recipe documents. It wraps the internal
// pipeline while keeping implementation details internal.
//
// Example:
//
//	list, err := dishcalc.ShoppingList(ctx, dishcalc.Options{
//	    Plan:     "plan.md",
//	    DishRoot: "rezepte",
//	})
//	fmt.Print(list.Markdown)
package dishcalc

import (
	"context"

	"github.com/mesh-intelligence/dishcalc/internal/dishes"
	"github.com/mesh-intelligence/dishcalc/internal/pipeline"
	"github.com/mesh-intelligence/dishcalc/pkg/types"
)

// Version is the dishcalc release.
const Version = "0.1.0"

// Options selects the plan, recipes and vocabulary of one run.
type Options struct {
	Plan     string
	DishRoot string
	// Locale defaults to the built-in German locale.
	Locale *types.Locale
	// DefaultHeadcount applies to plans that declare none.
	DefaultHeadcount uint
	// Workers bounds parallel recipe parsing; zero uses every CPU.
	Workers int
}

// List is a generated shopping list.
type List struct {
	Entries  []types.AggregatedEntry
	Warnings []types.Warning
	Markdown string
}

// ShoppingList runs the plan in opts against the recipes below
// opts.DishRoot. Any fatal error aborts the run and no list is returned.
func ShoppingList(ctx context.Context, opts Options) (*List, error) {
	loc, err := types.LocaleByName(types.LocaleGerman)
	if err != nil {
		return nil, err
	}
	if opts.Locale != nil {
		loc = opts.Locale.Clone()
	}
	idx, err := dishes.Scan(ctx, opts.DishRoot)
	if err != nil {
		return nil, err
	}
	p, err := pipeline.New(loc, idx,
		pipeline.WithWorkers(opts.Workers),
		pipeline.WithDefaultHeadcount(opts.DefaultHeadcount),
	)
	if err != nil {
		return nil, err
	}
	res, err := p.RunFile(ctx, opts.Plan)
	if err != nil {
		return nil, err
	}
	return &List{Entries: res.Entries, Warnings: res.Warnings, Markdown: res.Markdown()}, nil
}
