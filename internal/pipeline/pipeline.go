// Package pipeline runs a plan end to end: resolve every meal reference,
// parse and scale each recipe, and aggregate the results.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/mesh-intelligence/dishcalc/internal/logging"
	"github.com/mesh-intelligence/dishcalc/internal/plan"
	"github.com/mesh-intelligence/dishcalc/internal/recipe"
	"github.com/mesh-intelligence/dishcalc/internal/shopping"
	"github.com/mesh-intelligence/dishcalc/pkg/types"
)

// Resolver maps a dish name to a recipe path.
type Resolver interface {
	Lookup(name string) (string, error)
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithWorkers bounds how many recipes are parsed at once. Values below 1
// select GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(p *Pipeline) { p.workers = n }
}

// WithLogger sets the logger; the default discards.
func WithLogger(l logging.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.log = l
		}
	}
}

// WithDefaultHeadcount is used for plans that declare no headcount.
func WithDefaultHeadcount(n uint) Option {
	return func(p *Pipeline) { p.defaultHeadcount = n }
}

// Pipeline turns plans into shopping lists. It holds no per-run state and
// may be reused.
type Pipeline struct {
	locale           types.Locale
	resolver         Resolver
	recipes          *recipe.Parser
	tokenizer        *recipe.Tokenizer
	workers          int
	defaultHeadcount uint
	log              logging.Logger
}

// New creates a pipeline for locale that resolves dishes through resolver.
func New(locale types.Locale, resolver Resolver, opts ...Option) (*Pipeline, error) {
	if resolver == nil {
		return nil, errors.New("pipeline: resolver is required")
	}
	parser, err := recipe.NewParser(locale)
	if err != nil {
		return nil, err
	}
	p := &Pipeline{
		locale:    locale,
		resolver:  resolver,
		recipes:   parser,
		tokenizer: recipe.NewTokenizer(locale),
		log:       logging.NoOp(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.workers < 1 {
		p.workers = runtime.GOMAXPROCS(0)
	}
	return p, nil
}

// DishResult is one meal reference after parsing and scaling.
type DishResult struct {
	Serving     types.Serving      `json:"serving"`
	Path        string             `json:"path"`
	Declared    uint               `json:"declared"`
	Ingredients []types.Ingredient `json:"ingredients"`
}

// Result is the outcome of a successful run.
type Result struct {
	Plan     *types.WeekPlan         `json:"plan"`
	Dishes   []DishResult            `json:"dishes"`
	Entries  []types.AggregatedEntry `json:"entries"`
	Warnings []types.Warning         `json:"warnings,omitempty"`
}

// Markdown renders the aggregated list.
func (r *Result) Markdown() string {
	return shopping.Render(r.Entries)
}

// ParsePlan parses the plan document at path.
func (p *Pipeline) ParsePlan(path string) (*types.WeekPlan, error) {
	return plan.NewParser(p.locale, p.defaultHeadcount).ParseFile(path)
}

// RunFile parses the plan at path and runs it.
func (p *Pipeline) RunFile(ctx context.Context, path string) (*Result, error) {
	wp, err := p.ParsePlan(path)
	if err != nil {
		return nil, err
	}
	p.log.Debug("plan parsed", "path", path, "dialect", wp.Dialect.String(), "days", len(wp.Days))
	return p.Run(ctx, wp)
}

// Run resolves, parses and scales every serving of wp and aggregates the
// ingredients. Every dish name is resolved before any recipe is read, so a
// lookup failure never leaves partial work behind. Recipes are processed
// concurrently and merged in plan order; the result is identical to a
// sequential run. Any fatal error aborts the run and no result is returned.
func (p *Pipeline) Run(ctx context.Context, wp *types.WeekPlan) (*Result, error) {
	servings := wp.Servings()

	paths := make([]string, len(servings))
	for i, s := range servings {
		path, err := p.resolver.Lookup(s.DishName)
		if err != nil {
			return nil, fmt.Errorf("%s, %s: %w", s.Day, slotName(s), err)
		}
		paths[i] = path
	}

	results := make([]DishResult, len(servings))
	warnings := make([][]types.Warning, len(servings))
	errs := make([]error, len(servings))

	// A failure does not cancel the siblings: every started serving runs to
	// completion so the earliest failure in plan order is always recorded.
	var g errgroup.Group
	g.SetLimit(p.workers)
	for i := range servings {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, warns, err := p.prepare(paths[i], servings[i])
			if err != nil {
				errs[i] = err
				return err
			}
			results[i] = res
			warnings[i] = warns
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		// Report the earliest failing serving so errors are reproducible.
		for _, e := range errs {
			if e != nil {
				return nil, e
			}
		}
		return nil, err
	}

	var (
		all      []types.Ingredient
		warnList []types.Warning
	)
	for i := range results {
		all = append(all, results[i].Ingredients...)
		for _, w := range warnings[i] {
			p.log.Warn("unparsable amount", "path", w.Path, "line", w.Line, "token", w.Token)
			warnList = append(warnList, w)
		}
	}

	entries := shopping.Aggregate(all)
	p.log.Info("run complete", "servings", len(servings), "ingredients", len(entries), "warnings", len(warnList))
	return &Result{
		Plan:     wp,
		Dishes:   results,
		Entries:  entries,
		Warnings: warnList,
	}, nil
}

// Scale parses and scales a single dish for headcount people.
func (p *Pipeline) Scale(ctx context.Context, dish string, headcount float64) (*DishResult, []types.Warning, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	path, err := p.resolver.Lookup(dish)
	if err != nil {
		return nil, nil, err
	}
	res, warns, err := p.prepare(path, types.Serving{DishName: dish, Headcount: headcount})
	if err != nil {
		return nil, nil, err
	}
	return &res, warns, nil
}

// prepare parses the recipe fresh for every serving; documents are never
// cached between references.
func (p *Pipeline) prepare(path string, s types.Serving) (DishResult, []types.Warning, error) {
	doc, err := p.recipes.ParseFile(path)
	if err != nil {
		return DishResult{}, nil, err
	}
	ings, warns, err := recipe.Prepare(doc, p.tokenizer, s.Headcount)
	if err != nil {
		return DishResult{}, nil, err
	}
	p.log.Debug("dish scaled", "dish", s.DishName, "declared", doc.Participants, "requested", s.Headcount)
	return DishResult{
		Serving:     s,
		Path:        path,
		Declared:    doc.Participants,
		Ingredients: ings,
	}, warns, nil
}

func slotName(s types.Serving) string {
	if s.Slot == "" {
		return "menu"
	}
	return s.Slot
}
