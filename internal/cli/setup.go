package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/dishcalc/internal/config"
	"github.com/mesh-intelligence/dishcalc/internal/dishes"
	"github.com/mesh-intelligence/dishcalc/internal/history"
	"github.com/mesh-intelligence/dishcalc/internal/logging"
	"github.com/mesh-intelligence/dishcalc/internal/logging/gologger"
	"github.com/mesh-intelligence/dishcalc/internal/output"
	"github.com/mesh-intelligence/dishcalc/internal/paths"
	"github.com/mesh-intelligence/dishcalc/internal/pipeline"
	"github.com/mesh-intelligence/dishcalc/internal/shopping"
	"github.com/mesh-intelligence/dishcalc/pkg/types"
)

// setup loads configuration, applies flag overrides and builds the logger.
// Flags win over config.yaml, which wins over defaults.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	cfg, err := config.Load(configDir)
	if err != nil {
		return userError{err}
	}

	f := a.flags
	if f.locale != "" {
		cfg.Locale = f.locale
	}
	if f.dishRoot != "" {
		cfg.DishRoot = f.dishRoot
	}
	if f.plan != "" {
		cfg.Plan = f.plan
	}
	if f.people > 0 {
		cfg.DefaultPeople = f.people
	}
	if f.workers > 0 {
		cfg.Workers = f.workers
	}
	if f.noHistory {
		cfg.HistoryEnabled = false
	}
	if f.verbose {
		cfg.LogLevel = "debug"
	}
	a.cfg = cfg

	provider, err := gologger.NewProvider(gologger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		return userErrorf("%w: %v", config.ErrInvalidConfig, err)
	}
	a.provider = provider
	a.log = logging.ModuleLogger(provider, logging.RootModule).WithContext(cmd.Context())
	a.log.Debug("configuration loaded", "config", cfg.Path, "locale", cfg.Locale, "dish_root", cfg.DishRoot)
	return nil
}

func (a *app) moduleLogger(module string) logging.Logger {
	return logging.ModuleLogger(a.provider, module)
}

func (a *app) planPath(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return a.cfg.Plan
}

func (a *app) index(ctx context.Context) (*dishes.Index, error) {
	idx, err := dishes.Scan(ctx, a.cfg.DishRoot)
	if err != nil {
		return nil, err
	}
	for name, dups := range idx.Duplicates() {
		a.log.Debug("duplicate dish name", "dish", name, "paths", dups)
	}
	a.log.Debug("dishes indexed", "root", idx.Root(), "dishes", idx.Len())
	return idx, nil
}

// newPipeline resolves the locale, indexes the dish root and builds the
// pipeline.
func (a *app) newPipeline(ctx context.Context) (*pipeline.Pipeline, types.Locale, error) {
	loc, err := a.cfg.ResolveLocale()
	if err != nil {
		return nil, types.Locale{}, err
	}
	idx, err := a.index(ctx)
	if err != nil {
		return nil, types.Locale{}, err
	}
	p, err := pipeline.New(loc, idx,
		pipeline.WithWorkers(a.cfg.Workers),
		pipeline.WithDefaultHeadcount(a.cfg.DefaultPeople),
		pipeline.WithLogger(a.moduleLogger(logging.PipelineModule)),
	)
	if err != nil {
		return nil, types.Locale{}, err
	}
	return p, loc, nil
}

func (a *app) outputWriter(loc types.Locale, withJSON bool) (*output.Writer, error) {
	dir, err := paths.ResolveOutputDir(a.flags.outputDir, a.cfg.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("resolve output dir: %w", err)
	}
	opts := []output.Option{
		output.WithJSON(withJSON),
		output.WithLogger(a.moduleLogger(logging.OutputModule)),
	}
	if len(a.cfg.Categories) > 0 {
		opts = append(opts, output.WithClusterer(shopping.NewCategoryClusterer(a.cfg.Categories, loc.OtherCategory)))
	}
	return output.New(dir, opts...), nil
}

func (a *app) openHistory() (*history.Store, error) {
	dir, err := paths.ResolveDataDir(a.flags.dataDir, a.cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}
	store, err := history.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	return store, nil
}

func (a *app) printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	fmt.Fprintln(a.stdout, string(data))
	return nil
}
