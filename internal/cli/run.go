package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/dishcalc/internal/history"
	"github.com/mesh-intelligence/dishcalc/internal/logging"
	"github.com/mesh-intelligence/dishcalc/internal/output"
	"github.com/mesh-intelligence/dishcalc/internal/pipeline"
)

func newRunCmd(a *app) *cobra.Command {
	var render bool
	cmd := &cobra.Command{
		Use:   "run [plan]",
		Short: "Generate the shopping list for a plan",
		Long: `Run parses the plan, scales every referenced recipe and writes list.md to
the output directory. When categories are configured list_clustered.md is
written as well. With --json the full result is also written as list.json
and printed instead of the list.

Nothing is written when a recipe or the plan has an error.`,
		Args: argsRange(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runPlan(cmd.Context(), a.planPath(args), render)
		},
	}
	cmd.Flags().BoolVar(&render, "render", false, "style the printed list for the terminal")
	return cmd
}

func (a *app) runPlan(ctx context.Context, planPath string, render bool) error {
	p, loc, err := a.newPipeline(ctx)
	if err != nil {
		return err
	}
	res, err := p.RunFile(ctx, planPath)
	if err != nil {
		return err
	}
	printWarnings(a.stderr, res.Warnings)

	w, err := a.outputWriter(loc, a.flags.jsonMode)
	if err != nil {
		return err
	}
	arts, err := w.Write(ctx, res)
	if err != nil {
		return err
	}
	id := a.record(ctx, planPath, res)

	if a.flags.jsonMode {
		return a.printJSON(struct {
			RunID     string           `json:"run_id,omitempty"`
			Artifacts output.Artifacts `json:"artifacts"`
			Result    *pipeline.Result `json:"result"`
		}{id, arts, res})
	}

	list := res.Markdown()
	if render {
		list = renderMarkdown(a.stdout, list)
	}
	fmt.Fprint(a.stdout, list)
	fmt.Fprintln(a.stderr, dimStyle.Render(fmt.Sprintf("%d dishes, %d ingredients written to %s", len(res.Dishes), len(res.Entries), arts.List)))
	if days := res.Plan.ShoppingDays(); len(days) > 0 {
		fmt.Fprintln(a.stderr, dimStyle.Render("shopping on: "+strings.Join(days, ", ")))
	}
	return nil
}

// record stores a successful run in the history. Failures are logged; the
// list has already been written.
func (a *app) record(ctx context.Context, planPath string, res *pipeline.Result) string {
	if !a.cfg.HistoryEnabled {
		return ""
	}
	log := a.moduleLogger(logging.HistoryModule)
	store, err := a.openHistory()
	if err != nil {
		log.Warn("history unavailable", "error", err)
		return ""
	}
	defer store.Close()

	id, err := store.Record(ctx, history.Run{
		PlanPath: planPath,
		Start:    res.Plan.Start,
		Dialect:  res.Plan.Dialect.String(),
		Servings: len(res.Dishes),
		Output:   res.Markdown(),
		Entries:  res.Entries,
	})
	if err != nil {
		log.Warn("recording run failed", "error", err)
		return ""
	}
	log.Debug("run recorded", "id", id)
	return id
}
