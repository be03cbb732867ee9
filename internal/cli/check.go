package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/dishcalc/internal/logging"
	"github.com/mesh-intelligence/dishcalc/internal/plan"
	"github.com/mesh-intelligence/dishcalc/internal/recipe"
	"github.com/mesh-intelligence/dishcalc/internal/shopping"
	"github.com/mesh-intelligence/dishcalc/pkg/types"
)

// checkProblem is one reference that failed to resolve or parse.
type checkProblem struct {
	Day     string `json:"day"`
	Dish    string `json:"dish"`
	Message string `json:"message"`
}

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check [plan]",
		Short: "Parse a plan and verify every referenced recipe",
		Long: `Check parses the plan, prints the recovered days and meals, and verifies
that every referenced dish resolves to exactly one recipe that declares its
participants and an ingredients section. No files are written.`,
		Args: argsRange(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path := a.planPath(args)

			loc, err := a.cfg.ResolveLocale()
			if err != nil {
				return err
			}
			wp, err := plan.NewParser(loc, a.cfg.DefaultPeople).ParseFile(path)
			if err != nil {
				return err
			}
			a.moduleLogger(logging.PlanModule).Debug("plan parsed", "path", path, "dialect", wp.Dialect.String(), "days", len(wp.Days))
			idx, err := a.index(ctx)
			if err != nil {
				return err
			}
			parser, err := recipe.NewParser(loc)
			if err != nil {
				return err
			}

			var problems []checkProblem
			checked := map[string]bool{}
			servings := wp.Servings()
			for _, s := range servings {
				if checked[s.DishName] {
					continue
				}
				checked[s.DishName] = true
				recipePath, err := idx.Lookup(s.DishName)
				if err == nil {
					_, err = parser.ParseFile(recipePath)
				}
				if err != nil {
					problems = append(problems, checkProblem{Day: s.Day, Dish: s.DishName, Message: err.Error()})
				}
			}

			if a.flags.jsonMode {
				if err := a.printJSON(struct {
					Plan     *types.WeekPlan `json:"plan"`
					Servings []types.Serving `json:"servings"`
					Problems []checkProblem  `json:"problems,omitempty"`
				}{wp, servings, problems}); err != nil {
					return err
				}
			} else {
				fmt.Fprint(a.stdout, describePlan(path, wp))
				for _, pr := range problems {
					fmt.Fprintln(a.stderr, errorStyle.Render("problem:")+" "+pr.Day+": "+pr.Message)
				}
			}
			if len(problems) > 0 {
				return userError{errors.New(plural(len(problems), "reference") + " failed to check")}
			}
			return nil
		},
	}
}

// describePlan renders the recovered plan structure for humans.
func describePlan(path string, wp *types.WeekPlan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s plan starting %s", path, wp.Dialect, wp.Start.Format("2006-01-02"))
	if wp.DefaultHeadcount > 0 {
		fmt.Fprintf(&b, " for %d", wp.DefaultHeadcount)
	}
	b.WriteString("\n")
	for _, day := range wp.Days {
		b.WriteString(headStyle.Render(day.Heading))
		if day.Headcount != nil {
			fmt.Fprintf(&b, " (%d)", *day.Headcount)
		}
		b.WriteString("\n")
		for _, slot := range day.Slots {
			b.WriteString("  - ")
			if slot.Label != "" {
				b.WriteString(slot.Label + ": ")
			}
			var parts []string
			for _, ref := range slot.References {
				part := "[[" + ref.DishName + "]]"
				if ref.Headcount != nil {
					part += " (" + shopping.FormatAmount(*ref.Headcount) + ")"
				}
				parts = append(parts, part)
			}
			if slot.Shopping {
				parts = append(parts, "shopping")
			}
			if slot.Text != "" {
				parts = append(parts, dimStyle.Render(slot.Text))
			}
			b.WriteString(strings.Join(parts, ", "))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}
