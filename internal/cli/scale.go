package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/dishcalc/internal/pipeline"
	"github.com/mesh-intelligence/dishcalc/internal/shopping"
	"github.com/mesh-intelligence/dishcalc/pkg/types"
)

func newScaleCmd(a *app) *cobra.Command {
	var render bool
	cmd := &cobra.Command{
		Use:   "scale <dish> <people>",
		Short: "Print one recipe's ingredients scaled to a headcount",
		Example: `  dishcalc scale Curry 6
  dishcalc scale "Linsen Dal" 2.5 --json`,
		Args: argsRange(2, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			people, err := strconv.ParseFloat(strings.Replace(args[1], ",", ".", 1), 64)
			if err != nil || people <= 0 {
				return userErrorf("invalid headcount %q", args[1])
			}

			p, _, err := a.newPipeline(cmd.Context())
			if err != nil {
				return err
			}
			res, warns, err := p.Scale(cmd.Context(), args[0], people)
			if err != nil {
				return err
			}
			printWarnings(a.stderr, warns)

			if a.flags.jsonMode {
				return a.printJSON(struct {
					Dish     *pipeline.DishResult `json:"dish"`
					Warnings []types.Warning      `json:"warnings,omitempty"`
				}{res, warns})
			}
			md := scaledMarkdown(res.Serving.DishName, people, res.Declared, res.Ingredients)
			if render {
				md = renderMarkdown(a.stdout, md)
			}
			fmt.Fprint(a.stdout, md)
			return nil
		},
	}
	cmd.Flags().BoolVar(&render, "render", false, "style the output for the terminal")
	return cmd
}

func scaledMarkdown(dish string, people float64, declared uint, ings []types.Ingredient) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s (%s, recipe for %d)\n\n", dish, shopping.FormatAmount(people), declared)
	for _, ing := range ings {
		fmt.Fprintf(&b, "- %s%s %s\n", shopping.FormatAmount(ing.Amount), ing.Measure, ing.Name)
	}
	return b.String()
}
