package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newDishesCmd(a *app) *cobra.Command {
	var suggest string
	cmd := &cobra.Command{
		Use:   "dishes",
		Short: "List the recipes found below the dish root",
		Long: `Dishes walks the dish root and lists every recipe by dish name. Names found
more than once are marked, since plans cannot reference them unambiguously.
With --suggest, prints the closest dish names to the given one instead.`,
		Args: argsRange(0, 0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			idx, err := a.index(cmd.Context())
			if err != nil {
				return err
			}

			if suggest != "" {
				matches := idx.Suggest(suggest)
				if a.flags.jsonMode {
					return a.printJSON(matches)
				}
				for _, m := range matches {
					fmt.Fprintln(a.stdout, m)
				}
				return nil
			}

			entries := idx.Entries()
			if a.flags.jsonMode {
				return a.printJSON(entries)
			}
			dups := idx.Duplicates()
			tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			for _, e := range entries {
				mark := ""
				if _, dup := dups[e.Name]; dup {
					mark = warnStyle.Render("duplicate")
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Name, e.Path, mark)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintln(a.stderr, dimStyle.Render(fmt.Sprintf("%d dishes in %s", idx.Len(), idx.Root())))
			return nil
		},
	}
	cmd.Flags().StringVar(&suggest, "suggest", "", "print dish names close to this one")
	return cmd
}
