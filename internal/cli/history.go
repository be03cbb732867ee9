package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newHistoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List and show recorded runs",
	}
	cmd.AddCommand(newHistoryListCmd(a), newHistoryShowCmd(a))
	return cmd
}

func newHistoryListCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, newest first",
		Args:  argsRange(0, 0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.openHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return a.printJSON(runs)
			}
			if len(runs) == 0 {
				fmt.Fprintln(a.stderr, dimStyle.Render("no runs recorded"))
				return nil
			}
			tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCREATED\tSTART\tSERVINGS\tPLAN")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
					r.ID, r.CreatedAt.Local().Format(time.DateTime), r.Start.Format(time.DateOnly), r.Servings, r.PlanPath)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to list, 0 for all")
	return cmd
}

func newHistoryShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print the shopping list of a recorded run",
		Long:  "Show prints the list written by a recorded run. The id may be abbreviated to any unique prefix.",
		Args:  argsRange(1, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.Show(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return a.printJSON(run)
			}
			fmt.Fprintln(a.stderr, dimStyle.Render(fmt.Sprintf("%s  %s  %s", run.ID, run.PlanPath, run.Start.Format(time.DateOnly))))
			fmt.Fprint(a.stdout, run.Output)
			return nil
		},
	}
}
