package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/dishcalc/internal/logging"
	"github.com/mesh-intelligence/dishcalc/internal/output"
	"github.com/mesh-intelligence/dishcalc/internal/pdf"
	"github.com/mesh-intelligence/dishcalc/internal/shopping"
)

func newPDFCmd(a *app) *cobra.Command {
	var (
		browser   string
		clustered bool
		title     string
	)
	cmd := &cobra.Command{
		Use:   "pdf [plan]",
		Short: "Export the shopping list of a plan as list.pdf",
		Long: `Pdf runs the plan like "run" and prints the list to list.pdf in the output
directory using a headless Chromium. Nothing else is written.`,
		Args: argsRange(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, loc, err := a.newPipeline(ctx)
			if err != nil {
				return err
			}
			res, err := p.RunFile(ctx, a.planPath(args))
			if err != nil {
				return err
			}
			printWarnings(a.stderr, res.Warnings)

			md := res.Markdown()
			if clustered && len(a.cfg.Categories) > 0 {
				clusters, err := shopping.NewCategoryClusterer(a.cfg.Categories, loc.OtherCategory).Cluster(ctx, res.Entries)
				if err != nil {
					a.log.Warn("clustering failed", "error", err)
				} else {
					md = shopping.RenderClusters(clusters)
				}
			}
			if title == "" {
				title = res.Plan.Start.Format("2006-01-02")
			}

			log := a.moduleLogger(logging.PDFModule)
			log.Debug("printing pdf", "title", title, "browser", browser)
			data, err := pdf.Export(ctx, pdf.RodPrinter{Bin: browser}, title, md)
			if err != nil {
				return err
			}

			w, err := a.outputWriter(loc, false)
			if err != nil {
				return err
			}
			path, err := w.WriteFile(ctx, output.PDFFile, data)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, path)
			return nil
		},
	}
	cmd.Flags().StringVar(&browser, "browser", "", "Chromium binary (default: found or downloaded by go-rod)")
	cmd.Flags().BoolVar(&clustered, "clustered", false, "group the list by configured categories")
	cmd.Flags().StringVar(&title, "title", "", "document title (default: plan start date)")
	return cmd
}
