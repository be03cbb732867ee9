package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/dishcalc/pkg/dishcalc"
)

const modulePath = "github.com/mesh-intelligence/dishcalc"

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the dishcalc version",
		Args:  argsRange(0, 0),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(a.stdout, "dishcalc v%s\nmodule: %s\n", dishcalc.Version, modulePath)
			return nil
		},
	}
}
