package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/dishcalc/internal/config"
	"github.com/mesh-intelligence/dishcalc/internal/paths"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the configuration file and history database",
		Long: `Init writes a default config.yaml to the configuration directory, unless one
exists, and creates the history database in the data directory.`,
		Args: argsRange(0, 0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, err := paths.ResolveConfigDir(a.flags.configDir)
			if err != nil {
				return fmt.Errorf("resolve config dir: %w", err)
			}
			dataDir, err := paths.ResolveDataDir(a.flags.dataDir, a.cfg.DataDir)
			if err != nil {
				return fmt.Errorf("resolve data dir: %w", err)
			}

			written, err := config.WriteDefault(configDir, a.flags.dataDir)
			if err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			store, err := a.openHistory()
			if err != nil {
				return err
			}
			if err := store.Close(); err != nil {
				return fmt.Errorf("finalize history: %w", err)
			}

			verb := "kept"
			if written {
				verb = "wrote"
			}
			fmt.Fprintf(a.stdout, "%s %s\n", verb, filepath.Join(configDir, config.FileName))
			fmt.Fprintf(a.stdout, "history in %s\n", dataDir)
			return nil
		},
	}
}
