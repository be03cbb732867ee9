// Package cli implements the dishcalc command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/dishcalc/internal/config"
	"github.com/mesh-intelligence/dishcalc/internal/history"
	"github.com/mesh-intelligence/dishcalc/internal/logging"
	"github.com/mesh-intelligence/dishcalc/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	outputDir string
	dishRoot  string
	plan      string
	locale    string
	people    uint
	workers   int
	jsonMode  bool
	verbose   bool
	noHistory bool
}

// app is the state shared by the commands of one invocation.
type app struct {
	flags    rootFlags
	cfg      *config.Config
	provider logging.Provider
	log      logging.Logger
	stdout   io.Writer
	stderr   io.Writer
}

// userError marks failures caused by input rather than the environment.
type userError struct{ err error }

func (e userError) Error() string { return e.err.Error() }
func (e userError) Unwrap() error { return e.err }

func userErrorf(format string, args ...any) error {
	return userError{fmt.Errorf(format, args...)}
}

// NewRootCmd creates the top-level "dishcalc" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&app{stdout: os.Stdout, stderr: os.Stderr})
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "dishcalc",
		Short: "Turn a meal plan and recipe files into one shopping list",
		Long: `dishcalc reads a markdown meal plan, finds every referenced recipe below
the dish root, scales each recipe to the planned headcount and writes one
aggregated shopping list.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return userError{err}
	})

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	pf.StringVar(&a.flags.dataDir, "data-dir", "", "history directory (default: platform data dir)")
	pf.StringVarP(&a.flags.outputDir, "output-dir", "o", "", "directory for list.md (default: working directory)")
	pf.StringVarP(&a.flags.dishRoot, "dish-root", "d", "", "root directory searched for recipes (default: .)")
	pf.StringVarP(&a.flags.plan, "plan", "p", "", "plan file (default: plan.md)")
	pf.StringVar(&a.flags.locale, "locale", "", "built-in locale: de or en")
	pf.UintVar(&a.flags.people, "people", 0, "headcount for plans that declare none")
	pf.IntVar(&a.flags.workers, "workers", 0, "recipes parsed in parallel (default: number of CPUs)")
	pf.BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")
	pf.BoolVarP(&a.flags.verbose, "verbose", "v", false, "debug logging")
	pf.BoolVar(&a.flags.noHistory, "no-history", false, "do not record the run")

	root.AddCommand(
		newRunCmd(a),
		newCheckCmd(a),
		newScaleCmd(a),
		newDishesCmd(a),
		newHistoryCmd(a),
		newPDFCmd(a),
		newInitCmd(a),
		newVersionCmd(a),
	)
	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{stdout: stdout, stderr: stderr}
	root := newRootCmd(a)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return exitSuccess
	}
	printError(stderr, err)
	return exitCode(err)
}

// userErrors are the error kinds reported with exitUserError.
var userErrors = []error{
	types.ErrMissingIngredientsSection,
	types.ErrMissingParticipants,
	types.ErrInvalidParticipantCount,
	types.ErrPlanSyntax,
	types.ErrEmptyIngredientLine,
	types.ErrDishNotFound,
	types.ErrAmbiguousDish,
	types.ErrUnknownLocale,
	types.ErrLocaleInvalid,
	config.ErrInvalidConfig,
	history.ErrRunNotFound,
	history.ErrAmbiguousRun,
	history.ErrInvalidID,
	os.ErrNotExist,
}

// argsRange wraps cobra.RangeArgs so argument mistakes exit as user errors.
func argsRange(lo, hi int) cobra.PositionalArgs {
	check := cobra.RangeArgs(lo, hi)
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return userError{err}
		}
		return nil
	}
}

func exitCode(err error) int {
	var ue userError
	if errors.As(err, &ue) {
		return exitUserError
	}
	for _, kind := range userErrors {
		if errors.Is(err, kind) {
			return exitUserError
		}
	}
	if errors.Is(err, context.Canceled) {
		return exitUserError
	}
	return exitSysError
}
