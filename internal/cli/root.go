// Package cli is the clicheck command line front end. It resolves the
// harness configuration (PUT path, test root) exactly once, before any
// case executes, and hands everything else to the suite-selection layer
// (the run subcommand's own flags).
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// RootOptions holds the harness-wide flags shared by all commands.
type RootOptions struct {
	CLIPath  string // path to the program under test
	TestRoot string // scratch space lives at TestRoot/scratch
	Verbose  bool
	Format   string // "text" | "json"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the clicheck CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "clicheck",
		Short: "Black-box test harness for a compression CLI",
		Long: `clicheck drives a command-line compression tool as an external process,
feeds it arguments and stdin, and checks the captured stdout, stderr and
exit code against declarative YAML suites.

Harness flags (--cli, --test-root) select the program under test and the
scratch space; suite selection and reporting flags live on the run
subcommand. Use "clicheck run --help" for that layer's options.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.CLIPath, "cli", "../programs/airspace", "path to the CLI under test")
	cmd.PersistentFlags().StringVar(&opts.TestRoot, "test-root", ".", "run tests under this directory; scratch space is TEST_ROOT/scratch")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewLibVersionCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
