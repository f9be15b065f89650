package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/airspacetools/clicheck/internal/version"
)

// NewLibVersionCommand creates the libversion command. It prints the
// compression library's version extracted from its C header, the ground
// truth that version-string cases compare the PUT's output against.
func NewLibVersionCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "libversion <header>",
		Short: "Print the library version defined in a C header",
		Long: `Extract the CMP_VERSION_MAJOR/MINOR/RELEASE definitions from the
compression library header (lib/cmp.h) and print them as "major.minor.release".

Prints "unknown" and exits non-zero when a field cannot be found.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			triple, err := version.ExtractFile(args[0])
			if err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), "unknown")
				return WrapExitError(ExitCommandError, "failed to extract version", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), triple.String())
			return nil
		},
	}
	return cmd
}
