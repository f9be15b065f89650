package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/airspacetools/clicheck/internal/harness"
	"github.com/airspacetools/clicheck/internal/scenario"
	"github.com/airspacetools/clicheck/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Filter string // suite name filter (glob pattern)
	Record string // run-log database path, empty disables recording
}

// RunSummary is the overall result of a run, also used as JSON output.
type RunSummary struct {
	Suites []harness.SuiteResult `json:"suites"`
	Passed int                   `json:"passed"`
	Failed int                   `json:"failed"`
	Total  int                   `json:"total"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <suites-dir>",
		Short: "Run declarative test suites against the CLI under test",
		Long: `Run YAML suite files against the program under test.

Each case gets a fresh scratch directory under TEST_ROOT/scratch, its
setup files are materialized there, and the captured stdout, stderr and
exit code are checked against the case's expectations.

Exit codes:
  0 - All cases passed
  1 - One or more cases failed
  2 - Configuration error (missing binary, invalid paths, ...)

Examples:
  clicheck --cli ./airspace run ./suites
  clicheck run ./suites --filter "compression*"
  clicheck run ./suites --record runs.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuites(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter suites by glob pattern on the file base name")
	cmd.Flags().StringVar(&opts.Record, "record", "", "record each case into a SQLite run log at this path")

	return cmd
}

func runSuites(opts *RunOptions, suitesDir string, cmd *cobra.Command) error {
	if _, err := os.Stat(suitesDir); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("suites directory not found: %s", suitesDir))
	}

	suiteFiles, err := findSuiteFiles(suitesDir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find suites", err)
	}
	if len(suiteFiles) == 0 {
		if opts.Format == "json" {
			return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: RunSummary{Suites: []harness.SuiteResult{}}})
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No suites found.")
		return nil
	}

	h, cleanup, err := buildHarness(opts, cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	summary := RunSummary{Suites: make([]harness.SuiteResult, 0, len(suiteFiles))}
	for _, file := range suiteFiles {
		suite, err := scenario.Load(file)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid suite "+file, err)
		}

		result, err := h.RunSuite(cmd.Context(), suite)
		if err != nil {
			// Configuration errors cannot be partially salvaged: the
			// remaining cases would run against a broken setup.
			return WrapExitError(ExitCommandError, "run aborted", err)
		}

		summary.Suites = append(summary.Suites, *result)
		summary.Passed += result.Passed
		summary.Failed += result.Failed
		summary.Total += result.Passed + result.Failed

		if opts.Format != "json" {
			printSuiteResult(cmd, result)
		}
	}

	if opts.Format == "json" {
		if err := writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: summary}); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "\n%d passed, %d failed, %d total\n",
			summary.Passed, summary.Failed, summary.Total)
	}

	if summary.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d case(s) failed", summary.Failed))
	}
	return nil
}

func buildHarness(opts *RunOptions, cmd *cobra.Command) (*harness.Harness, func(), error) {
	cfg := harness.Config{
		PUTPath:     opts.CLIPath,
		ScratchRoot: filepath.Join(opts.TestRoot, harness.ScratchDirName),
	}

	hopts := []harness.Option{}
	if opts.Verbose {
		logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))
		hopts = append(hopts, harness.WithLogger(logger))
	}

	cleanup := func() {}
	if opts.Record != "" {
		st, err := store.Open(opts.Record)
		if err != nil {
			return nil, nil, WrapExitError(ExitCommandError, "failed to open run log", err)
		}
		cleanup = func() { st.Close() }
		hopts = append(hopts, harness.WithRecorder(st))
	}

	return harness.New(cfg, hopts...), cleanup, nil
}

func findSuiteFiles(dir, filter string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}
		if filter != "" {
			base := strings.TrimSuffix(strings.TrimSuffix(name, ".yaml"), ".yml")
			matched, err := filepath.Match(filter, base)
			if err != nil {
				return nil, fmt.Errorf("invalid filter pattern %q: %w", filter, err)
			}
			if !matched {
				continue
			}
		}
		files = append(files, filepath.Join(dir, name))
	}

	sort.Strings(files)
	return files, nil
}

func printSuiteResult(cmd *cobra.Command, result *harness.SuiteResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "suite %s\n", result.Suite)
	for _, c := range result.Cases {
		if c.Pass {
			fmt.Fprintf(out, "  %s %s\n", color.GreenString("PASS"), c.Name)
			continue
		}
		fmt.Fprintf(out, "  %s %s\n", color.RedString("FAIL"), c.Name)
		for _, msg := range c.Errors {
			for _, line := range strings.Split(msg, "\n") {
				fmt.Fprintf(out, "       %s\n", line)
			}
		}
	}
}
