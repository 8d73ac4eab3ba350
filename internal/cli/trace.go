package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vyges/mlowtb/internal/results"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunID    string
}

// TraceResult holds the trace output for one recorded run.
type TraceResult struct {
	Run      results.Run       `json:"run"`
	Outcomes []results.Outcome `json:"outcomes"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect recorded runs in a results database",
		Long: `Inspect recorded harness runs.

Without --run, lists recorded runs newest first. With --run, prints the
per-scenario outcomes of that run in execution order.

Examples:
  mlowtb trace --db ./results.db
  mlowtb trace --db ./results.db --run 018f9a2e-...
  mlowtb trace --db ./results.db --run 018f9a2e-... --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTraceCmd(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite results database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run ID to inspect")

	return cmd
}

func runTraceCmd(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()

	store, err := results.OpenStore(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open results database", err)
	}
	defer store.Close()

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if opts.RunID == "" {
		runs, err := store.ListRuns(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list runs", err)
		}
		if opts.Format == "json" {
			return formatter.Success(runs)
		}
		if len(runs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No recorded runs.")
			return nil
		}
		for _, run := range runs {
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %-24s  seed=%d  %s\n",
				run.ID, run.Suite, run.Seed, run.StartedAt)
		}
		return nil
	}

	outcomes, err := store.ReadOutcomes(ctx, opts.RunID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read outcomes", err)
	}
	if len(outcomes) == 0 {
		if opts.Format == "json" {
			return formatter.Error(ErrCodeRunLookup, "no outcomes found for run", opts.RunID)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "No outcomes found for run: %s\n", opts.RunID)
		return NewExitError(ExitCommandError, "run not found")
	}

	run, err := store.GetRun(ctx, opts.RunID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to look up run", err)
	}

	if opts.Format == "json" {
		return formatter.Success(TraceResult{Run: run, Outcomes: outcomes})
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Run: %s (%s, seed=%d)\n\n", run.ID, run.Suite, run.Seed)
	for _, o := range outcomes {
		status := "PASS"
		if !o.Passed {
			status = "FAIL"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "  [%s] %-28s", status, o.Scenario)
		if o.Quality != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "  quality=%.1f", *o.Quality)
		}
		if o.LatencyNs != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "  latency=%dns", *o.LatencyNs)
		}
		if o.Detail != "" && opts.Verbose {
			fmt.Fprintf(cmd.OutOrStdout(), "  (%s)", o.Detail)
		}
		fmt.Fprintln(cmd.OutOrStdout())
	}
	return nil
}
