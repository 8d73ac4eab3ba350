package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/vyges/mlowtb/internal/harness"
	"github.com/vyges/mlowtb/internal/results"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database    string
	Seed        int64
	MinPassRate float64

	// RunIDs allows overriding the run identifier generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs results.RunIDGenerator
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run [suite.yaml...]",
		Short: "Execute conformance scenarios against the behavioral codec",
		Long: `Execute conformance scenarios against the behavioral codec model.

Without arguments the built-in suite runs: reset-state checks, the full
bitrate/bandwidth configuration matrix for encode and decode, stimulus
pattern sweeps, error-path scenarios, backpressure, and the encode/decode
round trip. Suite YAML files given as arguments run instead.

The run fails when the aggregate pass rate falls below the threshold.

Example:
  mlowtb run
  mlowtb run --db ./results.db --seed 42 suites/nightly.yaml`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuites(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite results database (optional)")
	cmd.Flags().Int64Var(&opts.Seed, "seed", harness.DefaultSeed, "stimulus generator seed")
	cmd.Flags().Float64Var(&opts.MinPassRate, "min-pass-rate", harness.DefaultMinPassRate, "aggregate pass-rate threshold")

	return cmd
}

func runSuites(opts *RunOptions, args []string, cmd *cobra.Command) error {
	// Configure logging based on verbose flag
	logLevel := slog.LevelWarn
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	}))

	suites, err := loadSuites(args)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load suites", err)
	}

	var store *results.Store
	if opts.Database != "" {
		store, err = results.OpenStore(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open results database", err)
		}
		defer func() {
			if closeErr := store.Close(); closeErr != nil {
				logger.Error("error closing results database", "error", closeErr)
			}
		}()
	}

	cfg := harness.RunConfig{
		Seed:        opts.Seed,
		MinPassRate: opts.MinPassRate,
		Logger:      logger,
		Store:       store,
		RunIDs:      opts.RunIDs,
	}

	var reports []*harness.Report
	var rateErr error
	for _, suite := range suites {
		report, runErr := harness.Run(cmd.Context(), suite, cfg)
		if runErr != nil && !harness.IsPassRateError(runErr) {
			return WrapExitError(ExitCommandError, "harness run failed", runErr)
		}
		if runErr != nil {
			rateErr = runErr
		}
		reports = append(reports, report)
	}

	if opts.Format == "json" {
		if err := writeRunJSON(cmd, reports, rateErr); err != nil {
			return WrapExitError(ExitCommandError, "failed to encode report", err)
		}
	} else {
		for _, report := range reports {
			report.Summary.Render(cmd.OutOrStdout())
		}
	}

	if rateErr != nil {
		return WrapExitError(ExitFailure, "pass rate below threshold", rateErr)
	}
	return nil
}

// loadSuites resolves the suite set for a run: the built-in matrix when no
// files are named, otherwise each YAML file in argument order.
func loadSuites(paths []string) ([]*harness.Suite, error) {
	if len(paths) == 0 {
		return []*harness.Suite{harness.DefaultSuite()}, nil
	}
	suites := make([]*harness.Suite, 0, len(paths))
	for _, path := range paths {
		suite, err := harness.LoadSuite(path)
		if err != nil {
			return nil, fmt.Errorf("suite %s: %w", path, err)
		}
		suites = append(suites, suite)
	}
	return suites, nil
}

func writeRunJSON(cmd *cobra.Command, reports []*harness.Report, rateErr error) error {
	if rateErr != nil {
		var runErr *harness.RunError
		details := interface{}(reports)
		code := ErrCodePassRate
		msg := rateErr.Error()
		if errors.As(rateErr, &runErr) {
			msg = runErr.Message
		}
		formatter := &OutputFormatter{Format: "json", Writer: cmd.OutOrStdout()}
		return formatter.Error(code, msg, details)
	}
	formatter := &OutputFormatter{Format: "json", Writer: cmd.OutOrStdout()}
	return formatter.Success(reports)
}
