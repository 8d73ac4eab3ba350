package cli

import (
	"github.com/spf13/cobra"

	"github.com/vyges/mlowtb/internal/harness"
)

// ValidationResult holds validation results for one suite file.
type ValidationResult struct {
	Path      string `json:"path"`
	Valid     bool   `json:"valid"`
	Scenarios int    `json:"scenarios,omitempty"`
	Error     string `json:"error,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <suite.yaml>...",
		Short: "Validate suite files without running them",
		Long: `Validate scenario suite YAML files without executing them.

Checks YAML syntax, rejects unknown fields, and enforces the structural
rules: unique scenario names, known modes, bounded quality thresholds.
Deliberately invalid bitrate and bandwidth selectors are allowed; those
exercise the device error path at run time.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	var invalid int
	validationResults := make([]ValidationResult, 0, len(paths))
	for _, path := range paths {
		result := ValidationResult{Path: path, Valid: true}
		suite, err := harness.LoadSuite(path)
		if err != nil {
			result.Valid = false
			result.Error = err.Error()
			invalid++
		} else {
			result.Scenarios = len(suite.Scenarios)
		}
		validationResults = append(validationResults, result)
	}

	if opts.Format == "json" {
		if invalid > 0 {
			if err := formatter.Error(ErrCodeBadSuite, "suite validation failed", validationResults); err != nil {
				return err
			}
			return NewExitError(ExitFailure, "suite validation failed")
		}
		return formatter.Success(validationResults)
	}

	for _, result := range validationResults {
		if result.Valid {
			formatter.VerboseLog("%s: %d scenario(s)", result.Path, result.Scenarios)
			continue
		}
		formatter.Error(ErrCodeBadSuite, result.Path+": "+result.Error, nil)
	}
	if invalid > 0 {
		return NewExitError(ExitFailure, "suite validation failed")
	}
	return formatter.Success("✓ All suites valid")
}
