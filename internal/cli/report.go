package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/vyges/mlowtb/internal/report"
)

// ReportOptions holds flags for the report command.
type ReportOptions struct {
	*RootOptions
	Module string
}

// NewReportCommand creates the report command.
func NewReportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "report <stats-file>",
		Short: "Summarize synthesis statistics for the codec module",
		Long: `Parse a Yosys statistics dump and render a gate-level summary.

Extracts the labeled resource counts (cells, wires, ports, memories,
processes) plus the primitive cell breakdown and writes a markdown
document, or the raw figures as JSON with --format json.

Example:
  mlowtb report flow/stats.txt
  mlowtb report flow/stats.txt --module mlow_codec --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Module, "module", "mlow_codec", "synthesized module name for the report heading")

	return cmd
}

func runReport(opts *ReportOptions, path string, cmd *cobra.Command) error {
	f, err := os.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open stats file", err)
	}
	defer f.Close()

	stats, err := report.ParseStats(f)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to parse stats", err)
	}

	if opts.Format == "json" {
		formatter := &OutputFormatter{Format: "json", Writer: cmd.OutOrStdout()}
		return formatter.Success(stats)
	}

	stats.RenderMarkdown(cmd.OutOrStdout(), opts.Module)
	return nil
}
