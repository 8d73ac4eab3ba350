package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vyges/mlowtb/internal/dut"
	"github.com/vyges/mlowtb/internal/results"
	"github.com/vyges/mlowtb/internal/stimulus"
)

// DefaultMinPassRate is the aggregate pass-rate threshold enforced as a
// hard assertion at run completion.
const DefaultMinPassRate = 0.8

// DefaultSeed seeds the stimulus generator when the caller does not pick
// one, keeping default runs reproducible.
const DefaultSeed = 1

// RunConfig configures one harness run.
type RunConfig struct {
	// Seed for the noise/packet stimulus generator.
	Seed int64

	// FrameSize overrides the samples-per-frame expectation (default 480).
	FrameSize int

	// MinPassRate overrides the aggregate pass-rate threshold.
	MinPassRate float64

	// Logger receives structured run logs. Defaults to a discard logger.
	Logger *slog.Logger

	// Store, when set, persists the run and its outcomes.
	Store *results.Store

	// RunIDs generates the run identifier. Defaults to UUIDv7.
	RunIDs results.RunIDGenerator
}

// Report is the result of one harness run.
type Report struct {
	RunID    string                       `json:"run_id"`
	Suite    string                       `json:"suite"`
	Summary  results.Summary              `json:"summary"`
	Outcomes []results.Outcome            `json:"outcomes"`
	Traces   map[string][]PhaseTransition `json:"-"`
}

// Run executes a suite top to bottom against a fresh behavioral device.
//
// Every scenario gets a fresh reset; outcomes are recorded through a
// single owned aggregator. Scenario-local failures never abort the run.
// Run returns a non-nil error only for store failures, context
// cancellation, or the aggregate pass rate falling below threshold; in the
// pass-rate case the report is still returned alongside the error.
func Run(ctx context.Context, suite *Suite, cfg RunConfig) (*Report, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = DefaultSeed
	}
	frameSize := cfg.FrameSize
	if frameSize == 0 {
		frameSize = dut.DefaultFrameSize
	}
	minPassRate := cfg.MinPassRate
	if minPassRate == 0 {
		minPassRate = DefaultMinPassRate
	}
	runIDs := cfg.RunIDs
	if runIDs == nil {
		runIDs = results.UUIDv7Generator{}
	}

	runID := runIDs.Generate()
	device := dut.NewDevice(dut.WithFrameSize(frameSize))
	orch := NewOrchestrator(device, device, stimulus.New(seed),
		WithLogger(logger),
		WithFrameSize(frameSize),
	)
	agg := results.NewAggregator()

	if cfg.Store != nil {
		if _, err := cfg.Store.BeginRun(ctx, runID, suite.Name, seed); err != nil {
			return nil, fmt.Errorf("begin run: %w", err)
		}
	}

	logger.Info("harness run starting",
		"run_id", runID,
		"suite", suite.Name,
		"scenarios", len(suite.Scenarios),
		"seed", seed,
	)

	report := &Report{
		RunID:  runID,
		Suite:  suite.Name,
		Traces: make(map[string][]PhaseTransition, len(suite.Scenarios)),
	}

	for i, sc := range suite.Scenarios {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		outcome := orch.RunScenario(sc)
		agg.Record(outcome)

		trace := make([]PhaseTransition, len(orch.Trace()))
		copy(trace, orch.Trace())
		report.Traces[sc.Name] = trace

		if cfg.Store != nil {
			if err := cfg.Store.WriteOutcome(ctx, runID, i, outcome); err != nil {
				return nil, fmt.Errorf("record outcome: %w", err)
			}
		}
	}

	report.Outcomes = agg.Outcomes()
	report.Summary = agg.Summarize()

	logger.Info("harness run finished",
		"run_id", runID,
		"passed", report.Summary.Passed,
		"failed", report.Summary.Failed,
		"pass_rate", report.Summary.PassRate,
	)

	if !report.Summary.NoData && report.Summary.PassRate < minPassRate {
		return report, NewPassRateError(report.Summary.PassRate, minPassRate)
	}
	return report, nil
}
