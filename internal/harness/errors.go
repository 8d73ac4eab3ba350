package harness

import (
	"errors"
	"fmt"
)

// RunError represents a classified harness failure.
//
// Scenario-local failures (handshake timeout, unexpected device error,
// quality below threshold) are recorded in the outcome and never abort the
// run; their RunError only supplies the outcome's detail text. The
// aggregate pass-rate check is the one error returned from a run.
type RunError struct {
	// Code identifies the failure category.
	Code RunErrorCode

	// Message is a human-readable description.
	Message string

	// Scenario identifies the affected scenario, empty for run-level
	// failures.
	Scenario string

	// Details contains additional context.
	Details map[string]string
}

// RunErrorCode categorizes harness failures.
type RunErrorCode string

const (
	// ErrCodeHandshakeTimeout indicates a producer or consumer did not
	// see its counterpart within the cycle budget.
	ErrCodeHandshakeTimeout RunErrorCode = "HANDSHAKE_TIMEOUT"

	// ErrCodeDeviceError indicates the DUT's error signal was observed
	// asserted when the scenario did not expect it (or expected and did
	// not observe it). Classification is per-scenario, not global.
	ErrCodeDeviceError RunErrorCode = "DEVICE_ERROR"

	// ErrCodeQualityBelowThreshold indicates a round-trip score below
	// the scenario's minimum acceptable value.
	ErrCodeQualityBelowThreshold RunErrorCode = "QUALITY_BELOW_THRESHOLD"

	// ErrCodePassRateBelowThreshold indicates the aggregate pass rate
	// fell below the run threshold. The only fatal failure.
	ErrCodePassRateBelowThreshold RunErrorCode = "PASS_RATE_BELOW_THRESHOLD"
)

// Error implements the error interface.
func (e *RunError) Error() string {
	if e.Scenario != "" {
		return fmt.Sprintf("%s: %s (scenario=%s)", e.Code, e.Message, e.Scenario)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsPassRateError returns true if the error is the fatal aggregate
// pass-rate failure. Uses errors.As to handle wrapped errors.
func IsPassRateError(err error) bool {
	var re *RunError
	if errors.As(err, &re) {
		return re.Code == ErrCodePassRateBelowThreshold
	}
	return false
}

// NewPassRateError creates the fatal run-completion error.
func NewPassRateError(rate, threshold float64) *RunError {
	return &RunError{
		Code:    ErrCodePassRateBelowThreshold,
		Message: fmt.Sprintf("aggregate pass rate %.1f%% is below %.1f%% threshold", rate*100, threshold*100),
		Details: map[string]string{
			"pass_rate": fmt.Sprintf("%.3f", rate),
			"threshold": fmt.Sprintf("%.3f", threshold),
		},
	}
}
