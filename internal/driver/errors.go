package driver

import (
	"errors"
	"fmt"
)

// TimeoutError reports a handshake that did not complete within its cycle
// budget: the counterpart's line never asserted (produce) or the stream
// stalled (consume).
//
// A TimeoutError aborts the enclosing scenario but never the harness run;
// the orchestrator records a failed outcome and moves on.
type TimeoutError struct {
	// Op is the failing operation, "produce" or "consume".
	Op string

	// Signal is the line that was being waited on.
	Signal string

	// Cycles is the budget that elapsed.
	Cycles int

	// Received is how many items had been captured before the stall.
	// Zero for producer-side timeouts.
	Received int
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	if e.Received > 0 {
		return fmt.Sprintf("handshake timeout: %s stalled on %s after %d items (%d idle cycles)",
			e.Op, e.Signal, e.Received, e.Cycles)
	}
	return fmt.Sprintf("handshake timeout: %s saw no %s within %d cycles", e.Op, e.Signal, e.Cycles)
}

// IsTimeout returns true if err is (or wraps) a handshake TimeoutError.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}
