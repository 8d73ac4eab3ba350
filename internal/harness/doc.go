// Package harness orchestrates conformance scenarios against the codec
// DUT: reset, configure, stimulate, collect, score, record.
//
// Each scenario runs an explicit state machine
// (Idle -> Reset -> Configured -> Stimulating -> AwaitingCompletion ->
// Collecting -> Scored -> Recorded) over a fresh two-phase reset, so no
// state leaks between scenarios. Scenarios execute strictly sequentially
// in declared order; within a scenario, stimulation always precedes
// collection. The DUT's signal interface is exclusively owned by whichever
// component currently has control; there are no concurrent drivers.
//
// Failure semantics: every scenario-local failure (handshake timeout,
// unexpected device error, quality below threshold) is recorded as a
// failed outcome and the run continues with the next scenario. The one
// fatal condition is the aggregate pass rate falling below the configured
// threshold at run completion, which signals systemic rather than
// scenario-local failure.
package harness
