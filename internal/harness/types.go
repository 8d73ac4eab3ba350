package harness

// Phase is a state of the per-scenario orchestration machine.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseReset
	PhaseConfigured
	PhaseStimulating
	PhaseAwaitingCompletion
	PhaseCollecting
	PhaseScored
	PhaseRecorded
)

var phaseNames = [...]string{
	"idle",
	"reset",
	"configured",
	"stimulating",
	"awaiting_completion",
	"collecting",
	"scored",
	"recorded",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// PhaseTransition is one entry in a scenario's execution trace: the phase
// entered and the clock position at entry. Traces are deterministic for a
// fixed seed and are compared against golden files in tests.
type PhaseTransition struct {
	Phase  string `json:"phase"`
	Cycle  int64  `json:"cycle"`
	TimeNs int64  `json:"time_ns"`
}
