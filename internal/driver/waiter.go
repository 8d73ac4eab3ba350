package driver

import "github.com/vyges/mlowtb/internal/dut"

// WaitStatus is the outcome of a cycle-bounded wait.
type WaitStatus int

const (
	// Satisfied means the predicate held after some edge within budget.
	Satisfied WaitStatus = iota

	// TimedOut means maxCycles edges elapsed with no true evaluation.
	TimedOut
)

func (s WaitStatus) String() string {
	switch s {
	case Satisfied:
		return "satisfied"
	case TimedOut:
		return "timed-out"
	default:
		return "unknown"
	}
}

// Waiter suspends until a predicate holds or a cycle budget is exhausted.
//
// Await advances exactly one clock edge per iteration and evaluates the
// predicate after each edge. The first true evaluation returns Satisfied;
// after maxCycles edges with no success it returns TimedOut. Await has no
// side effects beyond clock advancement.
type Waiter struct {
	clk dut.Stepper
}

// NewWaiter creates a Waiter driving the given clock source.
func NewWaiter(clk dut.Stepper) *Waiter {
	return &Waiter{clk: clk}
}

// Await steps the clock until pred holds or maxCycles edges have elapsed.
// The predicate is evaluated after each edge, never before the first one.
func (w *Waiter) Await(pred func() bool, maxCycles int) WaitStatus {
	for i := 0; i < maxCycles; i++ {
		w.clk.Step()
		if pred() {
			return Satisfied
		}
	}
	return TimedOut
}

// AwaitBit waits for a single-bit signal to reach the wanted level.
func (w *Waiter) AwaitBit(bus dut.Bus, name string, want bool, maxCycles int) WaitStatus {
	return w.Await(func() bool { return dut.ReadBit(bus, name) == want }, maxCycles)
}

// Settle advances the clock for a fixed simulated-time window. Used for
// heuristic settle phases that are timed rather than edge-counted.
func (w *Waiter) Settle(durationNs int64) {
	deadline := w.clk.Now() + durationNs
	for w.clk.Now() < deadline {
		w.clk.Step()
	}
}

// SettleUntil advances the clock until pred holds or the simulated-time
// window elapses. Returns Satisfied as soon as the predicate holds.
func (w *Waiter) SettleUntil(pred func() bool, durationNs int64) WaitStatus {
	deadline := w.clk.Now() + durationNs
	for w.clk.Now() < deadline {
		w.clk.Step()
		if pred() {
			return Satisfied
		}
	}
	return TimedOut
}
