// Package testutil provides deterministic test doubles for the signal
// boundary. Tests that need exact per-edge waveforms use ScriptedBus
// instead of the behavioral device.
package testutil

// ScriptedBus is a signal bus whose device-side signals follow
// pre-recorded waveforms, one value per clock edge.
//
// Each Step consumes the next scripted value for every scripted signal;
// once a script runs out, the signal holds its last value. Testbench-side
// writes land in the same signal map and can be read back, so the bus
// works for both directions of a handshake.
//
// ScriptedBus is single-threaded, matching the cooperative model of the
// harness. The same script replayed twice produces identical traces.
type ScriptedBus struct {
	signals  map[string]uint64
	scripts  map[string][]uint64
	periodNs int64
	cycle    int64
	timeNs   int64
}

// NewScriptedBus creates a bus with the given clock period in ns.
func NewScriptedBus(periodNs int64) *ScriptedBus {
	return &ScriptedBus{
		signals:  make(map[string]uint64),
		scripts:  make(map[string][]uint64),
		periodNs: periodNs,
	}
}

// Set forces a signal to a value immediately, without consuming an edge.
func (b *ScriptedBus) Set(name string, value uint64) {
	b.signals[name] = value
}

// Script appends per-edge values for a signal. The first value is applied
// on the next Step, the second on the one after, and so on.
func (b *ScriptedBus) Script(name string, values ...uint64) {
	b.scripts[name] = append(b.scripts[name], values...)
}

// Read returns the current value of a signal. Unknown signals read 0.
func (b *ScriptedBus) Read(name string) uint64 {
	return b.signals[name]
}

// Write sets a signal from the testbench side.
func (b *ScriptedBus) Write(name string, value uint64) {
	b.signals[name] = value
}

// Step advances one clock edge, applying the next scripted value of every
// scripted signal.
func (b *ScriptedBus) Step() {
	b.cycle++
	b.timeNs += b.periodNs
	for name, script := range b.scripts {
		if len(script) == 0 {
			continue
		}
		b.signals[name] = script[0]
		b.scripts[name] = script[1:]
	}
}

// Now returns elapsed simulated time in ns.
func (b *ScriptedBus) Now() int64 { return b.timeNs }

// Cycle returns the number of edges stepped so far.
func (b *ScriptedBus) Cycle() int64 { return b.cycle }
