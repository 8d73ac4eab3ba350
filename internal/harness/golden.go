package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// TraceSnapshot captures one scenario's phase-transition trace for golden
// comparison. Traces are deterministic for a fixed seed, so the golden
// files are the source of truth for expected protocol timing.
type TraceSnapshot struct {
	Scenario string            `json:"scenario"`
	Trace    []PhaseTransition `json:"trace"`
}

// AssertGoldenTrace compares a scenario's trace against the golden file
// testdata/golden/{name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func AssertGoldenTrace(t *testing.T, name string, trace []PhaseTransition) {
	t.Helper()

	snapshot := TraceSnapshot{Scenario: name, Trace: trace}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		t.Fatalf("marshal trace snapshot: %v", err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
}
