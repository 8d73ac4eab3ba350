package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyges/mlowtb/internal/dut"
	"github.com/vyges/mlowtb/internal/stimulus"
)

// newTestOrchestrator pairs a small-frame device with an orchestrator so
// scenarios complete in a few hundred edges.
func newTestOrchestrator(frameSize int) (*Orchestrator, *dut.Device) {
	device := dut.NewDevice(dut.WithFrameSize(frameSize))
	orch := NewOrchestrator(device, device, stimulus.New(1), WithFrameSize(frameSize))
	return orch, device
}

func TestRunScenarioResetState(t *testing.T) {
	orch, _ := newTestOrchestrator(8)

	out := orch.RunScenario(Scenario{Name: "reset-state", Mode: ModeReset})

	assert.True(t, out.Passed)
	assert.False(t, out.ErrorObserved)
	assert.Empty(t, out.Detail)
}

func TestRunScenarioResetGoldenTrace(t *testing.T) {
	orch, _ := newTestOrchestrator(8)
	orch.RunScenario(Scenario{Name: "reset-state", Mode: ModeReset})

	AssertGoldenTrace(t, "reset-state", orch.Trace())
}

func TestRunScenarioEncode(t *testing.T) {
	orch, device := newTestOrchestrator(8)

	out := orch.RunScenario(Scenario{
		Name:      "encode-b3-w1",
		Mode:      ModeEncode,
		Bitrate:   3,
		Bandwidth: 1,
		Pattern:   stimulus.Sine,
	})

	assert.True(t, out.Passed, "detail: %s", out.Detail)
	assert.False(t, out.ErrorObserved)
	require.NotNil(t, out.Quality)
	assert.Equal(t, 75.0, *out.Quality, "per-bitrate quality target at selector 3")
	require.NotNil(t, out.LatencyNs)
	assert.Greater(t, *out.LatencyNs, int64(0))
	assert.False(t, dut.ReadBit(device, dut.SigBusy))
}

func TestRunScenarioEncodeMultiframe(t *testing.T) {
	orch, _ := newTestOrchestrator(8)

	out := orch.RunScenario(Scenario{
		Name:      "performance-multiframe",
		Mode:      ModeEncode,
		Bitrate:   0,
		Bandwidth: 1,
		Pattern:   stimulus.Sine,
		Frames:    3,
	})

	assert.True(t, out.Passed, "detail: %s", out.Detail)
	require.NotNil(t, out.Quality)
	assert.Equal(t, 60.0, *out.Quality)
}

func TestRunScenarioDecode(t *testing.T) {
	orch, _ := newTestOrchestrator(8)

	out := orch.RunScenario(Scenario{
		Name:      "decode-b0-w0",
		Mode:      ModeDecode,
		Bitrate:   0,
		Bandwidth: 0,
	})

	assert.True(t, out.Passed, "detail: %s", out.Detail)
	assert.False(t, out.ErrorObserved)
	require.NotNil(t, out.LatencyNs)
}

func TestRunScenarioInvalidBitrate(t *testing.T) {
	orch, device := newTestOrchestrator(8)

	out := orch.RunScenario(Scenario{
		Name:        "error-invalid-bitrate",
		Mode:        ModeEncode,
		Bitrate:     15,
		Bandwidth:   1,
		Pattern:     stimulus.Sine,
		ExpectError: true,
	})

	assert.True(t, out.Passed, "detail: %s", out.Detail)
	assert.True(t, out.ErrorObserved)
	assert.True(t, dut.ReadBit(device, dut.SigError))
	assert.False(t, dut.ReadBit(device, dut.SigBusy))
}

func TestRunScenarioInvalidBandwidth(t *testing.T) {
	orch, _ := newTestOrchestrator(8)

	out := orch.RunScenario(Scenario{
		Name:        "error-invalid-bandwidth",
		Mode:        ModeEncode,
		Bitrate:     0,
		Bandwidth:   3,
		Pattern:     stimulus.Sine,
		ExpectError: true,
	})

	assert.True(t, out.Passed, "detail: %s", out.Detail)
	assert.True(t, out.ErrorObserved)
}

func TestRunScenarioExpectedErrorNeverAsserted(t *testing.T) {
	orch, _ := newTestOrchestrator(8)

	// A valid configuration marked expect_error must fail: the device
	// error signal never asserts.
	out := orch.RunScenario(Scenario{
		Name:        "mismarked-error",
		Mode:        ModeEncode,
		Bitrate:     3,
		Bandwidth:   1,
		Pattern:     stimulus.Sine,
		ExpectError: true,
	})

	assert.False(t, out.Passed)
	assert.False(t, out.ErrorObserved)
	assert.Contains(t, out.Detail, "never asserted")
}

func TestRunScenarioBackpressure(t *testing.T) {
	orch, device := newTestOrchestrator(8)

	out := orch.RunScenario(Scenario{
		Name:         "backpressure-hold",
		Mode:         ModeDecode,
		Bitrate:      0,
		Bandwidth:    1,
		Backpressure: true,
	})

	assert.True(t, out.Passed, "detail: %s", out.Detail)
	assert.False(t, out.ErrorObserved, "backpressure must never cause a device error")
	// The output stream is still pending because ready was held low.
	assert.True(t, dut.ReadBit(device, dut.SigAudioOutValid))
}

func TestRunScenarioRoundTrip(t *testing.T) {
	orch, _ := newTestOrchestrator(480)

	out := orch.RunScenario(Scenario{
		Name:       "roundtrip-sine-b3-w1",
		Mode:       ModeRoundTrip,
		Bitrate:    3,
		Bandwidth:  1,
		Pattern:    stimulus.Sine,
		MinQuality: 30,
	})

	assert.True(t, out.Passed, "detail: %s", out.Detail)
	require.NotNil(t, out.Quality)
	assert.Greater(t, *out.Quality, 30.0)
	assert.LessOrEqual(t, *out.Quality, 100.0)
}

func TestRunScenarioRoundTripQualityFloor(t *testing.T) {
	orch, _ := newTestOrchestrator(480)

	// An unreachable floor turns the same passing round trip into a
	// quality failure.
	out := orch.RunScenario(Scenario{
		Name:       "roundtrip-strict",
		Mode:       ModeRoundTrip,
		Bitrate:    3,
		Bandwidth:  1,
		Pattern:    stimulus.Sine,
		MinQuality: 99.5,
	})

	assert.False(t, out.Passed)
	require.NotNil(t, out.Quality)
	assert.Contains(t, out.Detail, "QUALITY_BELOW_THRESHOLD")
}

func TestRunScenarioTracePhases(t *testing.T) {
	orch, _ := newTestOrchestrator(8)
	orch.RunScenario(Scenario{
		Name:      "encode-trace",
		Mode:      ModeEncode,
		Bitrate:   3,
		Bandwidth: 1,
		Pattern:   stimulus.Sine,
	})

	trace := orch.Trace()
	require.NotEmpty(t, trace)

	var phases []string
	for _, tr := range trace {
		phases = append(phases, tr.Phase)
	}
	assert.Equal(t, "idle", phases[0])
	assert.Contains(t, phases, "reset")
	assert.Contains(t, phases, "configured")
	assert.Contains(t, phases, "stimulating")
	assert.Contains(t, phases, "collecting")
	assert.Contains(t, phases, "scored")
	assert.Equal(t, "recorded", phases[len(phases)-1])

	// Monotonic clock positions.
	for i := 1; i < len(trace); i++ {
		assert.GreaterOrEqual(t, trace[i].Cycle, trace[i-1].Cycle)
	}
}

func TestTraceResetsBetweenScenarios(t *testing.T) {
	orch, _ := newTestOrchestrator(8)

	orch.RunScenario(Scenario{
		Name: "encode-first", Mode: ModeEncode, Bitrate: 0, Bandwidth: 0, Pattern: stimulus.Sine,
	})
	first := len(orch.Trace())

	orch.RunScenario(Scenario{Name: "reset-after", Mode: ModeReset})
	assert.Len(t, orch.Trace(), 3, "reset scenario records idle, reset, recorded")
	assert.Greater(t, first, 3)
}
