package harness

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/vyges/mlowtb/internal/driver"
	"github.com/vyges/mlowtb/internal/dut"
	"github.com/vyges/mlowtb/internal/quality"
	"github.com/vyges/mlowtb/internal/results"
	"github.com/vyges/mlowtb/internal/stimulus"
)

// Orchestration timing constants.
const (
	// ResetHoldNs is the duration of each phase of the two-phase reset.
	// Reset phases are timed, not edge-counted, so an asynchronous reset
	// deassertion has time to synchronize.
	ResetHoldNs = 100

	// CompletionBudgetNs is the heuristic settle window after
	// stimulation. The DUT exposes no done event distinct from busy
	// deassertion, so completion is polled within this window.
	CompletionBudgetNs = 1000

	// FrameBudgetNs is the per-frame encode latency requirement (20 ms).
	FrameBudgetNs = 20_000_000

	DefaultStimulusTimeout = 1000
	DefaultCollectTimeout  = 10000
	DefaultMinQuality      = 30.0
	DefaultSampleRate      = 48000
)

// Orchestrator executes scenarios against one DUT. It exclusively owns the
// DUT's signal interface for the duration of each RunScenario call.
type Orchestrator struct {
	bus    dut.Bus
	clk    dut.Stepper
	waiter *driver.Waiter
	stim   *stimulus.Generator
	logger *slog.Logger

	frameSize  int
	sampleRate int

	trace []PhaseTransition
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithLogger sets the structured logger. Defaults to a discard logger.
func WithLogger(l *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) { o.logger = l }
}

// WithFrameSize overrides the samples-per-frame expectation. Must match
// the device configuration.
func WithFrameSize(n int) OrchestratorOption {
	return func(o *Orchestrator) { o.frameSize = n }
}

// WithSampleRate overrides the stimulus sample rate.
func WithSampleRate(hz int) OrchestratorOption {
	return func(o *Orchestrator) { o.sampleRate = hz }
}

// NewOrchestrator creates an orchestrator driving the given bus and clock
// with the given stimulus generator.
func NewOrchestrator(bus dut.Bus, clk dut.Stepper, stim *stimulus.Generator, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		bus:        bus,
		clk:        clk,
		waiter:     driver.NewWaiter(clk),
		stim:       stim,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		frameSize:  dut.DefaultFrameSize,
		sampleRate: DefaultSampleRate,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Trace returns the phase transitions of the most recent scenario.
func (o *Orchestrator) Trace() []PhaseTransition {
	return o.trace
}

// enter records a phase transition with the current clock position.
func (o *Orchestrator) enter(p Phase) {
	o.trace = append(o.trace, PhaseTransition{
		Phase:  p.String(),
		Cycle:  o.clk.Cycle(),
		TimeNs: o.clk.Now(),
	})
	o.logger.Debug("phase", "phase", p.String(), "cycle", o.clk.Cycle(), "time_ns", o.clk.Now())
}

// RunScenario executes one scenario through the full state machine and
// returns its outcome. Any timeout aborts immediately to the recorded
// state with passed=false; no partial state carries over because the next
// scenario begins with a fresh reset.
func (o *Orchestrator) RunScenario(sc Scenario) results.Outcome {
	o.trace = o.trace[:0]
	o.enter(PhaseIdle)

	out := results.Outcome{Scenario: sc.Name}

	o.resetDUT()

	if sc.Mode == ModeReset {
		busy := dut.ReadBit(o.bus, dut.SigBusy)
		errSig := dut.ReadBit(o.bus, dut.SigError)
		out.ErrorObserved = errSig
		out.Passed = !busy && !errSig
		if !out.Passed {
			out.Detail = fmt.Sprintf("post-reset state: busy=%t error=%t", busy, errSig)
		}
		o.enter(PhaseRecorded)
		return out
	}

	o.configure(sc)

	switch sc.Mode {
	case ModeEncode:
		o.runEncode(sc, &out)
	case ModeDecode:
		o.runDecode(sc, &out)
	case ModeRoundTrip:
		o.runRoundTrip(sc, &out)
	}

	o.enter(PhaseRecorded)
	o.logger.Info("scenario finished",
		"scenario", sc.Name,
		"passed", out.Passed,
		"error_observed", out.ErrorObserved,
	)
	return out
}

// resetDUT performs the two-phase reset: assert, hold, deassert, hold.
func (o *Orchestrator) resetDUT() {
	o.enter(PhaseReset)
	dut.WriteBit(o.bus, dut.SigReset, false)
	o.waiter.Settle(ResetHoldNs)
	dut.WriteBit(o.bus, dut.SigReset, true)
	o.waiter.Settle(ResetHoldNs)
}

// configure writes the mode and selector registers. No handshake: the DUT
// samples them at the next operation start.
func (o *Orchestrator) configure(sc Scenario) {
	encode := sc.Mode == ModeEncode || sc.Mode == ModeRoundTrip
	if encode {
		o.bus.Write(dut.SigEncodeMode, 1)
	} else {
		o.bus.Write(dut.SigEncodeMode, 0)
	}
	o.bus.Write(dut.SigBitrateSel, sc.Bitrate)
	o.bus.Write(dut.SigBandwidthSel, sc.Bandwidth)
	o.enter(PhaseConfigured)
	o.logger.Debug("configured",
		"scenario", sc.Name,
		"config", describeConfig(sc.Bitrate, sc.Bandwidth),
		"encode", encode,
	)
}

// awaitCompletion polls the busy/error status after stimulation. For
// expect-error scenarios the error signal must assert before the budget
// elapses; otherwise busy deassertion is polled as a heuristic and an
// asserted error signal fails the scenario. Returns false when the
// scenario is already decided.
func (o *Orchestrator) awaitCompletion(sc Scenario, out *results.Outcome) bool {
	o.enter(PhaseAwaitingCompletion)

	if sc.ExpectError {
		status := o.waiter.SettleUntil(func() bool {
			return dut.ReadBit(o.bus, dut.SigError)
		}, CompletionBudgetNs)
		out.ErrorObserved = dut.ReadBit(o.bus, dut.SigError)
		if status == driver.TimedOut {
			out.Detail = (&RunError{
				Code:     ErrCodeDeviceError,
				Message:  "expected device error never asserted",
				Scenario: sc.Name,
			}).Error()
			return false
		}
		out.Passed = true
		return false
	}

	// Busy may legitimately stay asserted until output is drained, so
	// the settle result itself is not a verdict.
	o.waiter.SettleUntil(func() bool {
		return !dut.ReadBit(o.bus, dut.SigBusy)
	}, CompletionBudgetNs)

	out.ErrorObserved = dut.ReadBit(o.bus, dut.SigError)
	if out.ErrorObserved && !sc.Backpressure {
		out.Detail = (&RunError{
			Code:     ErrCodeDeviceError,
			Message:  "unexpected device error",
			Scenario: sc.Name,
		}).Error()
		return false
	}
	return true
}

func (o *Orchestrator) runEncode(sc Scenario, out *results.Outcome) {
	frames := sc.Frames
	if frames == 0 {
		frames = 1
	}
	stimTimeout := orDefault(sc.StimulusTimeout, DefaultStimulusTimeout)
	collectTimeout := orDefault(sc.CollectTimeout, DefaultCollectTimeout)

	producer := driver.NewProducer(o.bus, o.clk, dut.SigAudioInData, dut.SigAudioInValid, dut.SigAudioInReady)
	collector := driver.NewConsumer(o.bus, o.clk, dut.SigPacketOutData, dut.SigPacketOutValid, dut.SigPacketOutReady)

	var latencies []int64
	for f := 0; f < frames; f++ {
		frame := o.stim.Frame(sc.Pattern, o.frameSize, o.sampleRate)

		o.enter(PhaseStimulating)
		start := o.clk.Now()
		sent, err := producer.ProduceAll(samplesToWords(frame), stimTimeout)
		latency := o.clk.Now() - start
		if err != nil {
			out.ErrorObserved = dut.ReadBit(o.bus, dut.SigError)
			out.Detail = (&RunError{
				Code:     ErrCodeHandshakeTimeout,
				Message:  fmt.Sprintf("audio stimulus stalled at sample %d: %v", sent, err),
				Scenario: sc.Name,
			}).Error()
			return
		}
		latencies = append(latencies, latency)

		if !o.awaitCompletion(sc, out) {
			if out.Passed {
				out.LatencyNs = meanLatency(latencies)
			}
			return
		}
		if latency > FrameBudgetNs {
			out.Detail = fmt.Sprintf("frame %d encode latency %d ns exceeds %d ns budget", f, latency, int64(FrameBudgetNs))
			return
		}

		o.enter(PhaseCollecting)
		if _, err := collector.Consume(o.frameSize/2, collectTimeout); err != nil {
			out.ErrorObserved = dut.ReadBit(o.bus, dut.SigError)
			out.Detail = (&RunError{
				Code:     ErrCodeHandshakeTimeout,
				Message:  fmt.Sprintf("encoded packet stream stalled: %v", err),
				Scenario: sc.Name,
			}).Error()
			return
		}
	}

	// Encode-only scenarios record the DUT's own quality estimate.
	q := float64(o.bus.Read(dut.SigQualityMetric))
	out.Quality = &q
	out.LatencyNs = meanLatency(latencies)
	o.enter(PhaseScored)
	out.Passed = true
}

func (o *Orchestrator) runDecode(sc Scenario, out *results.Outcome) {
	stimTimeout := orDefault(sc.StimulusTimeout, DefaultStimulusTimeout)
	collectTimeout := orDefault(sc.CollectTimeout, DefaultCollectTimeout)

	producer := driver.NewProducer(o.bus, o.clk, dut.SigPacketInData, dut.SigPacketInValid, dut.SigPacketInReady)
	collector := driver.NewConsumer(o.bus, o.clk, dut.SigAudioOutData, dut.SigAudioOutValid, dut.SigAudioOutReady)

	if sc.Backpressure {
		// Forced backpressure: the decoded-audio consumer never
		// becomes ready for the whole scenario.
		dut.WriteBit(o.bus, dut.SigAudioOutReady, false)
	}

	packets := o.stim.Packets(o.frameSize / 2)

	o.enter(PhaseStimulating)
	start := o.clk.Now()
	sent, err := producer.ProduceAll(bytesToWords(packets), stimTimeout)
	latency := o.clk.Now() - start
	if err != nil && !sc.Backpressure {
		out.ErrorObserved = dut.ReadBit(o.bus, dut.SigError)
		out.Detail = (&RunError{
			Code:     ErrCodeHandshakeTimeout,
			Message:  fmt.Sprintf("packet stimulus stalled at packet %d: %v", sent, err),
			Scenario: sc.Name,
		}).Error()
		return
	}

	if !o.awaitCompletion(sc, out) {
		return
	}

	if sc.Backpressure {
		// Graceful stalling is the correctness requirement here: the
		// scenario passes iff no device error was observed. A stalled
		// stream risks only a handshake timeout, which is tolerated.
		out.Passed = !out.ErrorObserved
		if !out.Passed {
			out.Detail = (&RunError{
				Code:     ErrCodeDeviceError,
				Message:  "backpressure caused device error",
				Scenario: sc.Name,
			}).Error()
		}
		l := latency
		out.LatencyNs = &l
		o.enter(PhaseScored)
		return
	}

	o.enter(PhaseCollecting)
	if _, err := collector.Consume(o.frameSize, collectTimeout); err != nil {
		out.ErrorObserved = dut.ReadBit(o.bus, dut.SigError)
		out.Detail = (&RunError{
			Code:     ErrCodeHandshakeTimeout,
			Message:  fmt.Sprintf("decoded audio stream stalled: %v", err),
			Scenario: sc.Name,
		}).Error()
		return
	}

	l := latency
	out.LatencyNs = &l
	o.enter(PhaseScored)
	out.Passed = true
}

func (o *Orchestrator) runRoundTrip(sc Scenario, out *results.Outcome) {
	stimTimeout := orDefault(sc.StimulusTimeout, DefaultStimulusTimeout)
	collectTimeout := orDefault(sc.CollectTimeout, DefaultCollectTimeout)
	minQuality := sc.MinQuality
	if minQuality == 0 {
		minQuality = DefaultMinQuality
	}

	audioIn := driver.NewProducer(o.bus, o.clk, dut.SigAudioInData, dut.SigAudioInValid, dut.SigAudioInReady)
	packetOut := driver.NewConsumer(o.bus, o.clk, dut.SigPacketOutData, dut.SigPacketOutValid, dut.SigPacketOutReady)
	packetIn := driver.NewProducer(o.bus, o.clk, dut.SigPacketInData, dut.SigPacketInValid, dut.SigPacketInReady)
	audioOut := driver.NewConsumer(o.bus, o.clk, dut.SigAudioOutData, dut.SigAudioOutValid, dut.SigAudioOutReady)

	original := o.stim.Frame(sc.Pattern, o.frameSize, o.sampleRate)

	// Encode leg.
	o.enter(PhaseStimulating)
	start := o.clk.Now()
	sent, err := audioIn.ProduceAll(samplesToWords(original), stimTimeout)
	latency := o.clk.Now() - start
	if err != nil {
		out.ErrorObserved = dut.ReadBit(o.bus, dut.SigError)
		out.Detail = (&RunError{
			Code:     ErrCodeHandshakeTimeout,
			Message:  fmt.Sprintf("audio stimulus stalled at sample %d: %v", sent, err),
			Scenario: sc.Name,
		}).Error()
		return
	}
	if !o.awaitCompletion(sc, out) {
		return
	}

	o.enter(PhaseCollecting)
	packets, err := packetOut.Consume(o.frameSize/2, collectTimeout)
	if err != nil || len(packets) == 0 {
		out.ErrorObserved = dut.ReadBit(o.bus, dut.SigError)
		out.Detail = (&RunError{
			Code:     ErrCodeHandshakeTimeout,
			Message:  fmt.Sprintf("no encoded packet stream (%d packets): %v", len(packets), err),
			Scenario: sc.Name,
		}).Error()
		return
	}
	o.logger.Debug("encode leg complete", "scenario", sc.Name, "packets", len(packets))

	// Decode leg: feed the encoded stream back. The mode register is
	// sampled at the next operation start.
	o.bus.Write(dut.SigEncodeMode, 0)

	o.enter(PhaseStimulating)
	sent, err = packetIn.ProduceAll(packets, stimTimeout)
	if err != nil {
		out.ErrorObserved = dut.ReadBit(o.bus, dut.SigError)
		out.Detail = (&RunError{
			Code:     ErrCodeHandshakeTimeout,
			Message:  fmt.Sprintf("packet stimulus stalled at packet %d: %v", sent, err),
			Scenario: sc.Name,
		}).Error()
		return
	}
	if !o.awaitCompletion(sc, out) {
		return
	}

	o.enter(PhaseCollecting)
	words, err := audioOut.Consume(o.frameSize, collectTimeout)
	if err != nil {
		out.ErrorObserved = dut.ReadBit(o.bus, dut.SigError)
		out.Detail = (&RunError{
			Code:     ErrCodeHandshakeTimeout,
			Message:  fmt.Sprintf("decoded audio stream stalled after %d samples: %v", len(words), err),
			Scenario: sc.Name,
		}).Error()
		return
	}

	o.enter(PhaseScored)
	score := quality.Score(original, wordsToSamples(words))
	out.Quality = &score
	l := latency
	out.LatencyNs = &l
	if score < minQuality {
		out.Detail = (&RunError{
			Code:     ErrCodeQualityBelowThreshold,
			Message:  fmt.Sprintf("round-trip quality %.1f below %.1f", score, minQuality),
			Scenario: sc.Name,
		}).Error()
		return
	}
	out.Passed = true
	o.logger.Info("round trip scored", "scenario", sc.Name, "quality", score)
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func meanLatency(latencies []int64) *int64 {
	if len(latencies) == 0 {
		return nil
	}
	var sum int64
	for _, l := range latencies {
		sum += l
	}
	mean := sum / int64(len(latencies))
	return &mean
}

func samplesToWords(samples []int16) []uint64 {
	words := make([]uint64, len(samples))
	for i, s := range samples {
		words[i] = uint64(uint16(s))
	}
	return words
}

func bytesToWords(bs []byte) []uint64 {
	words := make([]uint64, len(bs))
	for i, b := range bs {
		words[i] = uint64(b)
	}
	return words
}

func wordsToSamples(words []uint64) []int16 {
	samples := make([]int16, len(words))
	for i, w := range words {
		samples[i] = int16(w & 0xFFFF)
	}
	return samples
}
