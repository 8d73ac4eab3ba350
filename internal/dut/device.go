package dut

import "fmt"

// Default device parameters, matching the codec RTL configuration.
const (
	DefaultClockPeriodNs = 20 // 50 MHz
	DefaultFrameSize     = 480
	DefaultProcCycles    = 24 // busy window between frame capture and packet emission

	MaxBitrateSel   = 7
	MaxBandwidthSel = 2
)

// opState tracks where the device is within one codec operation.
type opState int

const (
	stIdle opState = iota
	stReceiving
	stProcessing
	stEmitting
)

// Device is the behavioral model of the codec DUT. It implements Bus and
// Stepper and is the single shared resource of a harness run: exactly one
// logical thread of control drives it, alternating Write/Read calls with
// Step calls.
//
// State updates happen only inside Step. Transfer decisions (valid && ready
// sampled together) use the signal values as they stood when Step was
// entered, which is the pre-edge state; outputs registered at the end of
// Step are what Read observes until the next edge. This gives the same
// observable ordering as sampling an RTL simulation after each rising edge.
type Device struct {
	signals map[string]uint64

	periodNs   int64
	frameSize  int
	procCycles int

	timeNs int64
	cycle  int64

	state    opState
	errOp    bool // current operation failed selector validation; accept and discard
	opFresh  bool // config register written since last operation start
	procLeft int

	inSamples  []int16
	inPackets  []byte
	outPackets []byte
	outSamples []int16
}

// Option configures a Device.
type Option func(*Device)

// WithFrameSize overrides the samples-per-frame expectation.
func WithFrameSize(n int) Option {
	return func(d *Device) { d.frameSize = n }
}

// WithProcCycles overrides the encode busy window in cycles.
func WithProcCycles(n int) Option {
	return func(d *Device) { d.procCycles = n }
}

// WithClockPeriod overrides the clock period in nanoseconds.
func WithClockPeriod(ns int64) Option {
	return func(d *Device) { d.periodNs = ns }
}

// NewDevice creates a device in its power-on state. The device does not
// accept transfers until it has been through a reset cycle, mirroring RTL
// that requires reset before use.
func NewDevice(opts ...Option) *Device {
	d := &Device{
		signals:    make(map[string]uint64),
		periodNs:   DefaultClockPeriodNs,
		frameSize:  DefaultFrameSize,
		procCycles: DefaultProcCycles,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.signals[SigReset] = 1
	return d
}

// deviceDriven reports whether a signal is an output of the device.
func deviceDriven(name string) bool {
	switch name {
	case SigAudioInReady, SigPacketInReady,
		SigAudioOutData, SigAudioOutValid,
		SigPacketOutData, SigPacketOutValid,
		SigBusy, SigError, SigQualityMetric:
		return true
	}
	return false
}

// knownSignal reports whether name is part of the DUT boundary.
func knownSignal(name string) bool {
	switch name {
	case SigReset,
		SigAudioInData, SigAudioInValid, SigAudioInReady,
		SigAudioOutData, SigAudioOutValid, SigAudioOutReady,
		SigPacketInData, SigPacketInValid, SigPacketInReady,
		SigPacketOutData, SigPacketOutValid, SigPacketOutReady,
		SigEncodeMode, SigBitrateSel, SigBandwidthSel,
		SigBusy, SigError, SigQualityMetric:
		return true
	}
	return false
}

// Read implements Bus.
func (d *Device) Read(name string) uint64 {
	if !knownSignal(name) {
		panic(fmt.Sprintf("dut: read of unknown signal %q", name))
	}
	return d.signals[name]
}

// Write implements Bus. Writing a config register marks the start of a
// fresh operation: the selectors are revalidated at the next transfer and
// any sticky error from the previous operation is cleared. This matches
// the register contract: config is sampled at operation start, not
// transactionally on write.
func (d *Device) Write(name string, value uint64) {
	if !knownSignal(name) {
		panic(fmt.Sprintf("dut: write to unknown signal %q", name))
	}
	if deviceDriven(name) {
		panic(fmt.Sprintf("dut: write to device-driven signal %q", name))
	}
	d.signals[name] = value

	switch name {
	case SigEncodeMode, SigBitrateSel, SigBandwidthSel:
		d.opFresh = true
		if d.errOp {
			d.errOp = false
			d.state = stIdle
			d.signals[SigError] = 0
		}
	}
}

// Now implements Stepper.
func (d *Device) Now() int64 { return d.timeNs }

// Cycle implements Stepper.
func (d *Device) Cycle() int64 { return d.cycle }

// Step implements Stepper: one rising clock edge.
func (d *Device) Step() {
	d.cycle++
	d.timeNs += d.periodNs

	if d.signals[SigReset] == 0 {
		d.applyReset()
		return
	}

	encode := d.signals[SigEncodeMode] != 0

	// Input transfer: commits when valid and ready were both asserted
	// going into this edge.
	if encode {
		if d.signals[SigAudioInValid] != 0 && d.signals[SigAudioInReady] != 0 {
			d.acceptSample(int16(d.signals[SigAudioInData] & 0xFFFF))
		}
	} else {
		if d.signals[SigPacketInValid] != 0 && d.signals[SigPacketInReady] != 0 {
			d.acceptPacket(byte(d.signals[SigPacketInData] & 0xFF))
		}
	}

	// Output transfer: the item presented before this edge is consumed.
	if encode {
		if d.signals[SigPacketOutValid] != 0 && d.signals[SigPacketOutReady] != 0 && len(d.outPackets) > 0 {
			d.outPackets = d.outPackets[1:]
		}
	} else {
		if d.signals[SigAudioOutValid] != 0 && d.signals[SigAudioOutReady] != 0 && len(d.outSamples) > 0 {
			d.outSamples = d.outSamples[1:]
		}
	}

	// Encode pipeline: fixed busy window, then packet emission.
	if d.state == stProcessing {
		d.procLeft--
		if d.procLeft <= 0 {
			d.encodeFrame()
			d.state = stEmitting
		}
	}
	if d.state == stEmitting && len(d.outPackets) == 0 && len(d.outSamples) == 0 {
		d.state = stIdle
	}

	d.registerOutputs(encode)
}

// applyReset clears all operation state. Reset is observed level-sensitive
// on each edge while asserted, so holding reset for several cycles is
// equivalent to one long assertion.
func (d *Device) applyReset() {
	d.state = stIdle
	d.errOp = false
	d.opFresh = true
	d.procLeft = 0
	d.inSamples = nil
	d.inPackets = nil
	d.outPackets = nil
	d.outSamples = nil

	d.signals[SigBusy] = 0
	d.signals[SigError] = 0
	d.signals[SigQualityMetric] = 0
	d.signals[SigAudioOutValid] = 0
	d.signals[SigAudioOutData] = 0
	d.signals[SigPacketOutValid] = 0
	d.signals[SigPacketOutData] = 0
	d.registerOutputs(d.signals[SigEncodeMode] != 0)
}

// startOperation validates the selectors at the first transfer of an
// operation. Out-of-range selectors assert error for the whole operation;
// the device keeps accepting (and discarding) input so the producer does
// not stall on a configuration error.
func (d *Device) startOperation() {
	d.opFresh = false
	bitrate := d.signals[SigBitrateSel]
	bandwidth := d.signals[SigBandwidthSel]
	if bitrate > MaxBitrateSel || bandwidth > MaxBandwidthSel {
		d.errOp = true
		d.signals[SigError] = 1
	} else {
		d.errOp = false
		d.signals[SigError] = 0
	}
	d.state = stReceiving
}

func (d *Device) acceptSample(s int16) {
	if d.state == stIdle || d.opFresh {
		d.startOperation()
	}
	if d.errOp || d.state != stReceiving {
		return
	}
	d.inSamples = append(d.inSamples, s)
	if len(d.inSamples) >= d.frameSize {
		d.state = stProcessing
		d.procLeft = d.procCycles
	}
}

func (d *Device) acceptPacket(p byte) {
	if d.state == stIdle || d.opFresh {
		d.startOperation()
	}
	if d.errOp || d.state != stReceiving {
		return
	}
	d.inPackets = append(d.inPackets, p)
	if len(d.inPackets) >= d.frameSize/2 {
		d.decodeFrame()
		d.state = stEmitting
	}
}

// encodeFrame reduces the captured frame to frameSize/2 packets: the top
// byte of every other sample. A stand-in for the real transform chain that
// preserves the protocol-visible compression ratio and keeps round-trip
// error bounded enough to score.
func (d *Device) encodeFrame() {
	n := d.frameSize / 2
	d.outPackets = make([]byte, 0, n)
	for i := 0; i < n; i++ {
		d.outPackets = append(d.outPackets, byte(uint16(d.inSamples[2*i])>>8))
	}
	d.inSamples = nil

	// Quality estimate tracks the per-bitrate targets of the RTL:
	// 60 at selector 0 up to 95 at selector 7.
	d.signals[SigQualityMetric] = 60 + 5*(d.signals[SigBitrateSel]&MaxBitrateSel)
}

// decodeFrame reconstructs frameSize samples from the packet buffer: each
// packet becomes two identical samples with the payload as the top byte.
func (d *Device) decodeFrame() {
	d.outSamples = make([]int16, 0, d.frameSize)
	for _, p := range d.inPackets {
		s := int16(uint16(p) << 8)
		d.outSamples = append(d.outSamples, s, s)
	}
	d.inPackets = nil
}

// registerOutputs drives the device-side signals for the coming cycle.
func (d *Device) registerOutputs(encode bool) {
	accepting := d.state == stIdle || d.state == stReceiving
	if encode {
		setBit(d.signals, SigAudioInReady, accepting)
		setBit(d.signals, SigPacketInReady, false)
	} else {
		setBit(d.signals, SigPacketInReady, accepting)
		setBit(d.signals, SigAudioInReady, false)
	}

	if len(d.outPackets) > 0 {
		d.signals[SigPacketOutValid] = 1
		d.signals[SigPacketOutData] = uint64(d.outPackets[0])
	} else {
		d.signals[SigPacketOutValid] = 0
	}
	if len(d.outSamples) > 0 {
		d.signals[SigAudioOutValid] = 1
		d.signals[SigAudioOutData] = uint64(uint16(d.outSamples[0]))
	} else {
		d.signals[SigAudioOutValid] = 0
	}

	busy := d.state != stIdle && !d.errOp
	setBit(d.signals, SigBusy, busy)
}

func setBit(signals map[string]uint64, name string, v bool) {
	if v {
		signals[name] = 1
	} else {
		signals[name] = 0
	}
}
