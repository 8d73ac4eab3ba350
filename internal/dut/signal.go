package dut

// Signal names on the DUT boundary. Suffix convention follows the RTL port
// list: _i signals are driven by the harness, _o signals by the device.
const (
	SigReset = "reset_n_i" // active low

	SigAudioInData  = "audio_data_i"
	SigAudioInValid = "audio_valid_i"
	SigAudioInReady = "audio_ready_o"

	SigAudioOutData  = "audio_data_o"
	SigAudioOutValid = "audio_valid_o"
	SigAudioOutReady = "audio_ready_i"

	SigPacketInData  = "packet_data_i"
	SigPacketInValid = "packet_valid_i"
	SigPacketInReady = "packet_ready_o"

	SigPacketOutData  = "packet_data_o"
	SigPacketOutValid = "packet_valid_o"
	SigPacketOutReady = "packet_ready_i"

	SigEncodeMode    = "encode_mode_i"
	SigBitrateSel    = "bitrate_sel_i"
	SigBandwidthSel  = "bandwidth_sel_i"
	SigBusy          = "busy_o"
	SigError         = "error_o"
	SigQualityMetric = "quality_metric_o"
)

// Bus provides typed read/write access to named signals on the DUT
// boundary. Writes to device-driven (_o) signals are rejected by the
// device implementation; reads are allowed on any signal at any time.
//
// Signal names are a closed, compile-time set. Accessing an unknown name
// is a programming error and panics rather than returning an error, so
// that driver code stays free of impossible error paths.
type Bus interface {
	// Read returns the current value of the named signal.
	Read(name string) uint64

	// Write drives the named harness-side signal. The new value is
	// observed by the device at the next rising edge.
	Write(name string, value uint64)
}

// Stepper is the clock source contract: advance exactly one rising edge,
// and read the current simulated time. The harness never needs anything
// finer grained than these two operations.
type Stepper interface {
	// Step advances simulated time by one clock period and applies one
	// rising edge to the device.
	Step()

	// Now returns the current simulated time in nanoseconds.
	Now() int64

	// Cycle returns the number of rising edges applied so far.
	Cycle() int64
}

// ReadBit reads a single-bit signal as a bool.
func ReadBit(b Bus, name string) bool {
	return b.Read(name) != 0
}

// WriteBit drives a single-bit signal from a bool.
func WriteBit(b Bus, name string, v bool) {
	if v {
		b.Write(name, 1)
	} else {
		b.Write(name, 0)
	}
}

// ReadSample reads a 16-bit signed audio sample from a data signal,
// sign-extending from the low 16 bits.
func ReadSample(b Bus, name string) int16 {
	return int16(b.Read(name) & 0xFFFF)
}

// WriteSample drives a 16-bit signed audio sample onto a data signal.
// Matches the RTL convention of presenting samples as raw 16-bit words.
func WriteSample(b Bus, name string, s int16) {
	b.Write(name, uint64(uint16(s)))
}
