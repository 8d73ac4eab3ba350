package dut

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetDevice walks a device through a full reset cycle.
func resetDevice(d *Device) {
	d.Write(SigReset, 0)
	for i := 0; i < 5; i++ {
		d.Step()
	}
	d.Write(SigReset, 1)
	for i := 0; i < 5; i++ {
		d.Step()
	}
}

// produceFrame pushes samples through the audio input handshake one item
// per edge, waiting for ready between items.
func produceFrame(t *testing.T, d *Device, samples []int16) {
	t.Helper()
	for _, s := range samples {
		waited := 0
		for d.Read(SigAudioInReady) == 0 {
			d.Step()
			waited++
			require.Less(t, waited, 1000, "audio input stalled")
		}
		WriteSample(d, SigAudioInData, s)
		WriteBit(d, SigAudioInValid, true)
		d.Step()
		WriteBit(d, SigAudioInValid, false)
	}
}

func TestDeviceResetClearsStatus(t *testing.T) {
	d := NewDevice()
	resetDevice(d)

	assert.False(t, ReadBit(d, SigBusy))
	assert.False(t, ReadBit(d, SigError))
	assert.Equal(t, uint64(0), d.Read(SigQualityMetric))
	assert.False(t, ReadBit(d, SigAudioOutValid))
	assert.False(t, ReadBit(d, SigPacketOutValid))
}

func TestDeviceEncodeFrame(t *testing.T) {
	d := NewDevice(WithFrameSize(8), WithProcCycles(4))
	resetDevice(d)

	d.Write(SigEncodeMode, 1)
	d.Write(SigBitrateSel, 3)
	d.Write(SigBandwidthSel, 1)

	samples := []int16{0x1100, 0x2200, 0x3300, 0x4400, 0x5500, 0x6600, 0x7700, 0x100}
	produceFrame(t, d, samples)

	// Drain the processing window.
	for i := 0; i < 20 && !ReadBit(d, SigPacketOutValid); i++ {
		d.Step()
	}
	require.True(t, ReadBit(d, SigPacketOutValid))

	// Top byte of every other sample.
	var packets []byte
	WriteBit(d, SigPacketOutReady, true)
	for len(packets) < 4 {
		if ReadBit(d, SigPacketOutValid) {
			packets = append(packets, byte(d.Read(SigPacketOutData)))
		}
		d.Step()
	}
	WriteBit(d, SigPacketOutReady, false)

	assert.Equal(t, []byte{0x11, 0x33, 0x55, 0x77}, packets)
	assert.Equal(t, uint64(75), d.Read(SigQualityMetric))
	assert.False(t, ReadBit(d, SigError))
}

func TestDeviceDecodeFrame(t *testing.T) {
	d := NewDevice(WithFrameSize(4))
	resetDevice(d)

	d.Write(SigEncodeMode, 0)
	d.Write(SigBitrateSel, 0)
	d.Write(SigBandwidthSel, 0)

	for _, p := range []byte{0x12, 0x34} {
		require.True(t, ReadBit(d, SigPacketInReady))
		d.Write(SigPacketInData, uint64(p))
		WriteBit(d, SigPacketInValid, true)
		d.Step()
		WriteBit(d, SigPacketInValid, false)
	}

	var samples []int16
	WriteBit(d, SigAudioOutReady, true)
	for len(samples) < 4 {
		if ReadBit(d, SigAudioOutValid) {
			samples = append(samples, ReadSample(d, SigAudioOutData))
		}
		d.Step()
	}
	WriteBit(d, SigAudioOutReady, false)

	assert.Equal(t, []int16{0x1200, 0x1200, 0x3400, 0x3400}, samples)
}

func TestDeviceInvalidBitrateAssertsError(t *testing.T) {
	d := NewDevice(WithFrameSize(4))
	resetDevice(d)

	d.Write(SigEncodeMode, 1)
	d.Write(SigBitrateSel, 15)
	d.Write(SigBandwidthSel, 1)

	produceFrame(t, d, []int16{1, 2, 3, 4})

	assert.True(t, ReadBit(d, SigError))
	// A configuration error never starts a busy window and never stalls
	// the producer.
	assert.False(t, ReadBit(d, SigBusy))
	assert.True(t, ReadBit(d, SigAudioInReady))
	assert.False(t, ReadBit(d, SigPacketOutValid))
}

func TestDeviceInvalidBandwidthAssertsError(t *testing.T) {
	d := NewDevice(WithFrameSize(4))
	resetDevice(d)

	d.Write(SigEncodeMode, 1)
	d.Write(SigBitrateSel, 0)
	d.Write(SigBandwidthSel, 3)

	produceFrame(t, d, []int16{1, 2, 3, 4})

	assert.True(t, ReadBit(d, SigError))
}

func TestDeviceConfigWriteClearsError(t *testing.T) {
	d := NewDevice(WithFrameSize(4))
	resetDevice(d)

	d.Write(SigEncodeMode, 1)
	d.Write(SigBitrateSel, 15)
	produceFrame(t, d, []int16{1})
	require.True(t, ReadBit(d, SigError))

	d.Write(SigBitrateSel, 3)
	assert.False(t, ReadBit(d, SigError))

	// The fresh config is picked up by the next operation.
	produceFrame(t, d, []int16{1, 2, 3, 4})
	for i := 0; i < DefaultProcCycles+2; i++ {
		d.Step()
	}
	assert.False(t, ReadBit(d, SigError))
	assert.Equal(t, uint64(75), d.Read(SigQualityMetric))
}

func TestDeviceUnknownSignalPanics(t *testing.T) {
	d := NewDevice()
	assert.Panics(t, func() { d.Read("no_such_signal") })
	assert.Panics(t, func() { d.Write("no_such_signal", 1) })
}

func TestDeviceWriteToOutputPanics(t *testing.T) {
	d := NewDevice()
	assert.Panics(t, func() { d.Write(SigBusy, 1) })
	assert.Panics(t, func() { d.Write(SigAudioInReady, 1) })
}

func TestDeviceClockAccounting(t *testing.T) {
	d := NewDevice()
	require.Equal(t, int64(0), d.Cycle())
	for i := 0; i < 7; i++ {
		d.Step()
	}
	assert.Equal(t, int64(7), d.Cycle())
	assert.Equal(t, int64(7*DefaultClockPeriodNs), d.Now())
}
