package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScriptedBusAppliesWaveformPerEdge(t *testing.T) {
	bus := NewScriptedBus(20)
	bus.Script("ready", 0, 0, 1)

	assert.Equal(t, uint64(0), bus.Read("ready"))

	bus.Step()
	assert.Equal(t, uint64(0), bus.Read("ready"))

	bus.Step()
	bus.Step()
	assert.Equal(t, uint64(1), bus.Read("ready"))

	// Exhausted script holds its last value.
	bus.Step()
	assert.Equal(t, uint64(1), bus.Read("ready"))
}

func TestScriptedBusTracksTime(t *testing.T) {
	bus := NewScriptedBus(20)
	for i := 0; i < 5; i++ {
		bus.Step()
	}
	assert.Equal(t, int64(5), bus.Cycle())
	assert.Equal(t, int64(100), bus.Now())
}

func TestScriptedBusWriteReadBack(t *testing.T) {
	bus := NewScriptedBus(20)
	bus.Write("valid", 1)
	assert.Equal(t, uint64(1), bus.Read("valid"))
	assert.Equal(t, uint64(0), bus.Read("unknown"))
}
