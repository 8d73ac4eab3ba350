package driver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyges/mlowtb/internal/testutil"
)

const (
	sigData  = "data_i"
	sigValid = "valid_i"
	sigReady = "ready_o"
)

func TestProduceWaitsForReady(t *testing.T) {
	bus := testutil.NewScriptedBus(20)
	bus.Script(sigReady, 0, 0, 1)

	p := NewProducer(bus, bus, sigData, sigValid, sigReady)
	err := p.Produce(0x42, 10)
	require.NoError(t, err)

	// Three edges waiting for ready plus the commit edge.
	assert.Equal(t, int64(4), bus.Cycle())
	assert.Equal(t, uint64(0x42), bus.Read(sigData))
	assert.Equal(t, uint64(0), bus.Read(sigValid), "valid deasserted after the commit edge")
}

func TestProduceTimesOutWhenNeverReady(t *testing.T) {
	bus := testutil.NewScriptedBus(20)

	p := NewProducer(bus, bus, sigData, sigValid, sigReady)
	err := p.Produce(0x42, 5)

	require.Error(t, err)
	assert.True(t, IsTimeout(err))

	var te *TimeoutError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "produce", te.Op)
	assert.Equal(t, sigReady, te.Signal)
	assert.Equal(t, 5, te.Cycles)
}

func TestProduceAllReportsProgress(t *testing.T) {
	bus := testutil.NewScriptedBus(20)
	// Ready for the first two items, then the consumer stalls.
	bus.Script(sigReady, 1, 1, 1, 0)

	p := NewProducer(bus, bus, sigData, sigValid, sigReady)
	n, err := p.ProduceAll([]uint64{1, 2, 3}, 4)

	require.Error(t, err)
	assert.True(t, IsTimeout(err))
	assert.Equal(t, 2, n)
}

func TestConsumeCapturesExpectedItems(t *testing.T) {
	bus := testutil.NewScriptedBus(20)
	bus.Set(sigValid, 1)
	bus.Set(sigData, 10)
	bus.Script(sigData, 20, 30)

	c := NewConsumer(bus, bus, sigData, sigValid, sigReady)
	items, err := c.Consume(3, 10)

	require.NoError(t, err)
	assert.Equal(t, []uint64{10, 20, 30}, items)
	assert.Equal(t, uint64(0), bus.Read(sigReady), "ready released on return")
}

func TestConsumeToleratesGaps(t *testing.T) {
	bus := testutil.NewScriptedBus(20)
	bus.Set(sigValid, 1)
	bus.Set(sigData, 1)
	// A bubble between the first and second item.
	bus.Script(sigValid, 0, 0, 1)
	bus.Script(sigData, 0, 0, 2)

	c := NewConsumer(bus, bus, sigData, sigValid, sigReady)
	items, err := c.Consume(2, 10)

	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2}, items)
}

func TestConsumeTimeoutReturnsPartialItems(t *testing.T) {
	bus := testutil.NewScriptedBus(20)
	bus.Set(sigValid, 1)
	bus.Set(sigData, 7)
	// One item, then the stream goes quiet for good.
	bus.Script(sigValid, 0)

	c := NewConsumer(bus, bus, sigData, sigValid, sigReady)
	items, err := c.Consume(5, 6)

	require.Error(t, err)
	assert.True(t, IsTimeout(err))
	assert.Equal(t, []uint64{7}, items)

	var te *TimeoutError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "consume", te.Op)
	assert.Equal(t, 1, te.Received)
}

func TestConsumeTimesOutWithNothing(t *testing.T) {
	bus := testutil.NewScriptedBus(20)

	c := NewConsumer(bus, bus, sigData, sigValid, sigReady)
	items, err := c.Consume(1, 4)

	require.Error(t, err)
	assert.Empty(t, items)
	assert.Equal(t, int64(4), bus.Cycle())
}

func TestTimeoutErrorMessage(t *testing.T) {
	err := &TimeoutError{Op: "consume", Signal: "audio_valid_o", Cycles: 100, Received: 3}
	assert.Contains(t, err.Error(), "consume")
	assert.Contains(t, err.Error(), "audio_valid_o")
	assert.False(t, IsTimeout(assert.AnError))
}
