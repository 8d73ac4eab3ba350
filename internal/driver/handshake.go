package driver

import "github.com/vyges/mlowtb/internal/dut"

// Producer drives one direction of a valid/ready channel from the harness
// side: it presents data, asserts valid for exactly one edge once the
// consumer's ready is observed, then deasserts.
type Producer struct {
	bus    dut.Bus
	clk    dut.Stepper
	waiter *Waiter

	data  string
	valid string
	ready string
}

// NewProducer creates a producer for the channel formed by the given data,
// valid and ready signal names. The valid line is harness-driven, the
// ready line device-driven.
func NewProducer(bus dut.Bus, clk dut.Stepper, data, valid, ready string) *Producer {
	return &Producer{
		bus:    bus,
		clk:    clk,
		waiter: NewWaiter(clk),
		data:   data,
		valid:  valid,
		ready:  ready,
	}
}

// Produce transfers one item. It waits up to timeoutCycles edges for the
// consumer's ready line, then drives the item with valid asserted for one
// edge. The transfer commits on that edge because both lines are asserted
// going into it.
func (p *Producer) Produce(item uint64, timeoutCycles int) error {
	if p.waiter.AwaitBit(p.bus, p.ready, true, timeoutCycles) == TimedOut {
		return &TimeoutError{Op: "produce", Signal: p.ready, Cycles: timeoutCycles}
	}
	p.bus.Write(p.data, item)
	dut.WriteBit(p.bus, p.valid, true)
	p.clk.Step()
	dut.WriteBit(p.bus, p.valid, false)
	return nil
}

// ProduceAll transfers items in order with a per-item timeout. Returns the
// number of items transferred; on timeout the error identifies the stall
// and the count tells how far the stream got.
func (p *Producer) ProduceAll(items []uint64, timeoutCycles int) (int, error) {
	for i, item := range items {
		if err := p.Produce(item, timeoutCycles); err != nil {
			return i, err
		}
	}
	return len(items), nil
}

// Consumer pulls one direction of a valid/ready channel from the harness
// side. It owns the ready line for the duration of a Consume call.
type Consumer struct {
	bus dut.Bus
	clk dut.Stepper

	data  string
	valid string
	ready string
}

// NewConsumer creates a consumer for the channel formed by the given data,
// valid and ready signal names. The ready line is harness-driven, the
// valid line device-driven.
func NewConsumer(bus dut.Bus, clk dut.Stepper, data, valid, ready string) *Consumer {
	return &Consumer{
		bus:   bus,
		clk:   clk,
		data:  data,
		valid: valid,
		ready: ready,
	}
}

// Consume captures up to expected items. Ready is asserted on entry and
// deasserted on return. An item is captured whenever valid and ready are
// both asserted going into an edge; the edge commits the transfer.
//
// Timeout semantics: timeoutCycles counts total elapsed edges while zero
// items have arrived. Once the stream has made progress the same budget
// applies to edges since the last item, so a slow stream may run past the
// raw budget as long as items keep arriving, while a total stall is still
// detected. On timeout the items captured so far are returned alongside
// the error.
func (c *Consumer) Consume(expected, timeoutCycles int) ([]uint64, error) {
	dut.WriteBit(c.bus, c.ready, true)
	defer dut.WriteBit(c.bus, c.ready, false)

	items := make([]uint64, 0, expected)
	idle := 0
	for len(items) < expected {
		if dut.ReadBit(c.bus, c.valid) && dut.ReadBit(c.bus, c.ready) {
			items = append(items, c.bus.Read(c.data))
			idle = 0
			c.clk.Step() // commit edge for the captured item
			continue
		}
		c.clk.Step()
		idle++
		if idle >= timeoutCycles {
			return items, &TimeoutError{
				Op:       "consume",
				Signal:   c.valid,
				Cycles:   timeoutCycles,
				Received: len(items),
			}
		}
	}
	return items, nil
}
