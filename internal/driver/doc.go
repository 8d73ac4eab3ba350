// Package driver implements the signal-level protocol drivers: a
// cycle-bounded wait primitive and the valid/ready handshake channel.
//
// Suspension is explicit. Every wait advances the clock one rising edge at
// a time and re-evaluates its predicate after each edge; the outcome is a
// return value (Satisfied or TimedOut), never hidden control flow. One
// evaluation per edge bounds simulation cost and matches the synchronous
// update granularity of the device.
//
// A handshake transfer commits on a clock edge iff the producer's valid
// line and the consumer's ready line are both asserted going into that
// edge. Neither line alone causes a transfer; data sampled at the commit
// edge is transferred exactly once.
package driver
