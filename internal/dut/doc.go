// Package dut models the signal boundary of the MLow codec device under
// test and provides the behavioral device used by the harness.
//
// The boundary is the port contract of the codec RTL: a free-running clock,
// an active-low asynchronous-capable reset, two valid/ready audio channels
// (16-bit signed samples in and out), two valid/ready packet channels
// (8-bit payloads in and out), three config registers (mode, bitrate
// selector, bandwidth selector) and three status outputs (busy, error,
// quality metric).
//
// ARCHITECTURE:
//
// Single-Driver Stepping:
// The simulation is strictly cooperative. There is exactly one logical
// thread of control; it mutates harness-driven signals through Bus.Write,
// then advances simulated time one rising edge at a time through
// Stepper.Step. The device updates its state and its device-driven signals
// synchronously inside Step, so every Bus.Read between two Step calls
// observes one coherent post-edge state. Nothing in this package spawns
// goroutines or uses wall-clock time.
//
// The behavioral Device is not the codec algorithm. It reproduces the
// protocol-visible behavior of the RTL (handshake acceptance, selector
// validation, busy/error status, packet emission, sample reconstruction)
// with a deliberately simple compression model, so that the driver and
// orchestrator layers can be exercised without a circuit simulator.
package dut
