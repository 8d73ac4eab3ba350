// Package results accumulates per-scenario outcomes and renders the run
// summary.
//
// The Aggregator is a single owned instance passed explicitly through the
// orchestrator - never ambient global state. It is append-only from one
// writer and read-only after Summarize. Outcomes can optionally be
// persisted to a SQLite results log keyed by run ID for later inspection
// with the trace command.
package results
