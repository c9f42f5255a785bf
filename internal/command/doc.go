// Package command implements the cell info orchestrator.
//
// The orchestrator resolves the active platform adapter, evaluates the
// capability gate, runs the live-then-cached acquisition, optionally
// augments subscription records and renders the JSON array. Every call,
// successful or not, is written to the audit log, published to the
// telemetry hub and counted in metrics.
package command
