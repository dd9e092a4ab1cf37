// Package workflow orchestrates transcript runs end to end.
//
// For each collection URL the manager discovers items, filters out work the
// resume ledger already recorded, and fans the remainder across a worker
// pool. Every fetch first acquires a pacing slot, so the controller's
// cooldown and posture govern live concurrency, not just future delay. An
// item is recorded in the ledger only after all of its artifacts are durably
// placed; per-run outcomes additionally land in the runstate database for
// reporting.
package workflow
