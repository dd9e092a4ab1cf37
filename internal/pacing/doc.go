// Package pacing implements the request pacing and recovery controller.
//
// A single Controller instance governs the whole process: every fetch first
// acquires a slot, which enforces a jittered inter-request delay and a
// posture-dependent concurrency ceiling. When the remote service starts rate
// limiting, the controller drops to the conservative posture, pauses all new
// slots for a randomized cooldown window, holds a grace period, and then
// ramps back one posture level at a time after a streak of consecutive
// successes. Repeated blocks double the next cooldown window up to a cap.
package pacing
