// Package services defines shared utilities consumed by the fetch pipeline
// and the external integrations (discovery and caption retrieval).
//
// Key responsibilities:
//   - Context helpers that stamp collection names, item IDs, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that translate failures
//     from either integration into one outcome taxonomy (retryable vs
//     item-fatal vs rate-limit), so the orchestrator never inspects
//     tool-specific error surfaces.
//
// Use these helpers when wiring new integrations so operational behaviour
// (error handling, retries, backoff) stays uniform across the pipeline.
package services
