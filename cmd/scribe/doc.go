// Command scribe fetches caption tracks for video collections in bulk.
//
// A run walks each collection URL, skips items already recorded in the
// collection's resume ledger, and paces its requests so a long backfill can
// survive remote rate limiting. See `scribe run --help` for the main entry
// point and `scribe config init` to generate a starting configuration.
package main
