// Package language provides unified language tag normalization and mapping.
//
// All language-related conversions (canonical tags, display names, locale
// detection, directory-name heuristics) are consolidated here to avoid
// duplication across the variant, layout, and workflow packages.
package language
