// Package textutil provides filename and path segment sanitization.
//
// Two modes are offered: the default mode replaces filesystem-unsafe
// characters with underscores while preserving titles as-is, and the strict
// mode folds accents and collapses whitespace into dashes for portable
// ASCII-only names.
package textutil
