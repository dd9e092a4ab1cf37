package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// fileNameReplacer replaces filesystem-unsafe characters with underscores.
var fileNameReplacer = strings.NewReplacer(
	"\\", "_",
	"/", "_",
	"*", "_",
	"?", "_",
	":", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
)

// accentFolder strips combining marks after canonical decomposition, so
// "Český" folds to "Cesky".
var accentFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// SanitizeFileName replaces filesystem-unsafe characters in a filename with
// underscores and trims surrounding whitespace. Titles keep their original
// casing, spacing, and non-ASCII letters.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	return strings.TrimSpace(fileNameReplacer.Replace(name))
}

// SanitizeFileNameStrict produces a conservative ASCII-safe filename: accents
// are folded, whitespace runs collapse to single dashes, and anything outside
// letters, digits, dots, dashes, and underscores is dropped. Returns "untitled"
// when nothing survives.
func SanitizeFileNameStrict(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "untitled"
	}
	if folded, _, err := transform.String(accentFolder, name); err == nil {
		name = folded
	}

	var b strings.Builder
	b.Grow(len(name))
	lastDash := false
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case r == '.' || r == '_':
			b.WriteRune(r)
			lastDash = false
		case unicode.IsSpace(r) || r == '-':
			if !lastDash && b.Len() > 0 {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	out := strings.Trim(b.String(), "-._")
	if out == "" {
		return "untitled"
	}
	return out
}

// SanitizeDirName sanitizes a collection name for use as a directory. Unsafe
// characters become underscores and trailing dots are trimmed so the name is
// valid on case-insensitive filesystems too.
func SanitizeDirName(name string) string {
	out := SanitizeFileName(name)
	out = strings.TrimRight(out, ". ")
	if out == "" {
		return "untitled"
	}
	return out
}

// Truncate shortens a string to at most max runes so filenames built from
// long video titles stay within filesystem limits.
func Truncate(value string, max int) string {
	if max <= 0 {
		return ""
	}
	runeCount := 0
	for idx := range value {
		if runeCount == max {
			return value[:idx]
		}
		runeCount++
	}
	return value
}
