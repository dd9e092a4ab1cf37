// Package variant models caption track variants and selects which ones to
// fetch for an item.
package variant

import (
	"sort"

	"scribe/internal/language"
)

// Authorship distinguishes human-written caption tracks from generated ones.
type Authorship int

const (
	AuthorshipManual Authorship = iota
	AuthorshipAutoGenerated
)

func (a Authorship) String() string {
	if a == AuthorshipManual {
		return "manual"
	}
	return "auto_generated"
}

// Quality scores used when two variants share a language. Manual tracks
// always beat auto-generated ones.
const (
	qualityManual = 100
	qualityAuto   = 50
)

// Variant is one fetchable caption track for an item. Discovered per item at
// fetch time and never persisted on its own.
type Variant struct {
	Language   string // normalized tag, e.g. "en", "zh-Hans"
	Authorship Authorship
	URL        string // track download URL, opaque to the resolver
}

// QualityScore ranks the variant for tie-breaking within one language.
func (v Variant) QualityScore() int {
	if v.Authorship == AuthorshipManual {
		return qualityManual
	}
	return qualityAuto
}

// Policy captures the language preferences for a run.
type Policy struct {
	Requested    []string
	Default      string
	AllowAll     bool
	DetectLocale bool
}

// RequestedOrFallback returns the effective preference list: the requested
// languages when present, otherwise the configured default, the detected
// locale language, and "en", in that order.
func (p Policy) RequestedOrFallback() []string {
	if len(p.Requested) > 0 {
		return language.NormalizeList(p.Requested)
	}
	chain := make([]string, 0, 3)
	if p.Default != "" {
		chain = append(chain, p.Default)
	}
	if p.DetectLocale {
		if locale := language.FromLocaleEnv(); locale != "" {
			chain = append(chain, locale)
		}
	}
	chain = append(chain, "en")
	return language.NormalizeList(chain)
}

// Select picks the ordered subset of available variants to fetch. An empty
// result means no variant matched; callers treat that as "no matching
// variant" for the item, not as an error.
//
// The result is deterministic for identical inputs: candidates are sorted
// before selection so incidental map iteration order never leaks through.
func Select(available []Variant, policy Policy) []Variant {
	if len(available) == 0 {
		return nil
	}

	sorted := make([]Variant, len(available))
	copy(sorted, available)
	for i := range sorted {
		sorted[i].Language = language.Normalize(sorted[i].Language)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Language != sorted[j].Language {
			return sorted[i].Language < sorted[j].Language
		}
		return sorted[i].QualityScore() > sorted[j].QualityScore()
	})

	if policy.AllowAll {
		// Best variant per language, every language, sorted by tag.
		out := make([]Variant, 0, len(sorted))
		seen := make(map[string]struct{}, len(sorted))
		for _, v := range sorted {
			if _, ok := seen[v.Language]; ok {
				continue
			}
			seen[v.Language] = struct{}{}
			out = append(out, v)
		}
		return out
	}

	var out []Variant
	used := make(map[string]struct{})
	for _, want := range policy.RequestedOrFallback() {
		best, ok := bestFor(sorted, want)
		if !ok {
			continue
		}
		if _, dup := used[best.Language]; dup {
			continue
		}
		used[best.Language] = struct{}{}
		out = append(out, best)
		if len(policy.Requested) == 0 {
			// Fallback chain yields at most one variant.
			break
		}
	}
	return out
}

// bestFor returns the highest-quality variant matching the wanted tag.
// An exact tag match wins; failing that, a primary-subtag match lets a
// request for "pt" pick up a "pt-BR" track.
func bestFor(sorted []Variant, want string) (Variant, bool) {
	want = language.Normalize(want)
	var primaryHit Variant
	var havePrimary bool
	bestScore := -1
	var exactHit Variant
	haveExact := false

	for _, v := range sorted {
		if v.Language == want {
			if !haveExact || v.QualityScore() > exactHit.QualityScore() {
				exactHit = v
				haveExact = true
			}
			continue
		}
		if language.Primary(v.Language) == language.Primary(want) {
			if v.QualityScore() > bestScore {
				primaryHit = v
				bestScore = v.QualityScore()
				havePrimary = true
			}
		}
	}
	if haveExact {
		return exactHit, true
	}
	if havePrimary {
		return primaryHit, true
	}
	return Variant{}, false
}
