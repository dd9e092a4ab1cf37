package variant_test

import (
	"reflect"
	"testing"

	"scribe/internal/variant"
)

func langs(variants []variant.Variant) []string {
	out := make([]string, 0, len(variants))
	for _, v := range variants {
		out = append(out, v.Language+"/"+v.Authorship.String())
	}
	return out
}

func TestSelectPrefersManualOverAuto(t *testing.T) {
	available := []variant.Variant{
		{Language: "en", Authorship: variant.AuthorshipAutoGenerated},
		{Language: "en", Authorship: variant.AuthorshipManual},
		{Language: "es", Authorship: variant.AuthorshipManual},
	}
	policy := variant.Policy{Requested: []string{"en", "es"}}

	got := langs(variant.Select(available, policy))
	want := []string{"en/manual", "es/manual"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Select = %v, want %v", got, want)
	}
}

func TestSelectSkipsAbsentLanguages(t *testing.T) {
	// Item has only auto Spanish and French; requesting en+es yields es only.
	available := []variant.Variant{
		{Language: "es", Authorship: variant.AuthorshipAutoGenerated},
		{Language: "fr", Authorship: variant.AuthorshipManual},
	}
	policy := variant.Policy{Requested: []string{"en", "es"}}

	got := langs(variant.Select(available, policy))
	want := []string{"es/auto_generated"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Select = %v, want %v", got, want)
	}
}

func TestSelectEmptyWhenNothingMatches(t *testing.T) {
	available := []variant.Variant{
		{Language: "fr", Authorship: variant.AuthorshipManual},
	}
	policy := variant.Policy{Requested: []string{"en", "es"}}
	if got := variant.Select(available, policy); len(got) != 0 {
		t.Fatalf("expected empty selection, got %v", langs(got))
	}
	if got := variant.Select(nil, policy); got != nil {
		t.Fatalf("expected nil for no variants, got %v", langs(got))
	}
}

func TestSelectAllowAllReturnsBestPerLanguage(t *testing.T) {
	available := []variant.Variant{
		{Language: "fr", Authorship: variant.AuthorshipAutoGenerated},
		{Language: "en", Authorship: variant.AuthorshipAutoGenerated},
		{Language: "en", Authorship: variant.AuthorshipManual},
	}
	policy := variant.Policy{AllowAll: true}

	got := langs(variant.Select(available, policy))
	want := []string{"en/manual", "fr/auto_generated"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Select = %v, want %v", got, want)
	}
}

func TestSelectFallbackChain(t *testing.T) {
	t.Setenv("LC_ALL", "")
	t.Setenv("LC_MESSAGES", "")
	t.Setenv("LANG", "")

	available := []variant.Variant{
		{Language: "de", Authorship: variant.AuthorshipManual},
		{Language: "en", Authorship: variant.AuthorshipAutoGenerated},
	}

	// Empty request falls back to the configured default.
	got := langs(variant.Select(available, variant.Policy{Default: "de"}))
	if !reflect.DeepEqual(got, []string{"de/manual"}) {
		t.Fatalf("default fallback = %v", got)
	}

	// Default absent, locale detection off: falls through to en.
	got = langs(variant.Select(available, variant.Policy{Default: "it"}))
	if !reflect.DeepEqual(got, []string{"en/auto_generated"}) {
		t.Fatalf("en fallback = %v", got)
	}

	// Locale beats the built-in en fallback.
	t.Setenv("LANG", "de_DE.UTF-8")
	got = langs(variant.Select(available, variant.Policy{Default: "it", DetectLocale: true}))
	if !reflect.DeepEqual(got, []string{"de/manual"}) {
		t.Fatalf("locale fallback = %v", got)
	}
}

func TestSelectPrimarySubtagMatch(t *testing.T) {
	available := []variant.Variant{
		{Language: "pt-BR", Authorship: variant.AuthorshipManual},
	}
	policy := variant.Policy{Requested: []string{"pt"}}
	got := langs(variant.Select(available, policy))
	if !reflect.DeepEqual(got, []string{"pt-BR/manual"}) {
		t.Fatalf("primary subtag match = %v", got)
	}
}

func TestSelectDeterministic(t *testing.T) {
	available := []variant.Variant{
		{Language: "es", Authorship: variant.AuthorshipManual},
		{Language: "en", Authorship: variant.AuthorshipAutoGenerated},
		{Language: "en", Authorship: variant.AuthorshipManual},
		{Language: "fr", Authorship: variant.AuthorshipAutoGenerated},
	}
	policy := variant.Policy{Requested: []string{"en", "es", "fr"}}

	first := langs(variant.Select(available, policy))
	for i := 0; i < 50; i++ {
		// Rotate the input order; output must not change.
		available = append(available[1:], available[0])
		if got := langs(variant.Select(available, policy)); !reflect.DeepEqual(got, first) {
			t.Fatalf("iteration %d: Select = %v, want %v", i, got, first)
		}
	}
}
