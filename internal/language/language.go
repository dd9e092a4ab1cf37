package language

import (
	"os"
	"strings"
)

type entry struct {
	code2   string   // ISO 639-1 (2-letter)
	code3   string   // ISO 639-2 primary (3-letter)
	alt3    string   // ISO 639-2 alternate (e.g. "fre" vs "fra")
	display string   // Human-readable name
	words   []string // Full word forms (e.g. "english")
}

var languages = []entry{
	{"en", "eng", "", "English", []string{"english"}},
	{"es", "spa", "", "Spanish", []string{"spanish"}},
	{"fr", "fra", "fre", "French", []string{"french"}},
	{"de", "deu", "ger", "German", []string{"german"}},
	{"it", "ita", "", "Italian", []string{"italian"}},
	{"pt", "por", "", "Portuguese", []string{"portuguese"}},
	{"ja", "jpn", "", "Japanese", []string{"japanese"}},
	{"ko", "kor", "", "Korean", []string{"korean"}},
	{"zh", "zho", "chi", "Chinese", []string{"chinese"}},
	{"ru", "rus", "", "Russian", []string{"russian"}},
	{"ar", "ara", "", "Arabic", []string{"arabic"}},
	{"hi", "hin", "", "Hindi", []string{"hindi"}},
	{"nl", "nld", "dut", "Dutch", []string{"dutch"}},
	{"pl", "pol", "", "Polish", []string{"polish"}},
	{"sv", "swe", "", "Swedish", []string{"swedish"}},
	{"da", "dan", "", "Danish", []string{"danish"}},
	{"no", "nor", "", "Norwegian", []string{"norwegian"}},
	{"fi", "fin", "", "Finnish", []string{"finnish"}},
	{"tr", "tur", "", "Turkish", []string{"turkish"}},
	{"vi", "vie", "", "Vietnamese", []string{"vietnamese"}},
	{"th", "tha", "", "Thai", []string{"thai"}},
	{"id", "ind", "", "Indonesian", []string{"indonesian"}},
	{"uk", "ukr", "", "Ukrainian", []string{"ukrainian"}},
	{"cs", "ces", "cze", "Czech", []string{"czech"}},
}

// Index maps built at init time.
var (
	byCode2 map[string]*entry
	byCode3 map[string]*entry
	byWord  map[string]*entry
)

func init() {
	byCode2 = make(map[string]*entry, len(languages))
	byCode3 = make(map[string]*entry, len(languages)*2)
	byWord = make(map[string]*entry, len(languages))
	for i := range languages {
		e := &languages[i]
		byCode2[e.code2] = e
		byCode3[e.code3] = e
		if e.alt3 != "" {
			byCode3[e.alt3] = e
		}
		for _, w := range e.words {
			byWord[w] = e
		}
	}
}

func lookup(code string) *entry {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil
	}
	if e, ok := byCode2[code]; ok {
		return e
	}
	if e, ok := byCode3[code]; ok {
		return e
	}
	if e, ok := byWord[code]; ok {
		return e
	}
	return nil
}

// Normalize canonicalizes a caption language tag. The primary subtag is
// lowercased and mapped to ISO 639-1 when a 3-letter or word form is
// recognized; region and script subtags are preserved with conventional
// casing (zh-Hans, pt-BR). Unrecognized tags pass through lowercased so
// caption tracks in languages outside the table are still usable.
func Normalize(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	code = strings.ReplaceAll(code, "_", "-")
	parts := strings.Split(code, "-")

	primary := strings.ToLower(parts[0])
	if len(primary) > 2 {
		if e := lookup(primary); e != nil {
			primary = e.code2
		}
	}

	out := []string{primary}
	for _, sub := range parts[1:] {
		sub = strings.TrimSpace(sub)
		if sub == "" {
			continue
		}
		switch len(sub) {
		case 2:
			// Region subtag (US, BR).
			out = append(out, strings.ToUpper(sub))
		case 4:
			// Script subtag (Hans, Latn).
			out = append(out, strings.ToUpper(sub[:1])+strings.ToLower(sub[1:]))
		default:
			out = append(out, strings.ToLower(sub))
		}
	}
	return strings.Join(out, "-")
}

// Primary returns the primary language subtag of a normalized tag, so
// "pt-BR" matches a request for "pt".
func Primary(code string) string {
	code = Normalize(code)
	if idx := strings.IndexByte(code, '-'); idx > 0 {
		return code[:idx]
	}
	return code
}

// DisplayName returns a human-readable language name for any recognized code.
// Returns "Unknown" for empty input, or the uppercased code for unrecognized input.
func DisplayName(code string) string {
	if strings.TrimSpace(code) == "" {
		return "Unknown"
	}
	if e := lookup(Primary(code)); e != nil {
		return e.display
	}
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsLikelyTag reports whether a string looks like a language tag rather than
// arbitrary text. It is used when scanning output directories to decide
// whether a subdirectory is a per-language folder.
func IsLikelyTag(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 12 {
		return false
	}
	name = strings.ReplaceAll(name, "_", "-")
	parts := strings.Split(name, "-")
	primary := strings.ToLower(parts[0])
	if len(primary) != 2 && len(primary) != 3 {
		return false
	}
	if lookup(primary) == nil {
		return false
	}
	for _, sub := range parts[1:] {
		if len(sub) != 2 && len(sub) != 3 && len(sub) != 4 {
			return false
		}
	}
	return true
}

// NormalizeList deduplicates and normalizes a list of language tags.
func NormalizeList(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	normalized := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		canonical := Normalize(tag)
		if canonical == "" {
			continue
		}
		if _, ok := seen[canonical]; ok {
			continue
		}
		seen[canonical] = struct{}{}
		normalized = append(normalized, canonical)
	}
	return normalized
}

// FromLocaleEnv derives a language tag from the process locale environment.
// LC_ALL wins over LC_MESSAGES, which wins over LANG, matching POSIX
// precedence. Returns "" when no usable locale is set.
func FromLocaleEnv() string {
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		value := strings.TrimSpace(os.Getenv(key))
		if value == "" || value == "C" || value == "POSIX" {
			continue
		}
		// Strip encoding and modifier suffixes: en_US.UTF-8@euro.
		if idx := strings.IndexByte(value, '.'); idx > 0 {
			value = value[:idx]
		}
		if idx := strings.IndexByte(value, '@'); idx > 0 {
			value = value[:idx]
		}
		if normalized := Normalize(value); normalized != "" {
			return normalized
		}
	}
	return ""
}
