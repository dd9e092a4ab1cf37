// Package layout derives target paths for transcript artifacts and keeps the
// on-disk tree consistent with the active organization mode.
//
// Two modes exist. Under single_language all artifacts for a collection sit
// directly in the collection directory, with machine-readable formats in a
// json/ subdirectory. Under multi_language every path gains one extra level:
// a language-coded directory. Path computation is a pure function of its
// inputs; moving existing files between modes is a separate idempotent
// procedure (Reorganize).
package layout

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"scribe/internal/fileutil"
	"scribe/internal/language"
	"scribe/internal/logging"
	"scribe/internal/services"
	"scribe/internal/textutil"
)

// Mode selects the directory scheme for a collection.
type Mode int

const (
	ModeSingleLanguage Mode = iota
	ModeMultiLanguage
)

func (m Mode) String() string {
	if m == ModeMultiLanguage {
		return "multi_language"
	}
	return "single_language"
}

// ParseMode maps a configuration override to a Mode. An empty value
// reports ok=false, meaning the mode should be reconciled from disk.
func ParseMode(value string) (Mode, bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "":
		return ModeSingleLanguage, false, nil
	case "single_language":
		return ModeSingleLanguage, true, nil
	case "multi_language":
		return ModeMultiLanguage, true, nil
	default:
		return ModeSingleLanguage, false, fmt.Errorf("unknown layout mode %q", value)
	}
}

// maxTitleRunes keeps derived filenames under common filesystem limits once
// the id, language, and extension are appended.
const maxTitleRunes = 150

// jsonSubdir holds machine-readable artifacts next to the plain text ones.
const jsonSubdir = "json"

// Engine computes artifact paths and owns all writes into the output tree.
type Engine struct {
	root   string
	strict bool
	logger *slog.Logger
}

// New constructs an Engine rooted at the output directory. When strict is
// set, filenames are folded to portable ASCII.
func New(root string, strict bool, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{
		root:   root,
		strict: strict,
		logger: logging.NewComponentLogger(logger, "layout"),
	}
}

// Root returns the output root directory.
func (e *Engine) Root() string {
	return e.root
}

// CollectionDir returns the directory for a collection, derived from its
// display name.
func (e *Engine) CollectionDir(name string) string {
	return filepath.Join(e.root, textutil.SanitizeDirName(name))
}

// NestedCollectionDir places a collection under a parent directory, used
// when a channel fans out into per-playlist collections.
func (e *Engine) NestedCollectionDir(parent, name string) string {
	if strings.TrimSpace(parent) == "" {
		return e.CollectionDir(name)
	}
	return filepath.Join(e.root, textutil.SanitizeDirName(parent), textutil.SanitizeDirName(name))
}

// FileName derives the artifact filename for an item, language, and format.
// The item id is the collision guard; the title is cosmetic.
func (e *Engine) FileName(title, id, lang, format string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		title = id
	}
	var base string
	if e.strict {
		base = textutil.SanitizeFileNameStrict(textutil.Truncate(title, maxTitleRunes))
	} else {
		base = textutil.SanitizeFileName(textutil.Truncate(title, maxTitleRunes))
	}
	return fmt.Sprintf("%s [%s]_%s.%s", base, id, language.Normalize(lang), format)
}

// PathFor computes the target path of one artifact under the given mode.
func (e *Engine) PathFor(collectionDir, title, id, lang, format string, mode Mode) string {
	name := e.FileName(title, id, lang, format)
	dir := collectionDir
	if mode == ModeMultiLanguage {
		dir = filepath.Join(dir, language.Normalize(lang))
	}
	if format == "json" {
		dir = filepath.Join(dir, jsonSubdir)
	}
	return filepath.Join(dir, name)
}

// Place durably writes an artifact at path, creating parent directories.
// Write failures are storage errors: they abort the collection rather than
// burning the item retry budget against a broken directory.
func (e *Engine) Place(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return services.Wrap(services.ErrStorage, "layout", "place", "create artifact directory", err)
	}
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return services.Wrap(services.ErrStorage, "layout", "place", "write artifact", err)
	}
	return nil
}

// ReconcileMode determines the layout mode for a collection directory from
// the languages requested this run and the per-language folders already on
// disk. More than one language on either side forces multi_language, as does
// a requested language that has no folder while other language folders exist.
func (e *Engine) ReconcileMode(collectionDir string, requested []string) (Mode, error) {
	existing, err := languageDirs(collectionDir)
	if err != nil {
		return ModeSingleLanguage, err
	}

	requested = language.NormalizeList(requested)
	if len(requested) > 1 || len(existing) > 1 {
		return ModeMultiLanguage, nil
	}
	if len(existing) > 0 {
		for _, want := range requested {
			if _, ok := existing[want]; !ok {
				return ModeMultiLanguage, nil
			}
		}
	}
	return ModeSingleLanguage, nil
}

// languageDirs lists the per-language subdirectories of a collection.
func languageDirs(collectionDir string) (map[string]struct{}, error) {
	entries, err := os.ReadDir(collectionDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, services.Wrap(services.ErrTransient, "layout", "reconcile", "read collection directory", err)
	}
	out := make(map[string]struct{})
	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() == jsonSubdir {
			continue
		}
		if language.IsLikelyTag(entry.Name()) {
			out[language.Normalize(entry.Name())] = struct{}{}
		}
	}
	return out, nil
}
