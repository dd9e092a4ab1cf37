package layout

import (
	"os"
	"path/filepath"
	"strings"

	"scribe/internal/fileutil"
	"scribe/internal/language"
	"scribe/internal/ledger"
	"scribe/internal/logging"
	"scribe/internal/services"
)

// Reorganize moves existing artifacts in a collection directory from one
// layout mode to the other. Files move one at a time via rename, so an
// interrupted run leaves a mixed tree that a re-run converges without
// duplicating or losing files: a move whose destination already exists
// drops the leftover source instead.
func (e *Engine) Reorganize(collectionDir string, from, to Mode) error {
	if from == to {
		return nil
	}
	if !fileutil.PathExists(collectionDir) {
		return nil
	}

	e.logger.Info("reorganizing collection layout",
		logging.String("dir", collectionDir),
		logging.String("from", from.String()),
		logging.String("to", to.String()),
	)

	if to == ModeMultiLanguage {
		return e.nestByLanguage(collectionDir)
	}
	return e.flatten(collectionDir)
}

// nestByLanguage moves flat artifacts into per-language subdirectories.
func (e *Engine) nestByLanguage(collectionDir string) error {
	moveOut := func(srcDir string, jsonLevel bool) error {
		entries, err := os.ReadDir(srcDir)
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return services.Wrap(services.ErrTransient, "layout", "reorganize", "read directory", err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			lang, ok := artifactLanguage(entry.Name())
			if !ok {
				continue
			}
			dst := filepath.Join(collectionDir, lang)
			if jsonLevel {
				dst = filepath.Join(dst, jsonSubdir)
			}
			if err := e.moveArtifact(filepath.Join(srcDir, entry.Name()), filepath.Join(dst, entry.Name())); err != nil {
				return err
			}
		}
		return nil
	}

	if err := moveOut(collectionDir, false); err != nil {
		return err
	}
	if err := moveOut(filepath.Join(collectionDir, jsonSubdir), true); err != nil {
		return err
	}
	removeIfEmpty(filepath.Join(collectionDir, jsonSubdir))
	return nil
}

// flatten moves artifacts out of per-language subdirectories into the
// collection root.
func (e *Engine) flatten(collectionDir string) error {
	entries, err := os.ReadDir(collectionDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return services.Wrap(services.ErrTransient, "layout", "reorganize", "read collection directory", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() == jsonSubdir || !language.IsLikelyTag(entry.Name()) {
			continue
		}
		langDir := filepath.Join(collectionDir, entry.Name())

		files, err := os.ReadDir(langDir)
		if err != nil {
			return services.Wrap(services.ErrTransient, "layout", "reorganize", "read language directory", err)
		}
		for _, file := range files {
			if file.IsDir() {
				continue
			}
			if _, ok := artifactLanguage(file.Name()); !ok {
				continue
			}
			if err := e.moveArtifact(filepath.Join(langDir, file.Name()), filepath.Join(collectionDir, file.Name())); err != nil {
				return err
			}
		}

		jsonDir := filepath.Join(langDir, jsonSubdir)
		jsonFiles, err := os.ReadDir(jsonDir)
		if err != nil && !os.IsNotExist(err) {
			return services.Wrap(services.ErrTransient, "layout", "reorganize", "read json directory", err)
		}
		for _, file := range jsonFiles {
			if file.IsDir() {
				continue
			}
			if _, ok := artifactLanguage(file.Name()); !ok {
				continue
			}
			if err := e.moveArtifact(filepath.Join(jsonDir, file.Name()), filepath.Join(collectionDir, jsonSubdir, file.Name())); err != nil {
				return err
			}
		}

		removeIfEmpty(jsonDir)
		removeIfEmpty(langDir)
	}
	return nil
}

// moveArtifact moves one file, treating an already-populated destination as
// the completed result of an earlier interrupted pass.
func (e *Engine) moveArtifact(src, dst string) error {
	if src == dst {
		return nil
	}
	if fileutil.PathExists(dst) {
		if err := os.Remove(src); err != nil {
			return services.Wrap(services.ErrTransient, "layout", "reorganize", "remove superseded artifact", err)
		}
		return nil
	}
	if err := fileutil.MoveFile(src, dst); err != nil {
		return services.Wrap(services.ErrTransient, "layout", "reorganize", "move artifact", err)
	}
	return nil
}

// artifactLanguage extracts the language tag from an artifact filename of
// the form "<title> [<id>]_<lang>.<ext>".
func artifactLanguage(name string) (string, bool) {
	if name == ledger.FileName || strings.HasPrefix(name, ".") {
		return "", false
	}
	ext := filepath.Ext(name)
	if ext == "" {
		return "", false
	}
	stem := strings.TrimSuffix(name, ext)
	idx := strings.LastIndexByte(stem, '_')
	if idx < 0 || idx == len(stem)-1 {
		return "", false
	}
	tag := stem[idx+1:]
	if !language.IsLikelyTag(tag) {
		return "", false
	}
	return language.Normalize(tag), true
}

func removeIfEmpty(dir string) {
	entries, err := os.ReadDir(dir)
	if err == nil && len(entries) == 0 {
		_ = os.Remove(dir)
	}
}
