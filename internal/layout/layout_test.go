package layout_test

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"scribe/internal/layout"
)

func TestParseMode(t *testing.T) {
	if _, ok, err := layout.ParseMode(""); err != nil || ok {
		t.Fatalf("empty override: ok=%v err=%v", ok, err)
	}
	mode, ok, err := layout.ParseMode("multi_language")
	if err != nil || !ok || mode != layout.ModeMultiLanguage {
		t.Fatalf("multi_language override: mode=%v ok=%v err=%v", mode, ok, err)
	}
	if _, _, err := layout.ParseMode("flat"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestFileNameModes(t *testing.T) {
	plain := layout.New(t.TempDir(), false, nil)
	strict := layout.New(t.TempDir(), true, nil)

	got := plain.FileName("My Talk: Part 2", "abc123", "en", "txt")
	if got != "My Talk_ Part 2 [abc123]_en.txt" {
		t.Fatalf("plain filename = %q", got)
	}

	got = strict.FileName("Český: rozhovor", "abc123", "en", "txt")
	if got != "Cesky-rozhovor [abc123]_en.txt" {
		t.Fatalf("strict filename = %q", got)
	}

	// Empty titles fall back to the id, so the name stays unique.
	got = plain.FileName("", "abc123", "en", "txt")
	if got != "abc123 [abc123]_en.txt" {
		t.Fatalf("empty-title filename = %q", got)
	}
}

func TestPathForModes(t *testing.T) {
	eng := layout.New("/out", false, nil)
	dir := eng.CollectionDir("My Channel")
	if dir != filepath.Join("/out", "My Channel") {
		t.Fatalf("collection dir = %q", dir)
	}

	single := eng.PathFor(dir, "Talk", "id1", "en", "txt", layout.ModeSingleLanguage)
	if single != filepath.Join(dir, "Talk [id1]_en.txt") {
		t.Fatalf("single txt path = %q", single)
	}

	singleJSON := eng.PathFor(dir, "Talk", "id1", "en", "json", layout.ModeSingleLanguage)
	if singleJSON != filepath.Join(dir, "json", "Talk [id1]_en.json") {
		t.Fatalf("single json path = %q", singleJSON)
	}

	multi := eng.PathFor(dir, "Talk", "id1", "es", "txt", layout.ModeMultiLanguage)
	if multi != filepath.Join(dir, "es", "Talk [id1]_es.txt") {
		t.Fatalf("multi txt path = %q", multi)
	}

	multiJSON := eng.PathFor(dir, "Talk", "id1", "es", "json", layout.ModeMultiLanguage)
	if multiJSON != filepath.Join(dir, "es", "json", "Talk [id1]_es.json") {
		t.Fatalf("multi json path = %q", multiJSON)
	}
}

func TestReconcileMode(t *testing.T) {
	eng := layout.New(t.TempDir(), false, nil)

	// Fresh directory, one language: single.
	dir := filepath.Join(eng.Root(), "fresh")
	mode, err := eng.ReconcileMode(dir, []string{"en"})
	if err != nil || mode != layout.ModeSingleLanguage {
		t.Fatalf("fresh: mode=%v err=%v", mode, err)
	}

	// Two requested languages force multi.
	mode, err = eng.ReconcileMode(dir, []string{"en", "es"})
	if err != nil || mode != layout.ModeMultiLanguage {
		t.Fatalf("two requested: mode=%v err=%v", mode, err)
	}

	// Two language folders on disk force multi even with one requested.
	multiDir := filepath.Join(eng.Root(), "multi")
	for _, lang := range []string{"en", "es"} {
		if err := os.MkdirAll(filepath.Join(multiDir, lang), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	mode, err = eng.ReconcileMode(multiDir, []string{"en"})
	if err != nil || mode != layout.ModeMultiLanguage {
		t.Fatalf("two on disk: mode=%v err=%v", mode, err)
	}

	// A requested language without a folder, while another folder exists.
	mismatchDir := filepath.Join(eng.Root(), "mismatch")
	if err := os.MkdirAll(filepath.Join(mismatchDir, "en"), 0o755); err != nil {
		t.Fatal(err)
	}
	mode, err = eng.ReconcileMode(mismatchDir, []string{"es"})
	if err != nil || mode != layout.ModeMultiLanguage {
		t.Fatalf("mismatch: mode=%v err=%v", mode, err)
	}

	// One matching folder, one matching request: stays single.
	mode, err = eng.ReconcileMode(mismatchDir, []string{"en"})
	if err != nil || mode != layout.ModeSingleLanguage {
		t.Fatalf("match: mode=%v err=%v", mode, err)
	}

	// Non-language folders like json are ignored.
	jsonOnly := filepath.Join(eng.Root(), "jsononly")
	if err := os.MkdirAll(filepath.Join(jsonOnly, "json"), 0o755); err != nil {
		t.Fatal(err)
	}
	mode, err = eng.ReconcileMode(jsonOnly, []string{"en"})
	if err != nil || mode != layout.ModeSingleLanguage {
		t.Fatalf("json ignored: mode=%v err=%v", mode, err)
	}
}

func TestPlaceWritesArtifact(t *testing.T) {
	eng := layout.New(t.TempDir(), false, nil)
	path := filepath.Join(eng.Root(), "col", "es", "Talk [id]_es.txt")
	if err := eng.Place(path, []byte("hola")); err != nil {
		t.Fatalf("Place: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "hola" {
		t.Fatalf("read back: %q err=%v", data, err)
	}
}

func treeOf(t *testing.T, root string) []string {
	t.Helper()
	var out []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			rel, _ := filepath.Rel(root, path)
			out = append(out, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	sort.Strings(out)
	return out
}

func TestReorganizeSingleToMultiAndBack(t *testing.T) {
	eng := layout.New(t.TempDir(), false, nil)
	dir := filepath.Join(eng.Root(), "col")

	seed := map[string]string{
		"Talk [id1]_en.txt":        "en text",
		"Talk [id1]_es.txt":        "es text",
		"json/Talk [id1]_en.json":  "en json",
		".transcript_archive.txt":  "id1\n",
		"notes.md":                 "not an artifact",
	}
	for rel, content := range seed {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	if err := eng.Reorganize(dir, layout.ModeSingleLanguage, layout.ModeMultiLanguage); err != nil {
		t.Fatalf("Reorganize to multi: %v", err)
	}
	want := []string{
		".transcript_archive.txt",
		"en/Talk [id1]_en.txt",
		"en/json/Talk [id1]_en.json",
		"es/Talk [id1]_es.txt",
		"notes.md",
	}
	got := treeOf(t, dir)
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("after multi: got %v want %v", got, want)
	}

	// Idempotence: a second run is a no-op.
	if err := eng.Reorganize(dir, layout.ModeSingleLanguage, layout.ModeMultiLanguage); err != nil {
		t.Fatalf("second Reorganize: %v", err)
	}
	if got := treeOf(t, dir); strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("second run changed tree: %v", got)
	}

	// And back to flat.
	if err := eng.Reorganize(dir, layout.ModeMultiLanguage, layout.ModeSingleLanguage); err != nil {
		t.Fatalf("Reorganize to single: %v", err)
	}
	wantFlat := []string{
		".transcript_archive.txt",
		"Talk [id1]_en.txt",
		"Talk [id1]_es.txt",
		"json/Talk [id1]_en.json",
		"notes.md",
	}
	if got := treeOf(t, dir); strings.Join(got, "|") != strings.Join(wantFlat, "|") {
		t.Fatalf("after flatten: got %v want %v", got, wantFlat)
	}
}

func TestReorganizeConvergesAfterPartialMove(t *testing.T) {
	eng := layout.New(t.TempDir(), false, nil)
	dir := filepath.Join(eng.Root(), "col")

	// Simulate an interrupted single-to-multi pass: one file already moved,
	// one still flat, and one present in both places.
	files := map[string]string{
		"Talk [a]_en.txt":    "a",
		"en/Talk [b]_en.txt": "b",
		"Talk [c]_en.txt":    "c",
		"en/Talk [c]_en.txt": "c",
	}
	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	if err := eng.Reorganize(dir, layout.ModeSingleLanguage, layout.ModeMultiLanguage); err != nil {
		t.Fatalf("Reorganize: %v", err)
	}
	want := []string{
		"en/Talk [a]_en.txt",
		"en/Talk [b]_en.txt",
		"en/Talk [c]_en.txt",
	}
	if got := treeOf(t, dir); strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("converged tree = %v, want %v", got, want)
	}
}

func TestReorganizeSameModeIsNoop(t *testing.T) {
	eng := layout.New(t.TempDir(), false, nil)
	if err := eng.Reorganize(filepath.Join(eng.Root(), "missing"), layout.ModeSingleLanguage, layout.ModeSingleLanguage); err != nil {
		t.Fatalf("same mode: %v", err)
	}
	if err := eng.Reorganize(filepath.Join(eng.Root(), "missing"), layout.ModeSingleLanguage, layout.ModeMultiLanguage); err != nil {
		t.Fatalf("missing dir: %v", err)
	}
}
