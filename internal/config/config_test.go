package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"scribe/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	if cfg.Paths.OutputDir != filepath.Join(tempHome, "transcripts") {
		t.Fatalf("unexpected output dir: %q", cfg.Paths.OutputDir)
	}
	wantState := filepath.Join(tempHome, ".local", "share", "scribe")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.Pacing.Posture != "balanced" {
		t.Fatalf("unexpected default posture: %q", cfg.Pacing.Posture)
	}
	if cfg.Pacing.BaseDelaySeconds != 1.5 {
		t.Fatalf("unexpected base delay: %v", cfg.Pacing.BaseDelaySeconds)
	}
	if !cfg.Ledger.Enabled {
		t.Fatal("expected ledger enabled by default")
	}
	if got := cfg.Languages.Requested; len(got) != 1 || got[0] != "en" {
		t.Fatalf("unexpected requested languages: %v", got)
	}
	if cfg.Discovery.Binary != "yt-dlp" {
		t.Fatalf("unexpected discovery binary: %q", cfg.Discovery.Binary)
	}
	if cfg.RunDBPath() != filepath.Join(wantState, "scribe.db") {
		t.Fatalf("unexpected run db path: %q", cfg.RunDBPath())
	}
}

func TestLoadParsesAndNormalizesFile(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[paths]
output_dir = "~/caps"

[languages]
requested = ["EN", "es ", "en"]

[output]
formats = ["TXT", "txt"]

[pacing]
posture = "Aggressive"
cooldown_min_seconds = 100
cooldown_max_seconds = 50
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be found")
	}
	if cfg.Paths.OutputDir != filepath.Join(tempHome, "caps") {
		t.Fatalf("unexpected output dir: %q", cfg.Paths.OutputDir)
	}
	if got := cfg.Languages.Requested; len(got) != 2 || got[0] != "en" || got[1] != "es" {
		t.Fatalf("expected deduped lowercase languages, got %v", got)
	}
	if got := cfg.Output.Formats; len(got) != 1 || got[0] != "txt" {
		t.Fatalf("expected deduped formats, got %v", got)
	}
	if cfg.Pacing.Posture != "aggressive" {
		t.Fatalf("unexpected posture: %q", cfg.Pacing.Posture)
	}
	if cfg.Pacing.CooldownMaxSeconds < cfg.Pacing.CooldownMinSeconds {
		t.Fatalf("cooldown max %d below min %d after normalize", cfg.Pacing.CooldownMaxSeconds, cfg.Pacing.CooldownMinSeconds)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[pacing]
posture = "reckless"

[output]
formats = ["srt"]
mode_override = "flat"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, _, _, err := config.Load(path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"pacing.posture", "output.formats", "output.mode_override"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected error to mention %s, got %v", want, err)
		}
	}
}

func TestLoadMissingExplicitPathUsesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "absent.toml")
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected missing file to report exists=false")
	}
	if resolved != path {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}
	if cfg.Pacing.RetryCeiling != 3 {
		t.Fatalf("unexpected retry ceiling: %d", cfg.Pacing.RetryCeiling)
	}
}

func TestCreateSampleWritesParsableConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config failed to load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	defaults := config.Default()
	if cfg.Pacing.Posture != defaults.Pacing.Posture {
		t.Fatalf("sample posture %q diverges from default %q", cfg.Pacing.Posture, defaults.Pacing.Posture)
	}
	if cfg.Pacing.CooldownCapSeconds != defaults.Pacing.CooldownCapSeconds {
		t.Fatalf("sample cooldown cap %d diverges from default %d", cfg.Pacing.CooldownCapSeconds, defaults.Pacing.CooldownCapSeconds)
	}
	if cfg.Logging.Format != defaults.Logging.Format {
		t.Fatalf("sample log format %q diverges from default %q", cfg.Logging.Format, defaults.Logging.Format)
	}
}
