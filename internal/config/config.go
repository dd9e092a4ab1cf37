package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	OutputDir string `toml:"output_dir"`
	StateDir  string `toml:"state_dir"`
	LogDir    string `toml:"log_dir"`
}

// Languages contains language preference configuration.
type Languages struct {
	Requested    []string `toml:"requested"`
	Default      string   `toml:"default"`
	AllowAll     bool     `toml:"allow_all"`
	DetectLocale bool     `toml:"detect_locale"`
}

// Output contains artifact placement configuration.
type Output struct {
	Formats           []string `toml:"formats"`
	StrictFilenames   bool     `toml:"strict_filenames"`
	OverwriteExisting bool     `toml:"overwrite_existing"`
	ModeOverride      string   `toml:"mode_override"`
}

// Ledger contains resume ledger configuration.
type Ledger struct {
	Enabled bool `toml:"enabled"`
}

// Multipliers maps pacing postures to delay multipliers.
type Multipliers struct {
	Conservative float64 `toml:"conservative"`
	Balanced     float64 `toml:"balanced"`
	Aggressive   float64 `toml:"aggressive"`
}

// Pacing contains backoff controller configuration.
type Pacing struct {
	Posture            string      `toml:"posture"`
	BaseDelaySeconds   float64     `toml:"base_delay_seconds"`
	JitterFraction     float64     `toml:"jitter_fraction"`
	WorkerCeiling      int         `toml:"worker_ceiling"`
	RetryCeiling       int         `toml:"retry_ceiling"`
	RampSuccesses      int         `toml:"ramp_successes"`
	CooldownMinSeconds int         `toml:"cooldown_min_seconds"`
	CooldownMaxSeconds int         `toml:"cooldown_max_seconds"`
	CooldownCapSeconds int         `toml:"cooldown_cap_seconds"`
	GraceMinSeconds    int         `toml:"grace_min_seconds"`
	GraceMaxSeconds    int         `toml:"grace_max_seconds"`
	Multipliers        Multipliers `toml:"multipliers"`
}

// Discovery contains configuration for the yt-dlp discovery client.
type Discovery struct {
	Binary             string `toml:"binary"`
	ListTimeoutSeconds int    `toml:"list_timeout_seconds"`
	MaxItems           int    `toml:"max_items"`
}

// Retrieval contains configuration for caption track retrieval.
type Retrieval struct {
	FetchTimeoutSeconds int `toml:"fetch_timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for scribe.
//
// Configuration sections by subsystem:
//   - Paths: output root, state directory (run database, lock), log directory
//   - Languages: requested language set and fallback policy
//   - Output: formats, filename sanitization, layout overrides
//   - Ledger: resume ledger toggle
//   - Pacing: backoff controller posture, delays, cooldown recovery
//   - Discovery: yt-dlp binary and listing limits
//   - Retrieval: caption fetch timeouts
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	Languages Languages `toml:"languages"`
	Output    Output    `toml:"output"`
	Ledger    Ledger    `toml:"ledger"`
	Pacing    Pacing    `toml:"pacing"`
	Discovery Discovery `toml:"discovery"`
	Retrieval Retrieval `toml:"retrieval"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/scribe/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("scribe.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for a run. OutputDir is
// created on a best-effort basis so configuration loading still succeeds when
// external storage is temporarily unavailable.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.OutputDir) != "" {
		_ = os.MkdirAll(c.Paths.OutputDir, 0o755)
	}
	return nil
}

// RunDBPath returns the path of the run-state database.
func (c *Config) RunDBPath() string {
	return filepath.Join(c.Paths.StateDir, "scribe.db")
}

// LockPath returns the path of the single-instance lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "scribe.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
