package config

import (
	"fmt"
	"strings"

	"scribe/internal/language"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLanguages()
	c.normalizeOutput()
	c.normalizePacing()
	c.normalizeDiscovery()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLanguages() {
	c.Languages.Requested = language.NormalizeList(c.Languages.Requested)
	c.Languages.Default = language.Normalize(c.Languages.Default)
	if c.Languages.Default == "" {
		c.Languages.Default = defaultLanguage
	}
}

func (c *Config) normalizeOutput() {
	formats := make([]string, 0, len(c.Output.Formats))
	seen := make(map[string]struct{}, len(c.Output.Formats))
	for _, format := range c.Output.Formats {
		trimmed := strings.ToLower(strings.TrimSpace(format))
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		formats = append(formats, trimmed)
	}
	if len(formats) == 0 {
		formats = []string{"txt"}
	}
	c.Output.Formats = formats
	c.Output.ModeOverride = strings.ToLower(strings.TrimSpace(c.Output.ModeOverride))
}

func (c *Config) normalizePacing() {
	c.Pacing.Posture = strings.ToLower(strings.TrimSpace(c.Pacing.Posture))
	if c.Pacing.Posture == "" {
		c.Pacing.Posture = defaultPosture
	}
	if c.Pacing.BaseDelaySeconds <= 0 {
		c.Pacing.BaseDelaySeconds = defaultBaseDelaySeconds
	}
	if c.Pacing.JitterFraction < 0 {
		c.Pacing.JitterFraction = 0
	}
	if c.Pacing.WorkerCeiling <= 0 {
		c.Pacing.WorkerCeiling = defaultWorkerCeiling
	}
	if c.Pacing.RetryCeiling <= 0 {
		c.Pacing.RetryCeiling = defaultRetryCeiling
	}
	if c.Pacing.RampSuccesses <= 0 {
		c.Pacing.RampSuccesses = defaultRampSuccesses
	}
	if c.Pacing.CooldownMinSeconds <= 0 {
		c.Pacing.CooldownMinSeconds = defaultCooldownMinSeconds
	}
	if c.Pacing.CooldownMaxSeconds < c.Pacing.CooldownMinSeconds {
		c.Pacing.CooldownMaxSeconds = c.Pacing.CooldownMinSeconds
	}
	if c.Pacing.CooldownCapSeconds < c.Pacing.CooldownMaxSeconds {
		c.Pacing.CooldownCapSeconds = defaultCooldownCapSeconds
	}
	if c.Pacing.CooldownCapSeconds < c.Pacing.CooldownMaxSeconds {
		c.Pacing.CooldownCapSeconds = c.Pacing.CooldownMaxSeconds
	}
	if c.Pacing.GraceMinSeconds <= 0 {
		c.Pacing.GraceMinSeconds = defaultGraceMinSeconds
	}
	if c.Pacing.GraceMaxSeconds < c.Pacing.GraceMinSeconds {
		c.Pacing.GraceMaxSeconds = c.Pacing.GraceMinSeconds
	}
	if c.Pacing.Multipliers.Conservative <= 0 {
		c.Pacing.Multipliers.Conservative = 3.0
	}
	if c.Pacing.Multipliers.Balanced <= 0 {
		c.Pacing.Multipliers.Balanced = 1.0
	}
	if c.Pacing.Multipliers.Aggressive <= 0 {
		c.Pacing.Multipliers.Aggressive = 0.5
	}
}

func (c *Config) normalizeDiscovery() {
	c.Discovery.Binary = strings.TrimSpace(c.Discovery.Binary)
	if c.Discovery.Binary == "" {
		c.Discovery.Binary = defaultYtdlpBinary
	}
	if c.Discovery.ListTimeoutSeconds <= 0 {
		c.Discovery.ListTimeoutSeconds = defaultListTimeoutSeconds
	}
	if c.Discovery.MaxItems < 0 {
		c.Discovery.MaxItems = 0
	}
	if c.Retrieval.FetchTimeoutSeconds <= 0 {
		c.Retrieval.FetchTimeoutSeconds = defaultFetchTimeoutSeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
