package config

import (
	"fmt"
	"strings"
)

var validPostures = map[string]struct{}{
	"conservative": {},
	"balanced":     {},
	"aggressive":   {},
}

var validFormats = map[string]struct{}{
	"txt":  {},
	"json": {},
}

// Validate checks semantic constraints on an already-normalized Config.
func (c *Config) Validate() error {
	var problems []string

	if _, ok := validPostures[c.Pacing.Posture]; !ok {
		problems = append(problems, fmt.Sprintf("pacing.posture %q is not one of conservative, balanced, aggressive", c.Pacing.Posture))
	}
	if c.Pacing.JitterFraction >= 1 {
		problems = append(problems, fmt.Sprintf("pacing.jitter_fraction %.2f must be below 1", c.Pacing.JitterFraction))
	}
	if c.Pacing.CooldownMinSeconds > c.Pacing.CooldownMaxSeconds {
		problems = append(problems, "pacing.cooldown_min_seconds exceeds pacing.cooldown_max_seconds")
	}
	if c.Pacing.GraceMinSeconds > c.Pacing.GraceMaxSeconds {
		problems = append(problems, "pacing.grace_min_seconds exceeds pacing.grace_max_seconds")
	}

	for _, format := range c.Output.Formats {
		if _, ok := validFormats[format]; !ok {
			problems = append(problems, fmt.Sprintf("output.formats entry %q is not one of txt, json", format))
		}
	}
	switch c.Output.ModeOverride {
	case "", "single_language", "multi_language":
	default:
		problems = append(problems, fmt.Sprintf("output.mode_override %q is not one of single_language, multi_language", c.Output.ModeOverride))
	}

	if !c.Languages.AllowAll && len(c.Languages.Requested) == 0 && c.Languages.Default == "" {
		problems = append(problems, "languages.requested is empty and no default language is set")
	}

	switch c.Logging.Format {
	case "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q is not one of console, json", c.Logging.Format))
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}
