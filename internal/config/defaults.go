package config

const (
	defaultOutputDir = "~/transcripts"
	defaultStateDir  = "~/.local/share/scribe"
	defaultLogDir    = "~/.local/share/scribe/logs"

	defaultLanguage = "en"

	defaultLogFormat = "console"
	defaultLogLevel  = "info"

	defaultPosture            = "balanced"
	defaultBaseDelaySeconds   = 1.5
	defaultJitterFraction     = 0.2
	defaultWorkerCeiling      = 3
	defaultRetryCeiling       = 3
	defaultRampSuccesses      = 10
	defaultCooldownMinSeconds = 300
	defaultCooldownMaxSeconds = 420
	defaultCooldownCapSeconds = 1800
	defaultGraceMinSeconds    = 300
	defaultGraceMaxSeconds    = 420

	defaultYtdlpBinary         = "yt-dlp"
	defaultListTimeoutSeconds  = 600
	defaultFetchTimeoutSeconds = 60
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			StateDir:  defaultStateDir,
			LogDir:    defaultLogDir,
		},
		Languages: Languages{
			Requested:    []string{defaultLanguage},
			Default:      defaultLanguage,
			DetectLocale: true,
		},
		Output: Output{
			Formats: []string{"txt", "json"},
		},
		Ledger: Ledger{
			Enabled: true,
		},
		Pacing: Pacing{
			Posture:            defaultPosture,
			BaseDelaySeconds:   defaultBaseDelaySeconds,
			JitterFraction:     defaultJitterFraction,
			WorkerCeiling:      defaultWorkerCeiling,
			RetryCeiling:       defaultRetryCeiling,
			RampSuccesses:      defaultRampSuccesses,
			CooldownMinSeconds: defaultCooldownMinSeconds,
			CooldownMaxSeconds: defaultCooldownMaxSeconds,
			CooldownCapSeconds: defaultCooldownCapSeconds,
			GraceMinSeconds:    defaultGraceMinSeconds,
			GraceMaxSeconds:    defaultGraceMaxSeconds,
			Multipliers: Multipliers{
				Conservative: 3.0,
				Balanced:     1.0,
				Aggressive:   0.5,
			},
		},
		Discovery: Discovery{
			Binary:             defaultYtdlpBinary,
			ListTimeoutSeconds: defaultListTimeoutSeconds,
		},
		Retrieval: Retrieval{
			FetchTimeoutSeconds: defaultFetchTimeoutSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
