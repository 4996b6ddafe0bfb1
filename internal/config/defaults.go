package config

const (
	defaultLibraryDir = "~/music"
	defaultDataDir    = "~/.local/share/quaver"
	defaultLogDir     = "~/.local/share/quaver/logs"

	defaultLogFormat = "console"
	defaultLogLevel  = "info"

	defaultDurationToleranceMillis = 3000
	defaultFingerprintThreshold    = 0.95
	defaultFuzzyThreshold          = 0.90
	defaultFpcalcBinary            = "fpcalc"
	defaultFpcalcTimeoutSeconds    = 30
	defaultFpcalcLengthSeconds     = 120

	defaultOrganizePattern     = "{artist}/{album}/{track} - {title}"
	defaultOrganizePlaceholder = "Unknown"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LibraryDir: defaultLibraryDir,
			DataDir:    defaultDataDir,
			LogDir:     defaultLogDir,
		},
		Scan: Scan{
			Workers: 0, // resolved from CPU count in normalize
		},
		Detect: Detect{
			DurationToleranceMillis: defaultDurationToleranceMillis,
			FingerprintThreshold:    defaultFingerprintThreshold,
			FuzzyTags:               false,
			FuzzyThreshold:          defaultFuzzyThreshold,
			FpcalcBinary:            defaultFpcalcBinary,
			FpcalcTimeoutSeconds:    defaultFpcalcTimeoutSeconds,
			FpcalcLengthSeconds:     defaultFpcalcLengthSeconds,
			Workers:                 0,
		},
		Organize: Organize{
			Pattern:     defaultOrganizePattern,
			Placeholder: defaultOrganizePlaceholder,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
