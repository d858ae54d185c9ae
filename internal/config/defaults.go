package config

const (
	// DefaultDataDir is the default data directory, relative to the user's home.
	DefaultDataDir = "~/.voxmap"

	// DefaultConfigFilename is the name of the TOML config file.
	DefaultConfigFilename = "voxmap.toml"

	// DefaultMaxTreeDepth and DefaultMaxTreeDepthHardCap bound the
	// walker's traversal.
	DefaultMaxTreeDepth        = 50
	DefaultMaxTreeDepthHardCap = 100

	DefaultScreenFingerprintTopN = 10

	DefaultGrammarConfidenceHigh   = 0.85
	DefaultGrammarConfidenceMedium = 0.60
	DefaultListIndexCap           = 20
	DefaultFuzzyKNearest          = 3

	DefaultDeviceSpeedClass = SpeedMedium

	DefaultContentChangeSlowMs   = 800
	DefaultContentChangeMediumMs = 500
	DefaultContentChangeFastMs   = 250

	DefaultScrollSlowMs   = 500
	DefaultScrollMediumMs = 300
	DefaultScrollFastMs   = 150

	DefaultGrammarPushSlowMs   = 2000
	DefaultGrammarPushMediumMs = 1000
	DefaultGrammarPushFastMs   = 500

	DefaultSpeechResultBuffer      = 64
	DefaultScrapeRetryDelayMs      = 500
	DefaultGrammarRetryBaseMs      = 250
	DefaultGrammarRetryMaxMs       = 4000
	DefaultGrammarRetryMaxAttempts = 3
	DefaultCBFailureThreshold      = 5
	DefaultCBResetTimeoutMs        = 30000
	DefaultCBHalfOpenMax           = 1

	DefaultHistoryRetentionDays  = 14
	DefaultRetryCleanupThreshold = 100
	DefaultLiveContentWindowMs   = 10000
	DefaultLiveContentThreshold  = 5

	DefaultTracingServiceName = "voxmap"
	DefaultTracingSampleRate  = 1.0

	DefaultLogLevel  = "info"
	DefaultDebugAddr = "127.0.0.1:9191"

	// DefaultSystemUIPackage is the host's own system UI package, whose
	// events are always dropped before debouncing.
	DefaultSystemUIPackage = "com.android.systemui"
)

// ValidLogLevels enumerates the zerolog levels this config accepts.
var ValidLogLevels = []string{"trace", "debug", "info", "warn", "error", "fatal"}

// ValidSpeedClasses enumerates the recognized device speed classes.
var ValidSpeedClasses = []string{string(SpeedSlow), string(SpeedMedium), string(SpeedFast)}

// DefaultConfig returns a Config populated with voxmap's built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		DataDir:     DefaultDataDir,
		LogLevel:    DefaultLogLevel,
		LogToStdout: false,

		Walker: WalkerConfig{
			MaxTreeDepth:          DefaultMaxTreeDepth,
			ScreenFingerprintTopN: DefaultScreenFingerprintTopN,
		},
		Grammar: GrammarConfig{
			ConfidenceHigh:   DefaultGrammarConfidenceHigh,
			ConfidenceMedium: DefaultGrammarConfidenceMedium,
			ListIndexCap:     DefaultListIndexCap,
			FuzzyKNearest:    DefaultFuzzyKNearest,
		},
		Debounce: DebounceConfig{
			DeviceSpeedClass: DefaultDeviceSpeedClass,

			ContentChangeSlowMs:   DefaultContentChangeSlowMs,
			ContentChangeMediumMs: DefaultContentChangeMediumMs,
			ContentChangeFastMs:   DefaultContentChangeFastMs,

			ScrollSlowMs:   DefaultScrollSlowMs,
			ScrollMediumMs: DefaultScrollMediumMs,
			ScrollFastMs:   DefaultScrollFastMs,

			GrammarPushSlowMs:   DefaultGrammarPushSlowMs,
			GrammarPushMediumMs: DefaultGrammarPushMediumMs,
			GrammarPushFastMs:   DefaultGrammarPushFastMs,
		},
		Resilience: ResilienceConfig{
			SpeechResultBuffer:      DefaultSpeechResultBuffer,
			ScrapeRetryDelayMs:      DefaultScrapeRetryDelayMs,
			GrammarRetryBaseMs:      DefaultGrammarRetryBaseMs,
			GrammarRetryMaxMs:       DefaultGrammarRetryMaxMs,
			GrammarRetryMaxAttempts: DefaultGrammarRetryMaxAttempts,
			CBFailureThreshold:      DefaultCBFailureThreshold,
			CBResetTimeoutMs:        DefaultCBResetTimeoutMs,
			CBHalfOpenMax:           DefaultCBHalfOpenMax,
		},
		Retention: RetentionConfig{
			HistoryRetentionDays:  DefaultHistoryRetentionDays,
			RetryCleanupThreshold: DefaultRetryCleanupThreshold,
			LiveContentWindowMs:   DefaultLiveContentWindowMs,
			LiveContentThreshold:  DefaultLiveContentThreshold,
		},
		EventFilter: EventFilterConfig{
			SystemUIPackage: DefaultSystemUIPackage,
		},
		Tracing: TracingConfig{
			Enabled:     false,
			ServiceName: DefaultTracingServiceName,
			SampleRate:  DefaultTracingSampleRate,
		},
		Debug: DebugConfig{
			Enabled: false,
			Addr:    DefaultDebugAddr,
		},
	}
}
