package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

// configPtr holds the current config for thread-safe access.
var configPtr atomic.Pointer[Config]

// loadedConfigFile stores the path of the config file used by the last successful Load.
var loadedConfigFile atomic.Value

// Get returns the current Config. It is safe for concurrent use.
// If no config has been loaded yet, it returns the default config.
func Get() *Config {
	if c := configPtr.Load(); c != nil {
		return c
	}
	d := DefaultConfig()
	configPtr.Store(d)
	return d
}

// set stores a new Config atomically.
func set(cfg *Config) {
	configPtr.Store(cfg)
}

// DeviceSpeedClass selects which row of the debounce table applies.
type DeviceSpeedClass string

const (
	SpeedSlow   DeviceSpeedClass = "SLOW"
	SpeedMedium DeviceSpeedClass = "MEDIUM"
	SpeedFast   DeviceSpeedClass = "FAST"
)

// Config is the top-level configuration for voxmap. Walker, Grammar,
// Debounce, Resilience, Retention and EventFilter hold the engine
// tunables; the remaining fields cover the data directory, store path,
// logging, and the optional observability surfaces.
type Config struct {
	DataDir     string        `mapstructure:"data_dir"      toml:"data_dir"`
	LogLevel    string        `mapstructure:"log_level"     toml:"log_level"`
	LogToStdout bool          `mapstructure:"log_to_stdout" toml:"log_to_stdout"`
	StorePath   string        `mapstructure:"store_path"    toml:"store_path"`

	Walker    WalkerConfig    `mapstructure:"walker"    toml:"walker"`
	Grammar   GrammarConfig   `mapstructure:"grammar"   toml:"grammar"`
	Debounce  DebounceConfig  `mapstructure:"debounce"  toml:"debounce"`
	Resilience ResilienceConfig `mapstructure:"resilience" toml:"resilience"`
	Retention RetentionConfig `mapstructure:"retention" toml:"retention"`
	EventFilter EventFilterConfig `mapstructure:"event_filter" toml:"event_filter"`
	Tracing   TracingConfig   `mapstructure:"tracing"   toml:"tracing"`
	Debug     DebugConfig     `mapstructure:"debug"     toml:"debug"`
}

// EventFilterConfig controls the Coordinator's pre-debounce event
// filter: events from the host's own system UI package are dropped
// before they ever reach a debounce timer.
type EventFilterConfig struct {
	SystemUIPackage string `mapstructure:"system_ui_package" toml:"system_ui_package"`
}

// WalkerConfig controls the tree walker's traversal bounds.
type WalkerConfig struct {
	MaxTreeDepth          int `mapstructure:"max_tree_depth"           toml:"max_tree_depth"`
	ScreenFingerprintTopN int `mapstructure:"screen_fingerprint_top_n" toml:"screen_fingerprint_top_n"`
}

// GrammarConfig controls the Command Indexer's phrase generation and
// dispatch confidence thresholds.
type GrammarConfig struct {
	ConfidenceHigh   float64 `mapstructure:"confidence_high"   toml:"confidence_high"`
	ConfidenceMedium float64 `mapstructure:"confidence_medium" toml:"confidence_medium"`
	ListIndexCap     int     `mapstructure:"list_index_cap"    toml:"list_index_cap"`
	FuzzyKNearest    int     `mapstructure:"fuzzy_k_nearest"   toml:"fuzzy_k_nearest"`
}

// DebounceConfig selects the device speed class and carries the
// per-operation minimum inter-fire intervals.
type DebounceConfig struct {
	DeviceSpeedClass DeviceSpeedClass `mapstructure:"device_speed_class" toml:"device_speed_class"`

	ContentChangeSlowMs   int `mapstructure:"content_change_slow_ms"   toml:"content_change_slow_ms"`
	ContentChangeMediumMs int `mapstructure:"content_change_medium_ms" toml:"content_change_medium_ms"`
	ContentChangeFastMs   int `mapstructure:"content_change_fast_ms"   toml:"content_change_fast_ms"`

	ScrollSlowMs   int `mapstructure:"scroll_slow_ms"   toml:"scroll_slow_ms"`
	ScrollMediumMs int `mapstructure:"scroll_medium_ms" toml:"scroll_medium_ms"`
	ScrollFastMs   int `mapstructure:"scroll_fast_ms"   toml:"scroll_fast_ms"`

	GrammarPushSlowMs   int `mapstructure:"grammar_push_slow_ms"   toml:"grammar_push_slow_ms"`
	GrammarPushMediumMs int `mapstructure:"grammar_push_medium_ms" toml:"grammar_push_medium_ms"`
	GrammarPushFastMs   int `mapstructure:"grammar_push_fast_ms"   toml:"grammar_push_fast_ms"`
}

// ResilienceConfig controls the Coordinator's retry/backoff and the
// speech-result channel sizing.
type ResilienceConfig struct {
	SpeechResultBuffer     int `mapstructure:"speech_result_buffer"      toml:"speech_result_buffer"`
	ScrapeRetryDelayMs     int `mapstructure:"scrape_retry_delay_ms"     toml:"scrape_retry_delay_ms"`
	GrammarRetryBaseMs     int `mapstructure:"grammar_retry_base_ms"     toml:"grammar_retry_base_ms"`
	GrammarRetryMaxMs      int `mapstructure:"grammar_retry_max_ms"      toml:"grammar_retry_max_ms"`
	GrammarRetryMaxAttempts int `mapstructure:"grammar_retry_max_attempts" toml:"grammar_retry_max_attempts"`
	CBFailureThreshold     int `mapstructure:"cb_failure_threshold"      toml:"cb_failure_threshold"`
	CBResetTimeoutMs       int `mapstructure:"cb_reset_timeout_ms"       toml:"cb_reset_timeout_ms"`
	CBHalfOpenMax          int `mapstructure:"cb_half_open_max_calls"    toml:"cb_half_open_max_calls"`
}

// RetentionConfig controls history pruning and the opportunistic GC
// pass that runs every RetryCleanupThreshold committed scrapes.
type RetentionConfig struct {
	HistoryRetentionDays  int `mapstructure:"history_retention_days"  toml:"history_retention_days"`
	RetryCleanupThreshold int `mapstructure:"retry_cleanup_threshold" toml:"retry_cleanup_threshold"`
	LiveContentWindowMs   int `mapstructure:"live_content_window_ms"   toml:"live_content_window_ms"`
	LiveContentThreshold  int `mapstructure:"live_content_threshold"   toml:"live_content_threshold"`
}

// TracingConfig controls OpenTelemetry span export.
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"      toml:"enabled"`
	ServiceName string  `mapstructure:"service_name" toml:"service_name"`
	SampleRate  float64 `mapstructure:"sample_rate"  toml:"sample_rate"`
}

// DebugConfig controls the debug/metrics HTTP surface served by
// internal/debugsrv. Addr defaults to a loopback address and is bound
// as given; it is not checked to be loopback.
type DebugConfig struct {
	Enabled bool   `mapstructure:"enabled" toml:"enabled"`
	Addr    string `mapstructure:"addr"    toml:"addr"`
}

// Load reads configuration from disk with the following precedence:
//  1. The file at explicitPath if non-empty
//  2. ~/.voxmap/voxmap.toml
//  3. ./voxmap.toml
//  4. Built-in defaults
//
// The loaded config is validated and stored in the global atomic pointer.
func Load(explicitPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("toml")

	setViperDefaults(v)

	if explicitPath != "" {
		v.SetConfigFile(explicitPath)
	} else {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(homeDir, ".voxmap"))
		}
		v.AddConfigPath(".")
		v.SetConfigName("voxmap")
	}

	if err := v.ReadInConfig(); err != nil {
		// An explicit path that does not exist surfaces as a plain
		// fs.ErrNotExist rather than viper.ConfigFileNotFoundError.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: reading config: %w", err)
		}
	}

	if cf := v.ConfigFileUsed(); cf != "" {
		loadedConfigFile.Store(cf)
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	)); err != nil {
		return nil, fmt.Errorf("config: unmarshalling config: %w", err)
	}

	cfg.DataDir = expandHome(cfg.DataDir)
	if cfg.StorePath == "" {
		cfg.StorePath = filepath.Join(cfg.DataDir, "voxmap.db")
	} else {
		cfg.StorePath = expandHome(cfg.StorePath)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	set(cfg)
	return cfg, nil
}

// InitConfig writes the default configuration file to ~/.voxmap/voxmap.toml.
// If the file already exists it is not overwritten.
func InitConfig() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("config: determining home directory: %w", err)
	}

	dir := filepath.Join(homeDir, ".voxmap")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("config: creating data directory: %w", err)
	}

	path := filepath.Join(dir, DefaultConfigFilename)
	if _, err := os.Stat(path); err == nil {
		fmt.Printf("Config already exists: %s\n", path)
		return nil
	}

	cfg := DefaultConfig()
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshalling default config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("config: writing config: %w", err)
	}

	fmt.Printf("Config written to %s\n", path)
	return nil
}

// ExportConfig writes the current config to the given path in TOML format.
func ExportConfig(path string) error {
	cfg := Get()
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("config: writing config: %w", err)
	}
	return nil
}

// ImportConfig reads a TOML config file, applies it over the built-in
// defaults (not over the current config), and replaces the current
// config with the result. The imported config is also persisted to the
// active config file so changes survive restarts.
func ImportConfig(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: reading config: %w", err)
	}
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: parsing config: %w", err)
	}
	if err := validate(cfg); err != nil {
		return err
	}
	set(cfg)

	if dest := ConfigFilePath(); dest != "" {
		out, err := toml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("config: marshalling config for persistence: %w", err)
		}
		if err := os.WriteFile(dest, out, 0o600); err != nil {
			return fmt.Errorf("config: persisting imported config: %w", err)
		}
	}

	return nil
}

// ConfigFilePath returns the path of the config file that was loaded, or
// empty if no file was found.
func ConfigFilePath() string {
	if v, ok := loadedConfigFile.Load().(string); ok {
		return v
	}
	return ""
}

// setViperDefaults registers every known key with viper so that the
// mapstructure unmarshal sees a full default tree even when no config
// file sets a given key.
func setViperDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_to_stdout", d.LogToStdout)
	v.SetDefault("store_path", d.StorePath)

	v.SetDefault("walker.max_tree_depth", d.Walker.MaxTreeDepth)
	v.SetDefault("walker.screen_fingerprint_top_n", d.Walker.ScreenFingerprintTopN)

	v.SetDefault("grammar.confidence_high", d.Grammar.ConfidenceHigh)
	v.SetDefault("grammar.confidence_medium", d.Grammar.ConfidenceMedium)
	v.SetDefault("grammar.list_index_cap", d.Grammar.ListIndexCap)
	v.SetDefault("grammar.fuzzy_k_nearest", d.Grammar.FuzzyKNearest)

	v.SetDefault("debounce.device_speed_class", string(d.Debounce.DeviceSpeedClass))
	v.SetDefault("debounce.content_change_slow_ms", d.Debounce.ContentChangeSlowMs)
	v.SetDefault("debounce.content_change_medium_ms", d.Debounce.ContentChangeMediumMs)
	v.SetDefault("debounce.content_change_fast_ms", d.Debounce.ContentChangeFastMs)
	v.SetDefault("debounce.scroll_slow_ms", d.Debounce.ScrollSlowMs)
	v.SetDefault("debounce.scroll_medium_ms", d.Debounce.ScrollMediumMs)
	v.SetDefault("debounce.scroll_fast_ms", d.Debounce.ScrollFastMs)
	v.SetDefault("debounce.grammar_push_slow_ms", d.Debounce.GrammarPushSlowMs)
	v.SetDefault("debounce.grammar_push_medium_ms", d.Debounce.GrammarPushMediumMs)
	v.SetDefault("debounce.grammar_push_fast_ms", d.Debounce.GrammarPushFastMs)

	v.SetDefault("resilience.speech_result_buffer", d.Resilience.SpeechResultBuffer)
	v.SetDefault("resilience.scrape_retry_delay_ms", d.Resilience.ScrapeRetryDelayMs)
	v.SetDefault("resilience.grammar_retry_base_ms", d.Resilience.GrammarRetryBaseMs)
	v.SetDefault("resilience.grammar_retry_max_ms", d.Resilience.GrammarRetryMaxMs)
	v.SetDefault("resilience.grammar_retry_max_attempts", d.Resilience.GrammarRetryMaxAttempts)
	v.SetDefault("resilience.cb_failure_threshold", d.Resilience.CBFailureThreshold)
	v.SetDefault("resilience.cb_reset_timeout_ms", d.Resilience.CBResetTimeoutMs)
	v.SetDefault("resilience.cb_half_open_max_calls", d.Resilience.CBHalfOpenMax)

	v.SetDefault("retention.history_retention_days", d.Retention.HistoryRetentionDays)
	v.SetDefault("retention.retry_cleanup_threshold", d.Retention.RetryCleanupThreshold)
	v.SetDefault("retention.live_content_window_ms", d.Retention.LiveContentWindowMs)
	v.SetDefault("retention.live_content_threshold", d.Retention.LiveContentThreshold)

	v.SetDefault("event_filter.system_ui_package", d.EventFilter.SystemUIPackage)

	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)
	v.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)

	v.SetDefault("debug.enabled", d.Debug.Enabled)
	v.SetDefault("debug.addr", d.Debug.Addr)
}

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
