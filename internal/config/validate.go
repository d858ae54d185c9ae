package config

import (
	"fmt"
	"strings"
)

// validate checks the Config for invalid or out-of-range values.
// It returns a combined error if any checks fail.
func validate(cfg *Config) error {
	var errs []string

	if cfg.DataDir == "" {
		errs = append(errs, "data_dir must not be empty")
	}
	if !isValidEnum(cfg.LogLevel, ValidLogLevels) {
		errs = append(errs, fmt.Sprintf("log_level must be one of %v, got %q", ValidLogLevels, cfg.LogLevel))
	}

	if cfg.Walker.MaxTreeDepth < 1 {
		errs = append(errs, fmt.Sprintf("walker.max_tree_depth must be at least 1, got %d", cfg.Walker.MaxTreeDepth))
	}
	if cfg.Walker.MaxTreeDepth > DefaultMaxTreeDepthHardCap {
		errs = append(errs, fmt.Sprintf("walker.max_tree_depth exceeds hard cap %d, got %d", DefaultMaxTreeDepthHardCap, cfg.Walker.MaxTreeDepth))
	}
	if cfg.Walker.ScreenFingerprintTopN < 1 {
		errs = append(errs, fmt.Sprintf("walker.screen_fingerprint_top_n must be at least 1, got %d", cfg.Walker.ScreenFingerprintTopN))
	}

	if cfg.Grammar.ConfidenceHigh < 0 || cfg.Grammar.ConfidenceHigh > 1 {
		errs = append(errs, fmt.Sprintf("grammar.confidence_high must be between 0 and 1, got %v", cfg.Grammar.ConfidenceHigh))
	}
	if cfg.Grammar.ConfidenceMedium < 0 || cfg.Grammar.ConfidenceMedium > 1 {
		errs = append(errs, fmt.Sprintf("grammar.confidence_medium must be between 0 and 1, got %v", cfg.Grammar.ConfidenceMedium))
	}
	if cfg.Grammar.ConfidenceMedium >= cfg.Grammar.ConfidenceHigh {
		errs = append(errs, fmt.Sprintf("grammar.confidence_medium (%v) must be less than grammar.confidence_high (%v)", cfg.Grammar.ConfidenceMedium, cfg.Grammar.ConfidenceHigh))
	}
	if cfg.Grammar.ListIndexCap < 1 {
		errs = append(errs, fmt.Sprintf("grammar.list_index_cap must be at least 1, got %d", cfg.Grammar.ListIndexCap))
	}
	if cfg.Grammar.FuzzyKNearest < 1 {
		errs = append(errs, fmt.Sprintf("grammar.fuzzy_k_nearest must be at least 1, got %d", cfg.Grammar.FuzzyKNearest))
	}

	if !isValidEnum(string(cfg.Debounce.DeviceSpeedClass), ValidSpeedClasses) {
		errs = append(errs, fmt.Sprintf("debounce.device_speed_class must be one of %v, got %q", ValidSpeedClasses, cfg.Debounce.DeviceSpeedClass))
	}
	for _, d := range []struct {
		name string
		val  int
	}{
		{"debounce.content_change_slow_ms", cfg.Debounce.ContentChangeSlowMs},
		{"debounce.content_change_medium_ms", cfg.Debounce.ContentChangeMediumMs},
		{"debounce.content_change_fast_ms", cfg.Debounce.ContentChangeFastMs},
		{"debounce.scroll_slow_ms", cfg.Debounce.ScrollSlowMs},
		{"debounce.scroll_medium_ms", cfg.Debounce.ScrollMediumMs},
		{"debounce.scroll_fast_ms", cfg.Debounce.ScrollFastMs},
		{"debounce.grammar_push_slow_ms", cfg.Debounce.GrammarPushSlowMs},
		{"debounce.grammar_push_medium_ms", cfg.Debounce.GrammarPushMediumMs},
		{"debounce.grammar_push_fast_ms", cfg.Debounce.GrammarPushFastMs},
	} {
		if d.val < 0 {
			errs = append(errs, fmt.Sprintf("%s must not be negative, got %d", d.name, d.val))
		}
	}

	if cfg.Resilience.SpeechResultBuffer < 1 {
		errs = append(errs, fmt.Sprintf("resilience.speech_result_buffer must be at least 1, got %d", cfg.Resilience.SpeechResultBuffer))
	}
	if cfg.Resilience.ScrapeRetryDelayMs < 0 {
		errs = append(errs, "resilience.scrape_retry_delay_ms must not be negative")
	}
	if cfg.Resilience.GrammarRetryBaseMs < 0 || cfg.Resilience.GrammarRetryMaxMs < cfg.Resilience.GrammarRetryBaseMs {
		errs = append(errs, "resilience.grammar_retry_max_ms must be >= grammar_retry_base_ms, and both non-negative")
	}
	if cfg.Resilience.GrammarRetryMaxAttempts < 1 {
		errs = append(errs, fmt.Sprintf("resilience.grammar_retry_max_attempts must be at least 1, got %d", cfg.Resilience.GrammarRetryMaxAttempts))
	}
	if cfg.Resilience.CBFailureThreshold < 1 {
		errs = append(errs, fmt.Sprintf("resilience.cb_failure_threshold must be at least 1, got %d", cfg.Resilience.CBFailureThreshold))
	}
	if cfg.Resilience.CBResetTimeoutMs < 0 {
		errs = append(errs, "resilience.cb_reset_timeout_ms must not be negative")
	}
	if cfg.Resilience.CBHalfOpenMax < 1 {
		errs = append(errs, fmt.Sprintf("resilience.cb_half_open_max_calls must be at least 1, got %d", cfg.Resilience.CBHalfOpenMax))
	}

	if cfg.Retention.HistoryRetentionDays < 1 {
		errs = append(errs, fmt.Sprintf("retention.history_retention_days must be at least 1, got %d", cfg.Retention.HistoryRetentionDays))
	}
	if cfg.Retention.RetryCleanupThreshold < 1 {
		errs = append(errs, fmt.Sprintf("retention.retry_cleanup_threshold must be at least 1, got %d", cfg.Retention.RetryCleanupThreshold))
	}
	if cfg.Retention.LiveContentWindowMs < 1 {
		errs = append(errs, fmt.Sprintf("retention.live_content_window_ms must be at least 1, got %d", cfg.Retention.LiveContentWindowMs))
	}
	if cfg.Retention.LiveContentThreshold < 1 {
		errs = append(errs, fmt.Sprintf("retention.live_content_threshold must be at least 1, got %d", cfg.Retention.LiveContentThreshold))
	}

	if cfg.EventFilter.SystemUIPackage == "" {
		errs = append(errs, "event_filter.system_ui_package must not be empty")
	}

	if cfg.Tracing.SampleRate < 0 || cfg.Tracing.SampleRate > 1 {
		errs = append(errs, fmt.Sprintf("tracing.sample_rate must be between 0 and 1, got %v", cfg.Tracing.SampleRate))
	}
	if cfg.Tracing.ServiceName == "" {
		errs = append(errs, "tracing.service_name must not be empty")
	}

	if cfg.Debug.Enabled && cfg.Debug.Addr == "" {
		errs = append(errs, "debug.addr must not be empty when debug.enabled is true")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: invalid configuration:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// isValidEnum reports whether val is present in allowed (case-insensitive).
func isValidEnum(val string, allowed []string) bool {
	for _, a := range allowed {
		if strings.EqualFold(val, a) {
			return true
		}
	}
	return false
}
