package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.DataDir = "/tmp/test"
	return cfg
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := validConfig()
	if err := validate(cfg); err != nil {
		t.Fatalf("validate valid config: %v", err)
	}
}

func TestValidate_EmptyDataDir(t *testing.T) {
	cfg := validConfig()
	cfg.DataDir = ""

	err := validate(cfg)
	if err == nil {
		t.Fatal("expected error for empty data_dir")
	}
}

func TestValidate_BadLogLevel(t *testing.T) {
	cfg := validConfig()
	cfg.LogLevel = "verbose"

	err := validate(cfg)
	if err == nil {
		t.Fatal("expected error for invalid log level")
	}
	if !strings.Contains(err.Error(), "log_level") {
		t.Errorf("error should mention log_level: %v", err)
	}
}

func TestValidate_MaxTreeDepthTooLow(t *testing.T) {
	cfg := validConfig()
	cfg.Walker.MaxTreeDepth = 0

	err := validate(cfg)
	if err == nil {
		t.Fatal("expected error for max_tree_depth 0")
	}
	if !strings.Contains(err.Error(), "max_tree_depth") {
		t.Errorf("error should mention max_tree_depth: %v", err)
	}
}

func TestValidate_MaxTreeDepthExceedsHardCap(t *testing.T) {
	cfg := validConfig()
	cfg.Walker.MaxTreeDepth = DefaultMaxTreeDepthHardCap + 1

	err := validate(cfg)
	if err == nil {
		t.Fatal("expected error for max_tree_depth exceeding hard cap")
	}
	if !strings.Contains(err.Error(), "hard cap") {
		t.Errorf("error should mention hard cap: %v", err)
	}
}

func TestValidate_ScreenFingerprintTopNTooLow(t *testing.T) {
	cfg := validConfig()
	cfg.Walker.ScreenFingerprintTopN = 0

	err := validate(cfg)
	if err == nil {
		t.Fatal("expected error for screen_fingerprint_top_n 0")
	}
}

func TestValidate_ConfidenceHighOutOfRange(t *testing.T) {
	cfg := validConfig()
	cfg.Grammar.ConfidenceHigh = 1.5

	err := validate(cfg)
	if err == nil {
		t.Fatal("expected error for confidence_high > 1")
	}
	if !strings.Contains(err.Error(), "confidence_high") {
		t.Errorf("error should mention confidence_high: %v", err)
	}
}

func TestValidate_ConfidenceMediumNotBelowHigh(t *testing.T) {
	cfg := validConfig()
	cfg.Grammar.ConfidenceHigh = 0.5
	cfg.Grammar.ConfidenceMedium = 0.5

	err := validate(cfg)
	if err == nil {
		t.Fatal("expected error when confidence_medium >= confidence_high")
	}
}

func TestValidate_ListIndexCapTooLow(t *testing.T) {
	cfg := validConfig()
	cfg.Grammar.ListIndexCap = 0

	err := validate(cfg)
	if err == nil {
		t.Fatal("expected error for list_index_cap 0")
	}
}

func TestValidate_FuzzyKNearestTooLow(t *testing.T) {
	cfg := validConfig()
	cfg.Grammar.FuzzyKNearest = 0

	err := validate(cfg)
	if err == nil {
		t.Fatal("expected error for fuzzy_k_nearest 0")
	}
}

func TestValidate_BadDeviceSpeedClass(t *testing.T) {
	cfg := validConfig()
	cfg.Debounce.DeviceSpeedClass = "TURBO"

	err := validate(cfg)
	if err == nil {
		t.Fatal("expected error for invalid device_speed_class")
	}
	if !strings.Contains(err.Error(), "device_speed_class") {
		t.Errorf("error should mention device_speed_class: %v", err)
	}
}

func TestValidate_NegativeDebounceInterval(t *testing.T) {
	cfg := validConfig()
	cfg.Debounce.ContentChangeMediumMs = -1

	err := validate(cfg)
	if err == nil {
		t.Fatal("expected error for negative content_change_medium_ms")
	}
}

func TestValidate_SpeechResultBufferTooLow(t *testing.T) {
	cfg := validConfig()
	cfg.Resilience.SpeechResultBuffer = 0

	err := validate(cfg)
	if err == nil {
		t.Fatal("expected error for speech_result_buffer 0")
	}
}

func TestValidate_NegativeScrapeRetryDelay(t *testing.T) {
	cfg := validConfig()
	cfg.Resilience.ScrapeRetryDelayMs = -1

	err := validate(cfg)
	if err == nil {
		t.Fatal("expected error for negative scrape_retry_delay_ms")
	}
}

func TestValidate_GrammarRetryMaxBelowBase(t *testing.T) {
	cfg := validConfig()
	cfg.Resilience.GrammarRetryBaseMs = 1000
	cfg.Resilience.GrammarRetryMaxMs = 500

	err := validate(cfg)
	if err == nil {
		t.Fatal("expected error when grammar_retry_max_ms < grammar_retry_base_ms")
	}
}

func TestValidate_GrammarRetryMaxAttemptsTooLow(t *testing.T) {
	cfg := validConfig()
	cfg.Resilience.GrammarRetryMaxAttempts = 0

	err := validate(cfg)
	if err == nil {
		t.Fatal("expected error for grammar_retry_max_attempts 0")
	}
}

func TestValidate_Resilience_ZeroFailureThreshold(t *testing.T) {
	cfg := validConfig()
	cfg.Resilience.CBFailureThreshold = 0

	err := validate(cfg)
	if err == nil {
		t.Fatal("expected error for cb_failure_threshold = 0")
	}
}

func TestValidate_Resilience_NegativeResetTimeout(t *testing.T) {
	cfg := validConfig()
	cfg.Resilience.CBResetTimeoutMs = -1

	err := validate(cfg)
	if err == nil {
		t.Fatal("expected error for negative cb_reset_timeout_ms")
	}
}

func TestValidate_Resilience_ZeroHalfOpenMax(t *testing.T) {
	cfg := validConfig()
	cfg.Resilience.CBHalfOpenMax = 0

	err := validate(cfg)
	if err == nil {
		t.Fatal("expected error for cb_half_open_max_calls = 0")
	}
}

func TestValidate_HistoryRetentionDaysTooLow(t *testing.T) {
	cfg := validConfig()
	cfg.Retention.HistoryRetentionDays = 0

	err := validate(cfg)
	if err == nil {
		t.Fatal("expected error for history_retention_days 0")
	}
}

func TestValidate_RetryCleanupThresholdTooLow(t *testing.T) {
	cfg := validConfig()
	cfg.Retention.RetryCleanupThreshold = 0

	err := validate(cfg)
	if err == nil {
		t.Fatal("expected error for retry_cleanup_threshold 0")
	}
}

func TestValidate_LiveContentWindowTooLow(t *testing.T) {
	cfg := validConfig()
	cfg.Retention.LiveContentWindowMs = 0

	err := validate(cfg)
	if err == nil {
		t.Fatal("expected error for live_content_window_ms 0")
	}
}

func TestValidate_LiveContentThresholdTooLow(t *testing.T) {
	cfg := validConfig()
	cfg.Retention.LiveContentThreshold = 0

	err := validate(cfg)
	if err == nil {
		t.Fatal("expected error for live_content_threshold 0")
	}
}

func TestValidate_EmptySystemUIPackage(t *testing.T) {
	cfg := validConfig()
	cfg.EventFilter.SystemUIPackage = ""

	err := validate(cfg)
	if err == nil {
		t.Fatal("expected error for empty system_ui_package")
	}
}

func TestValidate_TracingSampleRateOutOfRange(t *testing.T) {
	cfg := validConfig()
	cfg.Tracing.SampleRate = 1.5

	err := validate(cfg)
	if err == nil {
		t.Fatal("expected error for sample_rate > 1")
	}
}

func TestValidate_TracingServiceNameEmpty(t *testing.T) {
	cfg := validConfig()
	cfg.Tracing.ServiceName = ""

	err := validate(cfg)
	if err == nil {
		t.Fatal("expected error for empty tracing service_name")
	}
}

func TestValidate_DebugEnabledWithoutAddr(t *testing.T) {
	cfg := validConfig()
	cfg.Debug.Enabled = true
	cfg.Debug.Addr = ""

	err := validate(cfg)
	if err == nil {
		t.Fatal("expected error for debug.enabled with empty addr")
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	cfg := validConfig()
	cfg.LogLevel = "bad"
	cfg.Walker.MaxTreeDepth = 0

	err := validate(cfg)
	if err == nil {
		t.Fatal("expected multiple validation errors")
	}

	errStr := err.Error()
	if !strings.Contains(errStr, "log_level") || !strings.Contains(errStr, "max_tree_depth") {
		t.Errorf("error should mention multiple fields: %v", err)
	}
}

func TestIsValidEnum(t *testing.T) {
	if !isValidEnum("INFO", ValidLogLevels) {
		t.Error("INFO should be valid (case-insensitive)")
	}
	if isValidEnum("verbose", ValidLogLevels) {
		t.Error("verbose should not be valid")
	}
}
