package config

import (
	"os"
	"testing"
)

func TestGetEnvOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal string
		expected   string
	}{
		{"uses env value", "TEST_VAR_1", "hello", "default", "hello"},
		{"uses default when empty", "TEST_VAR_2", "", "default", "default"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.envValue != "" {
				os.Setenv(tc.key, tc.envValue)
				defer os.Unsetenv(tc.key)
			}

			result := getEnvOrDefault(tc.key, tc.defaultVal)
			if result != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, result)
			}
		})
	}
}

func TestGetEnvAsIntOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal int
		expected   int
	}{
		{"parses integer", "TEST_INT_1", "42", 10, 42},
		{"uses default for empty", "TEST_INT_2", "", 10, 10},
		{"uses default for non-numeric", "TEST_INT_3", "abc", 10, 10},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.envValue != "" {
				os.Setenv(tc.key, tc.envValue)
				defer os.Unsetenv(tc.key)
			}

			result := getEnvAsIntOrDefault(tc.key, tc.defaultVal)
			if result != tc.expected {
				t.Errorf("Expected %d, got %d", tc.expected, result)
			}
		})
	}
}

func TestMustGetEnv_Panics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for missing required env var")
		}
	}()

	os.Unsetenv("NONEXISTENT_REQUIRED_VAR")
	mustGetEnv("NONEXISTENT_REQUIRED_VAR")
}

func TestMustGetEnv_ReturnsValue(t *testing.T) {
	os.Setenv("TEST_REQUIRED", "value123")
	defer os.Unsetenv("TEST_REQUIRED")

	result := mustGetEnv("TEST_REQUIRED")
	if result != "value123" {
		t.Errorf("Expected 'value123', got %q", result)
	}
}

func TestGetEnvAsBoolOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal bool
		expected   bool
	}{
		{"parses true", "TEST_BOOL_1", "true", false, true},
		{"parses zero", "TEST_BOOL_2", "0", true, false},
		{"uses default for empty", "TEST_BOOL_3", "", true, true},
		{"uses default for garbage", "TEST_BOOL_4", "maybe", false, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.envValue != "" {
				os.Setenv(tc.key, tc.envValue)
				defer os.Unsetenv(tc.key)
			}

			result := getEnvAsBoolOrDefault(tc.key, tc.defaultVal)
			if result != tc.expected {
				t.Errorf("Expected %v, got %v", tc.expected, result)
			}
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SESSION_SECRET", "secret")
	t.Setenv("WEBHOOK_TIMEOUT_SECONDS", "")
	t.Setenv("WEBHOOK_PAYLOAD", "")
	t.Setenv("ASSISTANT_PROVIDER", "")

	cfg := Load()
	if cfg.WebhookTimeoutSeconds != 10 {
		t.Errorf("Expected webhook timeout 10, got %d", cfg.WebhookTimeoutSeconds)
	}
	if cfg.WebhookPayload != "lead" {
		t.Errorf("Expected lead payload, got %q", cfg.WebhookPayload)
	}
	if cfg.AssistantProvider != "openai" {
		t.Errorf("Expected openai provider, got %q", cfg.AssistantProvider)
	}
	if cfg.SessionTTLHours != 24 {
		t.Errorf("Expected 24h session TTL, got %d", cfg.SessionTTLHours)
	}
}

func TestEnvAPIKey_FollowsProvider(t *testing.T) {
	cfg := &Config{AssistantProvider: "openai", OpenAIAPIKey: "sk-open", GeminiAPIKey: "gm-key"}
	if got := cfg.EnvAPIKey(); got != "sk-open" {
		t.Errorf("Expected openai key, got %q", got)
	}

	cfg.AssistantProvider = "gemini"
	if got := cfg.EnvAPIKey(); got != "gm-key" {
		t.Errorf("Expected gemini key, got %q", got)
	}
}

func TestLoad_NonPositiveDurationsUseDefaults(t *testing.T) {
	t.Setenv("SESSION_SECRET", "secret")
	t.Setenv("ASSISTANT_POLL_INTERVAL_MS", "0")
	t.Setenv("ASSISTANT_MAX_WAIT_SECONDS", "-5")
	t.Setenv("SESSION_TTL_HOURS", "0")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "-1")

	cfg := Load()
	if cfg.AssistantPollIntervalMS != 500 {
		t.Errorf("Expected poll interval 500, got %d", cfg.AssistantPollIntervalMS)
	}
	if cfg.AssistantMaxWaitSeconds != 120 {
		t.Errorf("Expected max wait 120, got %d", cfg.AssistantMaxWaitSeconds)
	}
	if cfg.SessionTTLHours != 24 {
		t.Errorf("Expected session TTL 24, got %d", cfg.SessionTTLHours)
	}
	if cfg.RateLimitPerMinute != 30 {
		t.Errorf("Expected rate limit 30, got %d", cfg.RateLimitPerMinute)
	}
}
