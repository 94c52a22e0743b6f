package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Sessions
	SessionSecret   string
	SessionTTLHours int

	// Redis (optional, in-memory sessions when empty)
	RedisURL string

	// Database (optional, relay attempts are only logged when set)
	DatabaseURL string

	// Assistant
	AssistantProvider       string
	OpenAIAPIKey            string
	OpenAIBaseURL           string
	GeminiAPIKey            string
	AssistantID             string
	AssistantSystemPrompt   string
	AssistantReuseThread    bool
	AssistantPollIntervalMS int
	AssistantMaxWaitSeconds int

	// Webhook relay
	WebhookURL            string
	WebhookPayload        string
	WebhookTimeoutSeconds int

	// Rate limiting
	RateLimitPerMinute int

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:                    getEnvOrDefault("PORT", "8080"),
		Env:                     getEnvOrDefault("ENV", "development"),
		SessionSecret:           mustGetEnv("SESSION_SECRET"),
		SessionTTLHours:         getEnvAsPositiveIntOrDefault("SESSION_TTL_HOURS", 24),
		RedisURL:                getEnvOrDefault("REDIS_URL", ""),
		DatabaseURL:             getEnvOrDefault("DATABASE_URL", ""),
		AssistantProvider:       strings.ToLower(getEnvOrDefault("ASSISTANT_PROVIDER", "openai")),
		OpenAIAPIKey:            getEnvOrDefault("OPENAI_API_KEY", ""),
		OpenAIBaseURL:           getEnvOrDefault("OPENAI_BASE_URL", ""),
		GeminiAPIKey:            getEnvOrDefault("GEMINI_API_KEY", ""),
		AssistantID:             getEnvOrDefault("ASSISTANT_ID", ""),
		AssistantSystemPrompt:   getEnvOrDefault("ASSISTANT_SYSTEM_PROMPT", ""),
		AssistantReuseThread:    getEnvAsBoolOrDefault("ASSISTANT_REUSE_THREAD", false),
		AssistantPollIntervalMS: getEnvAsPositiveIntOrDefault("ASSISTANT_POLL_INTERVAL_MS", 500),
		AssistantMaxWaitSeconds: getEnvAsPositiveIntOrDefault("ASSISTANT_MAX_WAIT_SECONDS", 120),
		WebhookURL:              getEnvOrDefault("WEBHOOK_URL", ""),
		WebhookPayload:          strings.ToLower(getEnvOrDefault("WEBHOOK_PAYLOAD", "lead")),
		WebhookTimeoutSeconds:   getEnvAsIntOrDefault("WEBHOOK_TIMEOUT_SECONDS", 10),
		RateLimitPerMinute:      getEnvAsPositiveIntOrDefault("RATE_LIMIT_PER_MINUTE", 30),
		FrontendURL:             getEnvOrDefault("FRONTEND_URL", "http://localhost:8080"),
	}

	return cfg
}

// EnvAPIKey returns the credential configured in the environment for the
// selected assistant provider. Empty means the session must supply one.
func (c *Config) EnvAPIKey() string {
	if c.AssistantProvider == "gemini" {
		return c.GeminiAPIKey
	}
	return c.OpenAIAPIKey
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

// getEnvAsPositiveIntOrDefault is for durations and limits where zero or a
// negative value has no useful meaning.
func getEnvAsPositiveIntOrDefault(key string, defaultVal int) int {
	n := getEnvAsIntOrDefault(key, defaultVal)
	if n <= 0 {
		return defaultVal
	}
	return n
}

func getEnvAsBoolOrDefault(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}
