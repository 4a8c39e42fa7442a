package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	// API Configuration
	APIPort        string
	APIHost        string
	APIEnvironment string

	// Deals backend (external REST collaborator)
	BackendBaseURL string
	BackendTimeout time.Duration

	// Redis
	RedisURL     string
	CacheEnabled bool
	AnalyticsTTL time.Duration

	// Sentry
	SentryDSN         string
	SentryEnvironment string

	// CORS
	CORSAllowedOrigins []string

	// Rate Limiting
	RateLimitRequestsPerMinute int
	RateLimitBurst             int

	// Logging
	LogLevel string

	// Engine policies
	ResetProbabilityOnRegress bool
	NoticeTTL                 time.Duration

	// Scheduled jobs
	CronEnabled     bool
	DealRefreshSpec string
	CacheWarmSpec   string
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		// API
		APIPort:        getEnv("API_PORT", "8080"),
		APIHost:        getEnv("API_HOST", "0.0.0.0"),
		APIEnvironment: getEnv("API_ENVIRONMENT", "development"),

		// Deals backend
		BackendBaseURL: getEnv("DEALS_BACKEND_URL", "http://localhost:9090/api"),
		BackendTimeout: getEnvAsDuration("DEALS_BACKEND_TIMEOUT", 10*time.Second),

		// Redis
		RedisURL:     getEnv("REDIS_URL", "redis://localhost:6379"),
		CacheEnabled: getEnvAsBool("CACHE_ENABLED", true),
		AnalyticsTTL: getEnvAsDuration("ANALYTICS_CACHE_TTL", 30*time.Second),

		// Sentry
		SentryDSN:         getEnv("SENTRY_DSN", ""),
		SentryEnvironment: getEnv("SENTRY_ENVIRONMENT", "development"),

		// CORS
		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),

		// Rate Limiting
		RateLimitRequestsPerMinute: getEnvAsInt("RATE_LIMIT_REQUESTS_PER_MINUTE", 120),
		RateLimitBurst:             getEnvAsInt("RATE_LIMIT_BURST", 20),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Engine policies
		ResetProbabilityOnRegress: getEnvAsBool("PIPELINE_RESET_PROBABILITY_ON_REGRESS", false),
		NoticeTTL:                 getEnvAsDuration("NOTICE_TTL", 8*time.Second),

		// Scheduled jobs
		CronEnabled:     getEnvAsBool("CRON_ENABLED", true),
		DealRefreshSpec: getEnv("DEAL_REFRESH_CRON", "*/5 * * * *"),
		CacheWarmSpec:   getEnv("CACHE_WARM_CRON", "*/1 * * * *"),
	}
}

// Helper functions
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
