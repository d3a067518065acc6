package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	EventsDir          string
	RedisURL           string
	EventCacheTTL      time.Duration
	CORSAllowedOrigins []string
	MaxBodyBytes       int64

	IntakeURL           string
	IntakeTimeout       time.Duration
	IntakeMaxAttempts   int
	IntakeBackoff       time.Duration
	BreakerMinRequests  int
	BreakerFailureRatio float64
	BreakerOpenFor      time.Duration

	IdempotencyTTL  time.Duration
	SubmitRateLimit string
	QuoteRateWindow time.Duration
	QuoteRateMax    int
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		EventsDir:          valueOrDefault(k.String("EVENTS_DIR"), "./events"),
		RedisURL:           strings.TrimSpace(k.String("REDIS_URL")),
		EventCacheTTL:      parseDuration(k.String("EVENT_CACHE_TTL"), "5m"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		MaxBodyBytes:       int64(parseInt(k.String("MAX_BODY_BYTES"), 64<<10)),

		IntakeURL:           strings.TrimSpace(k.String("INTAKE_URL")),
		IntakeTimeout:       parseDuration(k.String("INTAKE_TIMEOUT"), "15s"),
		IntakeMaxAttempts:   parseInt(k.String("INTAKE_MAX_ATTEMPTS"), 1),
		IntakeBackoff:       parseDuration(k.String("INTAKE_BACKOFF"), "500ms"),
		BreakerMinRequests:  parseInt(k.String("INTAKE_BREAKER_MIN_REQUESTS"), 5),
		BreakerFailureRatio: parseFloat(k.String("INTAKE_BREAKER_FAILURE_RATIO"), 0.5),
		BreakerOpenFor:      parseDuration(k.String("INTAKE_BREAKER_OPEN_FOR"), "30s"),

		IdempotencyTTL:  parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		SubmitRateLimit: valueOrDefault(k.String("SUBMIT_RATE_LIMIT"), "10-M"),
		QuoteRateWindow: parseDuration(k.String("QUOTE_RATE_WINDOW"), "1m"),
		QuoteRateMax:    parseInt(k.String("QUOTE_RATE_MAX"), 120),
	}

	if cfg.IntakeMaxAttempts < 1 {
		cfg.IntakeMaxAttempts = 1
	}
	if cfg.BreakerFailureRatio <= 0 || cfg.BreakerFailureRatio > 1 {
		return nil, errors.New("INTAKE_BREAKER_FAILURE_RATIO must be in (0, 1]")
	}
	if cfg.IsProduction() && cfg.IntakeURL == "" {
		return nil, errors.New("INTAKE_URL is required in production")
	}

	return cfg, nil
}

// IsProduction reports whether APP_ENV names a production deployment.
func (c *Config) IsProduction() bool {
	switch strings.ToLower(strings.TrimSpace(c.AppEnv)) {
	case "production", "prod":
		return true
	default:
		return false
	}
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseInt(value string, fallback int) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return parsed
}

func parseFloat(value string, fallback float64) float64 {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return parsed
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
