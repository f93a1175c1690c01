package config

import (
	"errors"
	"fmt"
	"os"
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
	DatabaseURL        string
	RedisURL           string
	JWTSecret          string
	CORSAllowedOrigins []string

	RestaurantName string
	CurrencySymbol string

	// Pricing rates in percentage points (16 means 16%). Handed to the
	// pricing engine per call rather than read from shared state.
	TaxRatePercent           float64
	ServiceChargeRatePercent float64

	AccessTokenTTL  time.Duration
	LoginRatePeriod time.Duration
	LoginRateLimit  int64

	MenuCacheTTL    time.Duration
	ReportsCacheTTL time.Duration
	IdempotencyTTL  time.Duration

	InventoryLockTTL time.Duration
	RecipeDeduction  bool

	QueueRedisPrefix  string
	QueueMaxAttempts  int
	QueueConcurrency  int
	QueueVisibilityTO time.Duration

	AutoMigrate   bool
	MigrationsDir string

	// APIRateLimit uses the "<count>-<period>" notation, e.g. "300-M".
	APIRateLimit string

	LowStockSweepEvery time.Duration
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
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		JWTSecret:          k.String("JWT_SECRET"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		RestaurantName: valueOrDefault(k.String("POS_RESTAURANT_NAME"), "Shinwari Dera"),
		CurrencySymbol: valueOrDefault(k.String("POS_CURRENCY_SYMBOL"), "Rs."),

		TaxRatePercent:           parseFloat(k.String("POS_TAX_RATE_PERCENT"), 16),
		ServiceChargeRatePercent: parseFloat(k.String("POS_SERVICE_CHARGE_PERCENT"), 5),

		AccessTokenTTL:  parseDuration(k.String("ACCESS_TOKEN_TTL"), "12h"),
		LoginRatePeriod: parseDuration(k.String("LOGIN_RATE_PERIOD"), "1m"),
		LoginRateLimit:  int64(k.Int("LOGIN_RATE_LIMIT")),

		MenuCacheTTL:    parseDuration(k.String("MENU_CACHE_TTL"), "5m"),
		ReportsCacheTTL: parseDuration(k.String("REPORTS_CACHE_TTL"), "2m"),
		IdempotencyTTL:  parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),

		InventoryLockTTL: parseDuration(k.String("INVENTORY_LOCK_TTL"), "10s"),
		RecipeDeduction:  parseBool(k.String("POS_RECIPE_DEDUCTION")),

		QueueRedisPrefix:  valueOrDefault(k.String("QUEUE_REDIS_PREFIX"), "pos"),
		QueueMaxAttempts:  intOrDefault(k.Int("QUEUE_MAX_ATTEMPTS"), 10),
		QueueConcurrency:  intOrDefault(k.Int("QUEUE_CONCURRENCY"), 4),
		QueueVisibilityTO: parseDuration(k.String("QUEUE_VISIBILITY_TIMEOUT"), "30s"),

		AutoMigrate:   parseBool(k.String("AUTO_MIGRATE")),
		MigrationsDir: valueOrDefault(k.String("MIGRATIONS_DIR"), "migrations"),

		APIRateLimit: valueOrDefault(k.String("API_RATE_LIMIT"), "300-M"),

		LowStockSweepEvery: parseDuration(k.String("LOW_STOCK_SWEEP_EVERY"), "15m"),
	}

	if cfg.LoginRateLimit <= 0 {
		cfg.LoginRateLimit = 10
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.TaxRatePercent < 0 || cfg.ServiceChargeRatePercent < 0 {
		return nil, errors.New("pricing rates must be non-negative")
	}

	return cfg, nil
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

func intOrDefault(value, fallback int) int {
	if value > 0 {
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

func parseFloat(value string, fallback float64) float64 {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	var f float64
	if _, err := fmt.Sscanf(trimmed, "%g", &f); err != nil {
		return fallback
	}
	return f
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
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
