package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr        string
	DatabaseURL string
	JWTSecret   string
	Environment string

	// QueuePath is the SQLite file backing the offline punch queue.
	QueuePath string

	Timezone             string
	FallbackBreakMinutes int
	StandardShiftMinutes int
	SyncInterval         time.Duration

	SeedTenantName    string
	SeedAdminEmail    string
	SeedAdminPassword string
	SeedSiteName      string
	SeedSiteLat       float64
	SeedSiteLng       float64
	SeedSiteRadius    int

	RunMigrations bool
	RunSeed       bool

	MaxBodyBytes       int64
	RateLimitPerMinute int
	MetricsEnabled     bool
}

func Load() Config {
	return Config{
		Addr:                 getEnv("APP_ADDR", ":8080"),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		JWTSecret:            getEnv("JWT_SECRET", ""),
		Environment:          getEnv("APP_ENV", "development"),
		QueuePath:            getEnv("QUEUE_PATH", "offline-queue.db"),
		Timezone:             getEnv("TIMEZONE", "America/Sao_Paulo"),
		FallbackBreakMinutes: getEnvInt("FALLBACK_BREAK_MINUTES", 60),
		StandardShiftMinutes: getEnvInt("STANDARD_SHIFT_MINUTES", 480),
		SyncInterval:         getEnvDuration("SYNC_INTERVAL", 30*time.Second),
		SeedTenantName:       getEnv("SEED_TENANT_NAME", "Default Tenant"),
		SeedAdminEmail:       getEnv("SEED_ADMIN_EMAIL", ""),
		SeedAdminPassword:    getEnv("SEED_ADMIN_PASSWORD", ""),
		SeedSiteName:         getEnv("SEED_SITE_NAME", "Headquarters"),
		SeedSiteLat:          getEnvFloat("SEED_SITE_LAT", 0),
		SeedSiteLng:          getEnvFloat("SEED_SITE_LNG", 0),
		SeedSiteRadius:       getEnvInt("SEED_SITE_RADIUS_METERS", 100),
		RunMigrations:        getEnvBool("RUN_MIGRATIONS", true),
		RunSeed:              getEnvBool("RUN_SEED", true),
		MaxBodyBytes:         int64(getEnvInt("MAX_BODY_BYTES", 1048576)),
		RateLimitPerMinute:   getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		MetricsEnabled:       getEnvBool("METRICS_ENABLED", true),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Environment == "production" {
		if strings.TrimSpace(c.JWTSecret) == "" {
			return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
		}
		if c.RunSeed && strings.TrimSpace(c.SeedAdminPassword) == "" {
			return fmt.Errorf("SEED_ADMIN_PASSWORD must be changed or RUN_SEED disabled in production")
		}
	}
	if c.FallbackBreakMinutes < 0 {
		return fmt.Errorf("FALLBACK_BREAK_MINUTES must not be negative")
	}
	if c.StandardShiftMinutes <= 0 {
		return fmt.Errorf("STANDARD_SHIFT_MINUTES must be positive")
	}
	if c.SyncInterval <= 0 {
		return fmt.Errorf("SYNC_INTERVAL must be positive")
	}
	if c.SeedSiteRadius <= 0 {
		return fmt.Errorf("SEED_SITE_RADIUS_METERS must be positive")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE %q is invalid: %w", c.Timezone, err)
	}
	return nil
}

// Location resolves the configured time zone. Validate catches bad values at
// startup, so callers after that can ignore the error.
func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}
