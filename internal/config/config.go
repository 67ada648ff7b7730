package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the development backend
type Config struct {
	// HTTP Configuration
	Server ServerConfig

	// Database Configuration
	Database DatabaseConfig

	// Token Configuration
	Auth AuthConfig

	// Logging Configuration
	Logging LoggingConfig

	// SeedFile is an optional YAML file loaded into an empty database
	SeedFile string

	// CleanupSchedule is the cron expression for purging expired tokens
	CleanupSchedule string
}

// ServerConfig holds HTTP listener configuration
type ServerConfig struct {
	Port        string
	CORSOrigins []string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// AuthConfig holds token issuing configuration
type AuthConfig struct {
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	RememberMeTTL   time.Duration
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	accessTTL, err := durationEnv("ACCESS_TOKEN_TTL", 15*time.Minute)
	if err != nil {
		return nil, err
	}
	refreshTTL, err := durationEnv("REFRESH_TOKEN_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	rememberTTL, err := durationEnv("REMEMBER_ME_TTL", 30*24*time.Hour)
	if err != nil {
		return nil, err
	}

	corsOrigins := []string{"http://localhost:5173"}
	if raw := os.Getenv("CORS_ORIGINS"); raw != "" {
		corsOrigins = strings.Split(raw, ",")
	}

	return &Config{
		Server: ServerConfig{
			Port:        stringEnv("PORT", "8080"),
			CORSOrigins: corsOrigins,
		},
		Database: DatabaseConfig{
			URL: stringEnv("DATABASE_URL", "shopfront.sqlite"),
		},
		Auth: AuthConfig{
			// Empty secret means one is generated at start-up
			JWTSecret:       os.Getenv("JWT_SECRET"),
			AccessTokenTTL:  accessTTL,
			RefreshTokenTTL: refreshTTL,
			RememberMeTTL:   rememberTTL,
		},
		Logging: LoggingConfig{
			Level:  stringEnv("LOG_LEVEL", "info"),
			Format: stringEnv("LOG_FORMAT", "json"),
		},
		SeedFile:        os.Getenv("SEED_FILE"),
		CleanupSchedule: stringEnv("CLEANUP_SCHEDULE", "*/10 * * * *"),
	}, nil
}

func stringEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
