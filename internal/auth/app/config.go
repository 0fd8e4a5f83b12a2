package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	DatabaseFile string // Optional: path to SQLite database file (default: ./lantern.db)

	// AppURL is the public base URL embedded in magic links.
	AppURL string

	// AuthCodeSecret signs authorization codes. Required for the
	// authorization_code grant; generated codes become worthless when it
	// rotates, which is acceptable given their short TTL.
	AuthCodeSecret string

	AccessTTL          time.Duration // Access token lifetime (default: 2h)
	RefreshTTL         time.Duration // Refresh token lifetime (default: 30d)
	MagicLinkTTL       time.Duration // Magic-link token lifetime (default: 15m)
	MagicLinkAccessTTL time.Duration // Access token lifetime for magic-link logins (default: 15m)
	AuthCodeTTL        time.Duration // Authorization code lifetime (default: 5m)
	TokenRetention     time.Duration // How long expired/revoked token rows are kept (default: 30d)

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

func LoadConfig() Config {
	return Config{
		DatabaseFile:   getEnvOrDefault("LANTERN_DATABASE_FILE", "lantern.db"),
		AppURL:         getEnvOrDefault("LANTERN_APP_URL", "http://localhost:8080"),
		AuthCodeSecret: os.Getenv("LANTERN_AUTH_CODE_SECRET"),

		AccessTTL:          getEnvDurationOrDefault("LANTERN_ACCESS_TTL", 2*time.Hour),
		RefreshTTL:         getEnvDurationOrDefault("LANTERN_REFRESH_TTL", 30*24*time.Hour),
		MagicLinkTTL:       getEnvDurationOrDefault("LANTERN_MAGIC_LINK_TTL", 15*time.Minute),
		MagicLinkAccessTTL: getEnvDurationOrDefault("LANTERN_MAGIC_LINK_ACCESS_TTL", 15*time.Minute),
		AuthCodeTTL:        getEnvDurationOrDefault("LANTERN_AUTH_CODE_TTL", 5*time.Minute),
		TokenRetention:     getEnvDurationOrDefault("LANTERN_TOKEN_RETENTION", 30*24*time.Hour),

		SMTPHost:     getEnvOrDefault("LANTERN_SMTP_HOST", "localhost"),
		SMTPPort:     getEnvIntOrDefault("LANTERN_SMTP_PORT", 587),
		SMTPUsername: os.Getenv("LANTERN_SMTP_USERNAME"),
		SMTPPassword: os.Getenv("LANTERN_SMTP_PASSWORD"),
		SMTPFrom:     getEnvOrDefault("LANTERN_SMTP_FROM", "no-reply@localhost"),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Integer values are read as minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
