package app

import (
	"os"
	"strconv"
	"time"

	"github.com/jb-labs/identity/pkg/jwtx"
)

type Config struct {
	Issuer    string // Issuer claim stamped on every token (default: jb.com)
	SignerKey string // Required: shared HMAC secret, at least 32 bytes

	AccessTTL  time.Duration // Access token lifetime (default: 1h)
	RefreshTTL time.Duration // Refresh window measured from issuance (default: 10h)

	AdminPassword string // Optional: overrides the default seed admin password

	DatabaseFile         string        // Path to SQLite database file (default: ./identity.db)
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Revocation ledger purge interval (default: 1h)
}

func LoadConfig() Config {
	return Config{
		Issuer:        getEnvOrDefault("IDENTITY_ISSUER", "jb.com"),
		SignerKey:     os.Getenv("IDENTITY_SIGNER_KEY"),
		AccessTTL:     getEnvSecondsOrDefault("IDENTITY_ACCESS_TTL_SEC", jwtx.DefaultAccessTokenTTL),
		RefreshTTL:    getEnvSecondsOrDefault("IDENTITY_REFRESH_TTL_SEC", jwtx.DefaultRefreshTokenTTL),
		AdminPassword: os.Getenv("IDENTITY_ADMIN_PASSWORD"),
		DatabaseFile:  getEnvOrDefault("IDENTITY_DATABASE_FILE", "identity.db"),

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

// getEnvSecondsOrDefault parses a plain integer number of seconds.
func getEnvSecondsOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// e.g. "1h", "30m", "90s"
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	return defaultValue
}
