package app

import (
	"os"
	"strconv"
	"time"

	"github.com/redbrickhq/gatehouse/pkg/jwtx"
)

type Config struct {
	Issuer string // Issuer claim for tokens (default: gatehouse)

	KeyFile      string // Optional: path to a PEM Ed25519 signing key; ephemeral when unset
	DatabaseFile string // Path to SQLite database file (default: ./auth.db)

	AccessTokenTTL  time.Duration // Access token lifetime (default: 30m)
	RefreshTokenTTL time.Duration // Refresh token lifetime (default: 7 days)
	ClockSkewLeeway time.Duration // Tolerance applied to exp/iat checks (default: 0)

	// RedirectURL, when set, makes the social login callback answer with
	// a 302 to the frontend instead of a JSON body.
	RedirectURL string

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	return Config{
		Issuer:       getEnvOrDefault("AUTH_ISSUER", "gatehouse"),
		KeyFile:      os.Getenv("AUTH_KEY_FILE"),
		DatabaseFile: getEnvOrDefault("AUTH_DATABASE_FILE", "auth.db"),

		AccessTokenTTL:  getEnvDurationOrDefault("AUTH_ACCESS_TOKEN_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTokenTTL: getEnvDurationOrDefault("AUTH_REFRESH_TOKEN_TTL", jwtx.DefaultRefreshTokenTTL),
		ClockSkewLeeway: getEnvDurationOrDefault("AUTH_CLOCK_SKEW_LEEWAY", 0),

		RedirectURL: os.Getenv("AUTH_OAUTH_REDIRECT_URL"),

		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
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

	return defaultValue
}
