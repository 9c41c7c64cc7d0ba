package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the core runtime configuration for the service.
// Values are primarily sourced from environment variables, with
// sensible defaults where appropriate. See .env.example.
type Config struct {
	AdminUser     string
	AdminPassword string

	DatabaseURL string

	ListenAddr string

	// SessionSecret signs admin session tokens. When empty a random
	// secret is generated at startup, which invalidates sessions on restart.
	SessionSecret string
	SessionTTL    time.Duration

	// AnalyticsDefaultLimit is the page size of GET /analytics when the
	// caller does not pass ?limit=. AnalyticsMaxLimit caps any requested value.
	AnalyticsDefaultLimit int
	AnalyticsMaxLimit     int

	// TrustProxy makes the first X-Forwarded-For hop the client IP
	// recorded on analytics rows. Only enable behind a proxy you control.
	TrustProxy bool

	LogLevel  string
	LogFormat string
}

// Load reads configuration from environment variables and applies defaults.
func Load() *Config {
	cfg := &Config{
		AdminUser:             getenv("APP_ADMIN_USER", "admin"),
		AdminPassword:         getenv("APP_ADMIN_PASSWORD", "changeme"),
		DatabaseURL:           os.Getenv("APP_DATABASE_URL"),
		ListenAddr:            getenv("APP_LISTEN_ADDR", ":8080"),
		SessionSecret:         os.Getenv("APP_SESSION_SECRET"),
		SessionTTL:            24 * time.Hour,
		AnalyticsDefaultLimit: 100,
		AnalyticsMaxLimit:     1000,
		TrustProxy:            getbool("APP_TRUST_PROXY", false),
		LogLevel:              getenv("LOG_LEVEL", "info"),
		LogFormat:             getenv("LOG_FORMAT", "json"),
	}

	if v := os.Getenv("APP_SESSION_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.SessionTTL = d
		}
	}
	if v := os.Getenv("APP_ANALYTICS_DEFAULT_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.AnalyticsDefaultLimit = n
		}
	}
	if v := os.Getenv("APP_ANALYTICS_MAX_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.AnalyticsMaxLimit = n
		}
	}
	if cfg.AnalyticsDefaultLimit > cfg.AnalyticsMaxLimit {
		cfg.AnalyticsDefaultLimit = cfg.AnalyticsMaxLimit
	}

	return cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getbool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
