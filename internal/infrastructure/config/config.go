package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds every environment option the chat relay recognizes.
// Values are read once at startup; there is no runtime reloading.
type Config struct {
	Port       string
	CORSOrigin string // "*" or comma-separated origin allow-list

	// DatabaseURL selects the durable store. Empty means the in-memory
	// fallback, intended for development only.
	DatabaseURL string

	// RedisURL is optional; when set it enables the unread-badge cache and
	// the background refresh queue. The core contract never depends on it.
	RedisURL         string
	AsynqConcurrency int

	JWTSecret       string
	TokenTTLSeconds int

	MedusaBackendURL     string
	MedusaPublishableKey string

	LogLevel  string
	LogPretty bool
}

// FromEnv builds a Config from the process environment with deployment
// defaults applied.
func FromEnv() Config {
	return Config{
		Port:                 envOr("PORT", "4010"),
		CORSOrigin:           envOr("CORS_ORIGIN", "*"),
		DatabaseURL:          strings.TrimSpace(os.Getenv("CHAT_DATABASE_URL")),
		RedisURL:             strings.TrimSpace(os.Getenv("REDIS_URL")),
		AsynqConcurrency:     envInt("ASYNQ_CONCURRENCY", 10),
		JWTSecret:            envOr("CHAT_JWT_SECRET", envOr("JWT_SECRET", "supersecret")),
		TokenTTLSeconds:      envInt("CHAT_TOKEN_TTL_SECONDS", 300),
		MedusaBackendURL:     strings.TrimRight(os.Getenv("MEDUSA_BACKEND_URL"), "/"),
		MedusaPublishableKey: os.Getenv("MEDUSA_PUBLISHABLE_KEY"),
		LogLevel:             envOr("LOG_LEVEL", "info"),
		LogPretty:            envBool("LOG_PRETTY", false),
	}
}

// AllowedOrigins splits the CORS_ORIGIN list. Returns nil for the wildcard.
func (c Config) AllowedOrigins() []string {
	if c.CORSOrigin == "*" {
		return nil
	}
	var out []string
	for _, o := range strings.Split(c.CORSOrigin, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			return i
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
