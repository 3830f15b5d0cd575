package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is loaded from environment variables at startup.
type Config struct {
	Port           string
	MongoURI       string
	MongoDB        string
	RedisAddr      string // optional; empty disables session event publishing
	RedisChannel   string
	JWTSecret      string
	RequireAuth    bool
	AllowedOrigins []string
	StoreTimeout   time.Duration
	SweepSchedule  string        // cron spec for the stale-session sweeper
	StaleAfter     time.Duration // sessions older than this with no live peers get swept
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnvOrDefault("PORT", "5000"),
		MongoURI:       os.Getenv("MONGO_URI"),
		MongoDB:        getEnvOrDefault("MONGO_DB", "mockinterview"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisChannel:   getEnvOrDefault("REDIS_CHANNEL", "interview:sessions"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		RequireAuth:    getEnvBool("REQUIRE_AUTH", false),
		AllowedOrigins: splitList(getEnvOrDefault("ALLOWED_ORIGINS", "*")),
		StoreTimeout:   getEnvDuration("STORE_TIMEOUT", 5*time.Second),
		SweepSchedule:  getEnvOrDefault("SWEEP_SCHEDULE", "@every 1m"),
		StaleAfter:     getEnvDuration("STALE_AFTER", 2*time.Hour),
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.MongoURI == "" {
		return errors.New("MONGO_URI is required")
	}
	if cfg.RequireAuth && cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET is required when REQUIRE_AUTH is set")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultValue
	}
	return b
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
