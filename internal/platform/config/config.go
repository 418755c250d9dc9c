// Package config builds runtime configuration from environment variables so
// main stays lean.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full service configuration.
type Config struct {
	Addr          string
	JWTSigningKey string

	// PostgresURL empty means in-memory stores, for local development.
	PostgresURL string

	Redis RedisConfig

	// KafkaBrokers empty means drawn-round events stay in the outbox.
	KafkaBrokers []string

	SweepInterval   time.Duration
	RelayInterval   time.Duration
	StatusCacheTTL  time.Duration
	ShutdownTimeout time.Duration
}

// RedisConfig carries connection tuning for the status cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Config from environment variables, applying development
// defaults for everything but secrets.
func FromEnv() Config {
	return Config{
		Addr:          envStr("DRAWCORE_ADDR", ":8080"),
		JWTSigningKey: envStr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		PostgresURL:   os.Getenv("DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDur("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDur("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDur("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		KafkaBrokers:    envList("KAFKA_BROKERS"),
		SweepInterval:   envDur("DRAWCORE_SWEEP_INTERVAL", 5*time.Second),
		RelayInterval:   envDur("DRAWCORE_RELAY_INTERVAL", 2*time.Second),
		StatusCacheTTL:  envDur("DRAWCORE_STATUS_CACHE_TTL", 5*time.Second),
		ShutdownTimeout: envDur("DRAWCORE_SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDur(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
