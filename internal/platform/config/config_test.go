package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Empty(t, cfg.PostgresURL, "no DATABASE_URL means in-memory stores")
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, 5*time.Second, cfg.SweepInterval)
	assert.Equal(t, 2*time.Second, cfg.RelayInterval)
	assert.Equal(t, 10, cfg.Redis.PoolSize)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("DRAWCORE_ADDR", ":9999")
	t.Setenv("DATABASE_URL", "postgres://localhost/drawcore")
	t.Setenv("KAFKA_BROKERS", "broker-a:9092, broker-b:9092,")
	t.Setenv("DRAWCORE_SWEEP_INTERVAL", "250ms")
	t.Setenv("REDIS_POOL_SIZE", "32")

	cfg := FromEnv()

	assert.Equal(t, ":9999", cfg.Addr)
	assert.Equal(t, "postgres://localhost/drawcore", cfg.PostgresURL)
	assert.Equal(t, []string{"broker-a:9092", "broker-b:9092"}, cfg.KafkaBrokers, "list is trimmed and blanks dropped")
	assert.Equal(t, 250*time.Millisecond, cfg.SweepInterval)
	assert.Equal(t, 32, cfg.Redis.PoolSize)
}

func TestFromEnvIgnoresMalformedValues(t *testing.T) {
	t.Setenv("DRAWCORE_SWEEP_INTERVAL", "soon")
	t.Setenv("REDIS_POOL_SIZE", "lots")

	cfg := FromEnv()

	assert.Equal(t, 5*time.Second, cfg.SweepInterval)
	assert.Equal(t, 10, cfg.Redis.PoolSize)
}
