package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "memory", cfg.CartBackend)
	assert.Equal(t, "postgres", cfg.OrderLogBackend)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 30*time.Minute, cfg.TokenExpiry)
	assert.Equal(t, 7*24*time.Hour, cfg.CartTTL())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("CART_BACKEND", "redis")
	t.Setenv("ORDER_LOG_BACKEND", "jsonfile")
	t.Setenv("KAFKA_BROKERS", "broker-1:9092,broker-2:9092")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.CartBackend)
	assert.Equal(t, "jsonfile", cfg.OrderLogBackend)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.KafkaBrokers)
}

func TestLoad_RejectsUnknownBackends(t *testing.T) {
	t.Setenv("CART_BACKEND", "etcd")

	_, err := Load()

	assert.Error(t, err)
}

func TestLoad_RejectsNonPositiveCartTTL(t *testing.T) {
	t.Setenv("CART_TTL_HOURS", "0")

	_, err := Load()

	assert.Error(t, err)
}
