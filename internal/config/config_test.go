package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "3000", cfg.AppPort)
	assert.Equal(t, "9090", cfg.MetricsPort)
	assert.Equal(t, time.Second, cfg.PollInterval)
	assert.Equal(t, 10, cfg.BatchSize)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, time.Second, cfg.RetryBackoff)
	assert.Equal(t, 10*time.Second, cfg.MetricsInterval)
	assert.Equal(t, 0.85, cfg.PaymentSuccessRate)
	assert.Equal(t, 0.0, cfg.PaymentTransientRate)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "8081")
	t.Setenv("BROKER_ADDR", "localhost:19092")
	t.Setenv("POLL_INTERVAL_MS", "250")
	t.Setenv("BATCH_SIZE", "50")
	t.Setenv("MAX_RETRIES", "5")
	t.Setenv("RETRY_BACKOFF_MS", "100")
	t.Setenv("PAYMENT_SUCCESS_RATE", "0.5")

	cfg := Load()

	assert.Equal(t, "8081", cfg.AppPort)
	assert.Equal(t, "localhost:19092", cfg.BrokerAddr)
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, 100*time.Millisecond, cfg.RetryBackoff)
	assert.Equal(t, 0.5, cfg.PaymentSuccessRate)
}

func TestLoadIgnoresGarbage(t *testing.T) {
	t.Setenv("BATCH_SIZE", "many")
	t.Setenv("MAX_RETRIES", "-2")
	t.Setenv("PAYMENT_SUCCESS_RATE", "1.7")

	cfg := Load()

	assert.Equal(t, 10, cfg.BatchSize)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 0.85, cfg.PaymentSuccessRate)
}
