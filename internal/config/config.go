// Package config loads all service connection settings from environment
// variables, with sane defaults for local development. A .env file in the
// working directory is honored when present. No secrets are ever hardcoded.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// PostgreSQL
	PostgresDSN string

	// Kafka
	BrokerAddr string

	// Redis (terminal-order cache)
	RedisAddr string

	// HTTP
	AppPort     string
	MetricsPort string

	// Outbox relay
	PollInterval time.Duration
	BatchSize    int

	// Event worker
	MaxRetries      int
	RetryBackoff    time.Duration
	MetricsInterval time.Duration

	// Mock payment provider
	PaymentSuccessRate   float64
	PaymentTransientRate float64
}

// Load reads environment variables and returns a populated Config.
// Each variable has a default that matches the docker-compose service names,
// so the stack works out-of-the-box when started via `docker compose up`.
func Load() *Config {
	// Missing .env is the normal case in containers; only explicit files load.
	_ = godotenv.Load()

	return &Config{
		PostgresDSN:          getEnv("DB_DSN", "user=postgres password=secret dbname=orders sslmode=disable host=postgres"),
		BrokerAddr:           getEnv("BROKER_ADDR", "kafka:9092"),
		RedisAddr:            getEnv("REDIS_ADDR", "redis:6379"),
		AppPort:              getEnv("APP_PORT", "3000"),
		MetricsPort:          getEnv("METRICS_PORT", "9090"),
		PollInterval:         getEnvMillis("POLL_INTERVAL_MS", 1000),
		BatchSize:            getEnvInt("BATCH_SIZE", 10),
		MaxRetries:           getEnvInt("MAX_RETRIES", 3),
		RetryBackoff:         getEnvMillis("RETRY_BACKOFF_MS", 1000),
		MetricsInterval:      getEnvMillis("METRICS_INTERVAL_MS", 10000),
		PaymentSuccessRate:   getEnvFloat("PAYMENT_SUCCESS_RATE", 0.85),
		PaymentTransientRate: getEnvFloat("PAYMENT_TRANSIENT_RATE", 0),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 && f <= 1 {
			return f
		}
	}
	return fallback
}

func getEnvMillis(key string, fallback int) time.Duration {
	return time.Duration(getEnvInt(key, fallback)) * time.Millisecond
}
