package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	Port             string
	DatabaseURL      string
	RedisURL         string
	BaseDomain       string
	OutboxPollEvery  time.Duration
	OutboxBatchSize  int
	OutboxStream     string
	PublisherEnabled bool
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	port := getEnv("PORT", "8080")
	dbURL := getEnv("DATABASE_URL", "")
	redisURL := getEnv("REDIS_URL", "")
	baseDomain := getEnv("BASE_DOMAIN", "localhost")
	pollEvery := getEnvDuration("OUTBOX_POLL_INTERVAL", time.Second)
	batchSize := getEnvInt("OUTBOX_BATCH_SIZE", 50)
	stream := getEnv("OUTBOX_STREAM", "riskhub.events")
	publisherEnabled := getEnv("PUBLISHER_ENABLED", "true") != "false"

	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if redisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}
	if batchSize < 1 {
		return nil, fmt.Errorf("OUTBOX_BATCH_SIZE must be at least 1")
	}

	return &Config{
		Port:             port,
		DatabaseURL:      dbURL,
		RedisURL:         redisURL,
		BaseDomain:       baseDomain,
		OutboxPollEvery:  pollEvery,
		OutboxBatchSize:  batchSize,
		OutboxStream:     stream,
		PublisherEnabled: publisherEnabled,
	}, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err == nil {
			return d
		}
	}
	return fallback
}
