// The publisher binary runs a standalone outbox publisher replica. Any
// number of replicas can poll the same database: skip-locked claims
// partition the unpublished backlog without coordination.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/riskhub/platform-core/internal/config"
	"github.com/riskhub/platform-core/internal/outbox"
	"github.com/riskhub/platform-core/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgStore, err := store.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer pgStore.Close()
	logger.Info("connected to PostgreSQL")

	redisStore, err := store.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisStore.Close()
	logger.Info("connected to Redis")

	registry := prometheus.NewRegistry()

	sink := outbox.NewRedisStreamSink(redisStore.Client(), cfg.OutboxStream)
	breaker := outbox.NewBreaker(redisStore.Client(), logger)
	publisher := outbox.NewPublisher(
		pgStore, sink, breaker, logger,
		outbox.NewMetrics(registry),
		cfg.OutboxPollEvery, cfg.OutboxBatchSize,
	)

	publisher.Start(ctx)
	logger.Info("publisher stopped")
}
