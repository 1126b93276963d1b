package outbox

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/riskhub/platform-core/internal/domain"
)

// Sink is the publish side effect. Implementations must be safe for
// sequential reuse across poll cycles; delivery is at-least-once, so
// downstream consumers handle duplicates.
type Sink interface {
	Publish(ctx context.Context, msg domain.OutboxMessage) error
}

// RedisStreamSink appends messages to a Redis stream. Consumers read the
// stream with XREAD/consumer groups; the message id field allows duplicate
// detection downstream.
type RedisStreamSink struct {
	client *redis.Client
	stream string
}

func NewRedisStreamSink(client *redis.Client, stream string) *RedisStreamSink {
	return &RedisStreamSink{client: client, stream: stream}
}

func (s *RedisStreamSink) Publish(ctx context.Context, msg domain.OutboxMessage) error {
	err := s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]any{
			"message_id": msg.ID,
			"tenant_id":  msg.TenantID,
			"topic":      msg.Topic,
			"payload":    string(msg.Payload),
			"created_at": msg.CreatedAt.Format(time.RFC3339Nano),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("appending to stream %s: %w", s.stream, err)
	}
	return nil
}

// LogSink writes messages to the log. Useful for local development and as
// the fallback transport when no broker is configured.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Publish(ctx context.Context, msg domain.OutboxMessage) error {
	s.logger.Info("outbox message published",
		"message_id", msg.ID,
		"tenant_id", msg.TenantID,
		"topic", msg.Topic,
		"payload", string(msg.Payload),
	)
	return nil
}
