package outbox

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Circuit breaker states
const (
	StateClosed   = "closed"
	StateOpen     = "open"
	StateHalfOpen = "half-open"
)

const breakerKey = "outbox:cb:sink"

// Breaker is a circuit breaker for the publish sink, with state shared in
// Redis so every publisher replica backs off together when the sink is down.
// State transitions: closed → open → half-open → closed
//
// - Closed: Normal operation. Failures are counted.
// - Open: Poll cycles skip claiming. Transitions to half-open after cooldown.
// - Half-Open: One test cycle is allowed. Success → closed, failure → open.
type Breaker struct {
	redisClient      *redis.Client
	logger           *slog.Logger
	failureThreshold int
	cooldownPeriod   time.Duration
}

func NewBreaker(redisClient *redis.Client, logger *slog.Logger) *Breaker {
	return &Breaker{
		redisClient:      redisClient,
		logger:           logger,
		failureThreshold: 5,
		cooldownPeriod:   30 * time.Second,
	}
}

// Allow reports whether the sink may be attempted this cycle.
func (b *Breaker) Allow(ctx context.Context) bool {
	data, err := b.redisClient.HGetAll(ctx, breakerKey).Result()
	if err != nil || len(data) == 0 {
		// No state yet, circuit is closed (default)
		return true
	}

	switch data["state"] {
	case StateOpen:
		lastFailedAt, _ := strconv.ParseInt(data["last_failed_at"], 10, 64)
		if time.Now().Unix()-lastFailedAt >= int64(b.cooldownPeriod.Seconds()) {
			// Transition to half-open: allow one test cycle
			b.redisClient.HSet(ctx, breakerKey, "state", StateHalfOpen)
			b.logger.Info("sink circuit breaker half-open")
			return true
		}
		return false

	default: // StateHalfOpen, StateClosed
		return true
	}
}

// RecordSuccess resets the circuit to closed after a successful publish.
func (b *Breaker) RecordSuccess(ctx context.Context) {
	state, _ := b.redisClient.HGet(ctx, breakerKey, "state").Result()

	b.redisClient.HSet(ctx, breakerKey,
		"state", StateClosed,
		"failures", 0,
	)

	if state == StateHalfOpen {
		b.logger.Info("sink circuit breaker closed (recovered)")
	}
}

// RecordFailure counts a failed publish. Opens the circuit at the threshold.
func (b *Breaker) RecordFailure(ctx context.Context) {
	failures, err := b.redisClient.HIncrBy(ctx, breakerKey, "failures", 1).Result()
	if err != nil {
		b.logger.Error("failed to record sink failure", "error", err)
		return
	}

	b.redisClient.HSet(ctx, breakerKey, "last_failed_at", time.Now().Unix())

	state, _ := b.redisClient.HGet(ctx, breakerKey, "state").Result()

	if state == StateHalfOpen {
		// Half-open test failed → back to open
		b.redisClient.HSet(ctx, breakerKey, "state", StateOpen)
		b.logger.Warn("sink circuit breaker re-opened (half-open test failed)")
	} else if failures >= int64(b.failureThreshold) {
		b.redisClient.HSet(ctx, breakerKey, "state", StateOpen)
		b.logger.Warn("sink circuit breaker opened",
			"failures", failures,
			"threshold", b.failureThreshold,
		)
	} else if state == "" {
		b.redisClient.HSet(ctx, breakerKey, "state", StateClosed)
	}
}
