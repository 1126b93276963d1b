package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/riskhub/platform-core/internal/domain"
	"github.com/riskhub/platform-core/internal/store"
)

// Batch is one claimed set of unpublished messages tied to a transaction.
type Batch interface {
	Messages() []domain.OutboxMessage
	MarkPublished(ctx context.Context, id string, at time.Time) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Claimer locks a bounded batch of unpublished messages for one publisher
// transaction.
type Claimer interface {
	ClaimOutboxBatch(ctx context.Context, limit int) (*store.OutboxBatch, error)
}

// claimerAdapter narrows *store.OutboxBatch to the Batch interface so the
// cycle logic can be exercised against fakes.
type claimerAdapter struct {
	claimer Claimer
}

func (a claimerAdapter) claim(ctx context.Context, limit int) (Batch, error) {
	b, err := a.claimer.ClaimOutboxBatch(ctx, limit)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Publisher continuously polls the outbox and delivers unpublished messages
// to the sink. Several replicas may run concurrently: skip-locked claims
// partition the backlog, so no replica blocks or double-publishes.
type Publisher struct {
	claim        func(ctx context.Context, limit int) (Batch, error)
	sink         Sink
	breaker      *Breaker
	logger       *slog.Logger
	metrics      *Metrics
	pollInterval time.Duration
	batchSize    int
}

func NewPublisher(claimer Claimer, sink Sink, breaker *Breaker, logger *slog.Logger, metrics *Metrics, pollInterval time.Duration, batchSize int) *Publisher {
	return &Publisher{
		claim:        claimerAdapter{claimer: claimer}.claim,
		sink:         sink,
		breaker:      breaker,
		logger:       logger,
		metrics:      metrics,
		pollInterval: pollInterval,
		batchSize:    batchSize,
	}
}

// Start begins the polling loop. It runs until the context is cancelled and
// never exits on a delivery failure.
func (p *Publisher) Start(ctx context.Context) {
	p.logger.Info("outbox publisher started",
		"poll_interval", p.pollInterval.String(),
		"batch_size", p.batchSize,
	)

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("outbox publisher stopping")
			return
		case <-ticker.C:
			p.cycle(ctx)
		}
	}
}

// cycle claims one batch, publishes in creation order and marks only the
// successes. The commit at the end durably flips published_at for delivered
// rows; failed rows keep published_at null and are retried next poll. A
// crash before commit rolls the claim back, releasing the locks.
func (p *Publisher) cycle(ctx context.Context) {
	if p.breaker != nil && !p.breaker.Allow(ctx) {
		return
	}

	start := time.Now()

	batch, err := p.claim(ctx, p.batchSize)
	if err != nil {
		p.logger.Error("failed to claim outbox batch", "error", err)
		return
	}
	defer batch.Rollback(ctx)

	msgs := batch.Messages()
	if len(msgs) == 0 {
		batch.Commit(ctx)
		return
	}

	now := time.Now().UTC()
	published := 0
	// Once a tenant's message fails, its later messages are held back this
	// cycle to preserve per-tenant creation order across retries.
	failedTenants := make(map[string]bool)

	for _, msg := range msgs {
		if failedTenants[msg.TenantID] {
			continue
		}

		if err := p.sink.Publish(ctx, msg); err != nil {
			failedTenants[msg.TenantID] = true
			if p.breaker != nil {
				p.breaker.RecordFailure(ctx)
			}
			if p.metrics != nil {
				p.metrics.IncPublishFailures()
			}
			p.logger.Warn("publish failed, message will be retried",
				"message_id", msg.ID,
				"tenant_id", msg.TenantID,
				"topic", msg.Topic,
				"error", err,
			)
			continue
		}

		if p.breaker != nil {
			p.breaker.RecordSuccess(ctx)
		}

		if err := batch.MarkPublished(ctx, msg.ID, now); err != nil {
			// A failed UPDATE aborts the postgres transaction; nothing in
			// this batch can be marked anymore. Roll back and retry the
			// whole batch next cycle; at-least-once allows the duplicates.
			p.logger.Error("failed to mark message published, rolling back batch",
				"message_id", msg.ID,
				"error", err,
			)
			return
		}

		published++
		if p.metrics != nil {
			p.metrics.IncPublished()
		}
	}

	if err := batch.Commit(ctx); err != nil {
		p.logger.Error("failed to commit outbox batch", "error", err)
		return
	}

	if p.metrics != nil {
		p.metrics.ObserveCycleDuration(time.Since(start).Seconds())
	}

	p.logger.Info("outbox cycle complete",
		"claimed", len(msgs),
		"published", published,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
}
