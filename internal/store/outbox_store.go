package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/riskhub/platform-core/internal/domain"
)

// InsertOutboxMessage appends an unpublished message. It takes a Querier so
// the insert lands in the caller's transaction: the message is recorded if
// and only if the mutation it reports commits.
func (s *PostgresStore) InsertOutboxMessage(ctx context.Context, q Querier, tenantID, topic string, payload []byte) (*domain.OutboxMessage, error) {
	var msg domain.OutboxMessage
	err := q.QueryRow(ctx, `
		INSERT INTO outbox_messages (tenant_id, topic, payload)
		VALUES ($1, $2, $3)
		RETURNING id, tenant_id, topic, payload, created_at
	`, tenantID, topic, payload).Scan(
		&msg.ID, &msg.TenantID, &msg.Topic, &msg.Payload, &msg.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting outbox message: %w", err)
	}
	return &msg, nil
}

// OutboxBatch is a claimed set of unpublished messages, locked for the
// lifetime of one publisher transaction. Rolling back releases the locks and
// makes the rows visible to the next poll cycle.
type OutboxBatch struct {
	tx       pgx.Tx
	messages []domain.OutboxMessage
}

func (b *OutboxBatch) Messages() []domain.OutboxMessage {
	return b.messages
}

// MarkPublished terminally flags one claimed row. The published_at guard
// keeps the flag set-once even if a cycle is replayed.
func (b *OutboxBatch) MarkPublished(ctx context.Context, id string, at time.Time) error {
	_, err := b.tx.Exec(ctx, `
		UPDATE outbox_messages SET published_at = $2
		WHERE id = $1 AND published_at IS NULL
	`, id, at)
	if err != nil {
		return fmt.Errorf("marking message %s published: %w", id, err)
	}
	return nil
}

func (b *OutboxBatch) Commit(ctx context.Context) error {
	return b.tx.Commit(ctx)
}

func (b *OutboxBatch) Rollback(ctx context.Context) error {
	return b.tx.Rollback(ctx)
}

// ClaimOutboxBatch locks up to limit unpublished messages in creation order,
// skipping rows already locked by a concurrent publisher replica. Replicas
// partition the backlog through SKIP LOCKED alone; no leader election.
func (s *PostgresStore) ClaimOutboxBatch(ctx context.Context, limit int) (*OutboxBatch, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning claim transaction: %w", err)
	}

	rows, err := tx.Query(ctx, `
		SELECT id, tenant_id, topic, payload, created_at
		FROM outbox_messages
		WHERE published_at IS NULL
		ORDER BY created_at, id
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, limit)
	if err != nil {
		tx.Rollback(ctx)
		return nil, fmt.Errorf("claiming outbox messages: %w", err)
	}
	defer rows.Close()

	var messages []domain.OutboxMessage
	for rows.Next() {
		var msg domain.OutboxMessage
		if err := rows.Scan(&msg.ID, &msg.TenantID, &msg.Topic, &msg.Payload, &msg.CreatedAt); err != nil {
			tx.Rollback(ctx)
			return nil, fmt.Errorf("scanning outbox message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		tx.Rollback(ctx)
		return nil, fmt.Errorf("reading outbox messages: %w", err)
	}

	return &OutboxBatch{tx: tx, messages: messages}, nil
}

// CountUnpublished returns the tenant's outbox backlog depth.
func (s *PostgresStore) CountUnpublished(ctx context.Context, q Querier, tenantID string) (int64, error) {
	var n int64
	err := q.QueryRow(ctx, `
		SELECT COUNT(*) FROM outbox_messages
		WHERE tenant_id = $1 AND published_at IS NULL
	`, tenantID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting unpublished messages: %w", err)
	}
	return n, nil
}
