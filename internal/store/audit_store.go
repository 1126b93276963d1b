package store

import (
	"context"
	"fmt"
	"time"

	"github.com/riskhub/platform-core/internal/domain"
)

// AuditEventRecord holds data for inserting an audit event.
type AuditEventRecord struct {
	TenantID    string
	ActorUserID *string
	Action      string
	TargetType  string
	TargetID    string
	Payload     []byte
	OccurredAt  time.Time
}

// InsertAuditEvent appends one audit event, within the caller's transaction
// when q is a pgx.Tx. Audit rows are append-only; nothing in this layer
// updates or deletes them.
func (s *PostgresStore) InsertAuditEvent(ctx context.Context, q Querier, rec AuditEventRecord) (*domain.AuditEvent, error) {
	var payload any
	if len(rec.Payload) > 0 {
		payload = rec.Payload
	}

	var ev domain.AuditEvent
	err := q.QueryRow(ctx, `
		INSERT INTO audit_events (tenant_id, actor_user_id, action, target_type, target_id, payload, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, tenant_id, actor_user_id, action, target_type, target_id, payload, occurred_at
	`, rec.TenantID, rec.ActorUserID, rec.Action, rec.TargetType, rec.TargetID, payload, rec.OccurredAt).Scan(
		&ev.ID, &ev.TenantID, &ev.ActorUserID, &ev.Action, &ev.TargetType, &ev.TargetID, &ev.Payload, &ev.OccurredAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting audit event: %w", err)
	}
	return &ev, nil
}

// ListAuditEvents returns a tenant's audit trail, newest first. The explicit
// tenant filter duplicates what the row-level-security policy enforces; the
// policy is the backstop, not the only line.
func (s *PostgresStore) ListAuditEvents(ctx context.Context, q Querier, tenantID, action string, limit int) ([]domain.AuditEvent, error) {
	query := `
		SELECT id, tenant_id, actor_user_id, action, target_type, target_id, payload, occurred_at
		FROM audit_events
		WHERE tenant_id = $1`
	args := []any{tenantID}
	argIdx := 2

	if action != "" {
		query += fmt.Sprintf(" AND action = $%d", argIdx)
		args = append(args, action)
		argIdx++
	}

	query += " ORDER BY occurred_at DESC, id DESC"

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, limit)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying audit events: %w", err)
	}
	defer rows.Close()

	var events []domain.AuditEvent
	for rows.Next() {
		var ev domain.AuditEvent
		err := rows.Scan(&ev.ID, &ev.TenantID, &ev.ActorUserID, &ev.Action, &ev.TargetType, &ev.TargetID, &ev.Payload, &ev.OccurredAt)
		if err != nil {
			return nil, fmt.Errorf("scanning audit event: %w", err)
		}
		events = append(events, ev)
	}

	if events == nil {
		events = []domain.AuditEvent{}
	}
	return events, nil
}
