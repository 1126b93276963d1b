// Package audit records who did what, attributable to a tenant, inside the
// transaction of the operation being described. Emission is fail-closed: an
// audit event that cannot be attributed or persisted fails the caller's
// operation rather than being dropped.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/riskhub/platform-core/internal/domain"
	"github.com/riskhub/platform-core/internal/store"
	"github.com/riskhub/platform-core/internal/tenant"
)

type Store interface {
	InsertAuditEvent(ctx context.Context, q store.Querier, rec store.AuditEventRecord) (*domain.AuditEvent, error)
}

type Emitter struct {
	store   Store
	metrics *Metrics
}

func NewEmitter(s Store, m *Metrics) *Emitter {
	return &Emitter{store: s, metrics: m}
}

// Emit appends one audit event using the tenant and user bound to the
// request context. Pass the caller's transaction as q so the audit record
// and the action it describes commit or roll back atomically. No retries:
// a failed append propagates so audit loss is visible.
func (e *Emitter) Emit(ctx context.Context, q store.Querier, action, targetType, targetID string, payload any) (*domain.AuditEvent, error) {
	rc := tenant.FromContext(ctx)
	if rc.TenantID == "" {
		return nil, tenant.ErrMissingTenant
	}
	if action == "" {
		return nil, fmt.Errorf("audit event requires an action")
	}

	var payloadBytes []byte
	if payload != nil {
		var err error
		payloadBytes, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshaling audit payload: %w", err)
		}
	}

	var actor *string
	if rc.UserID != "" {
		actor = &rc.UserID
	}

	ev, err := e.store.InsertAuditEvent(ctx, q, store.AuditEventRecord{
		TenantID:    rc.TenantID,
		ActorUserID: actor,
		Action:      action,
		TargetType:  targetType,
		TargetID:    targetID,
		Payload:     payloadBytes,
		OccurredAt:  time.Now().UTC(),
	})
	if err != nil {
		if e.metrics != nil {
			e.metrics.IncAppendFailures()
		}
		return nil, err
	}

	if e.metrics != nil {
		e.metrics.IncEventsEmitted()
	}
	return ev, nil
}
