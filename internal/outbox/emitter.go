// Package outbox implements the transactional outbox: domain writes enqueue
// a message in the same transaction, and an independent publisher loop
// delivers the backlog at-least-once.
package outbox

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/riskhub/platform-core/internal/domain"
	"github.com/riskhub/platform-core/internal/store"
	"github.com/riskhub/platform-core/internal/tenant"
)

type EmitterStore interface {
	InsertOutboxMessage(ctx context.Context, q store.Querier, tenantID, topic string, payload []byte) (*domain.OutboxMessage, error)
}

type Emitter struct {
	store EmitterStore
}

func NewEmitter(s EmitterStore) *Emitter {
	return &Emitter{store: s}
}

// Emit enqueues one unpublished message for the tenant bound to the request
// context. Pass the caller's transaction as q: the message is recorded if
// and only if the triggering mutation commits. Fails closed without a tenant.
func (e *Emitter) Emit(ctx context.Context, q store.Querier, topic string, payload any) (*domain.OutboxMessage, error) {
	rc := tenant.FromContext(ctx)
	if rc.TenantID == "" {
		return nil, tenant.ErrMissingTenant
	}
	if topic == "" {
		return nil, fmt.Errorf("outbox message requires a topic")
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling outbox payload: %w", err)
	}

	return e.store.InsertOutboxMessage(ctx, q, rc.TenantID, topic, payloadBytes)
}
