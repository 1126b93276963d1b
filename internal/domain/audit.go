package domain

import (
	"encoding/json"
	"time"
)

// AuditEvent is an append-only record of who did what to which entity.
type AuditEvent struct {
	ID          string          `json:"id"`
	TenantID    string          `json:"tenant_id"`
	ActorUserID *string         `json:"actor_user_id,omitempty"`
	Action      string          `json:"action"`
	TargetType  string          `json:"target_type"`
	TargetID    string          `json:"target_id"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	OccurredAt  time.Time       `json:"occurred_at"`
}
