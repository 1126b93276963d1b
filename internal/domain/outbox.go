package domain

import (
	"encoding/json"
	"time"
)

// OutboxMessage is a domain event recorded in the same transaction as the
// mutation it describes. PublishedAt is null until the publisher delivers
// the message; once set it is never unset.
type OutboxMessage struct {
	ID          string          `json:"id"`
	TenantID    string          `json:"tenant_id"`
	Topic       string          `json:"topic"`
	Payload     json.RawMessage `json:"payload"`
	CreatedAt   time.Time       `json:"created_at"`
	PublishedAt *time.Time      `json:"published_at,omitempty"`
}
