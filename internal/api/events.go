package api

import (
	"encoding/json"
	"net/http"

	"github.com/jackc/pgx/v5"

	"github.com/riskhub/platform-core/internal/audit"
	"github.com/riskhub/platform-core/internal/outbox"
	"github.com/riskhub/platform-core/internal/store"
)

type EventHandler struct {
	store  *store.PostgresStore
	outbox *outbox.Emitter
	audit  *audit.Emitter
}

func NewEventHandler(s *store.PostgresStore, o *outbox.Emitter, a *audit.Emitter) *EventHandler {
	return &EventHandler{store: s, outbox: o, audit: a}
}

type publishEventRequest struct {
	Topic      string          `json:"topic"`
	Payload    json.RawMessage `json:"payload"`
	Action     string          `json:"action,omitempty"`
	TargetType string          `json:"target_type,omitempty"`
	TargetID   string          `json:"target_id,omitempty"`
}

type publishEventResponse struct {
	MessageID    string `json:"message_id"`
	Topic        string `json:"topic"`
	AuditEventID string `json:"audit_event_id"`
}

// Publish records an outbox message and its audit event in one tenant-bound
// transaction. Either both land or neither does; the publisher loop picks
// the message up asynchronously.
func (h *EventHandler) Publish(w http.ResponseWriter, r *http.Request) {
	var req publishEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Topic == "" {
		respondError(w, http.StatusBadRequest, "topic is required")
		return
	}
	if len(req.Payload) == 0 {
		respondError(w, http.StatusBadRequest, "payload is required")
		return
	}
	if !json.Valid(req.Payload) {
		respondError(w, http.StatusBadRequest, "payload must be valid JSON")
		return
	}

	action := req.Action
	if action == "" {
		action = "event.published"
	}

	var resp publishEventResponse
	err := h.store.InTenantTx(r.Context(), func(tx pgx.Tx) error {
		msg, err := h.outbox.Emit(r.Context(), tx, req.Topic, req.Payload)
		if err != nil {
			return err
		}

		ev, err := h.audit.Emit(r.Context(), tx, action, req.TargetType, req.TargetID, req.Payload)
		if err != nil {
			return err
		}

		resp = publishEventResponse{
			MessageID:    msg.ID,
			Topic:        msg.Topic,
			AuditEventID: ev.ID,
		}
		return nil
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to record event")
		return
	}

	respondJSON(w, http.StatusCreated, resp)
}
