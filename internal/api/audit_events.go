package api

import (
	"net/http"
	"strconv"

	"github.com/jackc/pgx/v5"

	"github.com/riskhub/platform-core/internal/domain"
	"github.com/riskhub/platform-core/internal/store"
	"github.com/riskhub/platform-core/internal/tenant"
)

type AuditEventHandler struct {
	store *store.PostgresStore
}

func NewAuditEventHandler(s *store.PostgresStore) *AuditEventHandler {
	return &AuditEventHandler{store: s}
}

func (h *AuditEventHandler) List(w http.ResponseWriter, r *http.Request) {
	action := r.URL.Query().Get("action")
	limitStr := r.URL.Query().Get("limit")

	limit := 50
	if limitStr != "" {
		if n, err := strconv.Atoi(limitStr); err == nil && n > 0 {
			limit = n
		}
	}

	rc := tenant.FromContext(r.Context())

	var events []domain.AuditEvent
	err := h.store.InTenantTx(r.Context(), func(tx pgx.Tx) error {
		var err error
		events, err = h.store.ListAuditEvents(r.Context(), tx, rc.TenantID, action, limit)
		return err
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list audit events")
		return
	}

	respondJSON(w, http.StatusOK, events)
}
