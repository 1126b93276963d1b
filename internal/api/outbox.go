package api

import (
	"net/http"

	"github.com/jackc/pgx/v5"

	"github.com/riskhub/platform-core/internal/store"
	"github.com/riskhub/platform-core/internal/tenant"
)

type OutboxHandler struct {
	store *store.PostgresStore
}

func NewOutboxHandler(s *store.PostgresStore) *OutboxHandler {
	return &OutboxHandler{store: s}
}

type outboxStatsResponse struct {
	TenantID    string `json:"tenant_id"`
	Unpublished int64  `json:"unpublished"`
}

// Stats reports the tenant's unpublished backlog depth.
func (h *OutboxHandler) Stats(w http.ResponseWriter, r *http.Request) {
	rc := tenant.FromContext(r.Context())

	var n int64
	err := h.store.InTenantTx(r.Context(), func(tx pgx.Tx) error {
		var err error
		n, err = h.store.CountUnpublished(r.Context(), tx, rc.TenantID)
		return err
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to count unpublished messages")
		return
	}

	respondJSON(w, http.StatusOK, outboxStatsResponse{
		TenantID:    rc.TenantID,
		Unpublished: n,
	})
}
