package api

import (
	"encoding/json"
	"net/http"
	"regexp"

	"github.com/riskhub/platform-core/internal/store"
)

type TenantHandler struct {
	store *store.PostgresStore
}

func NewTenantHandler(s *store.PostgresStore) *TenantHandler {
	return &TenantHandler{store: s}
}

var slugPattern = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?$`)

type createTenantRequest struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

type createTenantResponse struct {
	ID     string `json:"id"`
	Slug   string `json:"slug"`
	Name   string `json:"name"`
	APIKey string `json:"api_key"`
}

// Create provisions a tenant and returns a one-time API key. The raw key is
// only available in this response; the server keeps its digest.
func (h *TenantHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Slug == "" {
		respondError(w, http.StatusBadRequest, "slug is required")
		return
	}
	if !slugPattern.MatchString(req.Slug) {
		respondError(w, http.StatusBadRequest, "slug must be a valid subdomain label")
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	t, rawKey, err := h.store.CreateTenant(r.Context(), req.Slug, req.Name)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create tenant")
		return
	}

	respondJSON(w, http.StatusCreated, createTenantResponse{
		ID:     t.ID,
		Slug:   t.Slug,
		Name:   t.Name,
		APIKey: rawKey,
	})
}

func (h *TenantHandler) List(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.store.ListTenants(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list tenants")
		return
	}

	respondJSON(w, http.StatusOK, tenants)
}
