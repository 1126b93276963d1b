package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/riskhub/platform-core/internal/domain"
)

// Provider loads tenant information from a data source.
type Provider interface {
	// GetBySlug retrieves a tenant by its subdomain slug. Returns
	// ErrTenantNotFound if no tenant matches.
	GetBySlug(ctx context.Context, slug string) (*domain.Tenant, error)
}

// KeyAuthenticator resolves a bearer API key to the tenant and user it was
// issued for. Returns ErrUnauthorizedTenant for unknown or revoked keys.
type KeyAuthenticator interface {
	AuthenticateKey(ctx context.Context, rawKey string) (*domain.Tenant, string, error)
}

// Middleware installs a fresh RequestContext on every request, stamps the
// request id and resolves the tenant from the Host subdomain. Requests on
// unknown subdomains are rejected; the bare base domain passes through with
// no tenant bound. The context is cleared on every exit path, including
// panics recovered further up the chain.
func Middleware(baseDomain string, provider Provider, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := NewContext(r.Context())
			defer Clear(ctx)

			reqID := middleware.GetReqID(ctx)
			if reqID == "" {
				reqID = uuid.NewString()
			}
			SetRequestID(ctx, reqID)

			slug, ok := ParseSubdomain(r.Host, baseDomain)
			if ok {
				t, err := provider.GetBySlug(ctx, slug)
				if err != nil {
					if errors.Is(err, ErrTenantNotFound) {
						respondForbidden(w, "unknown tenant")
						return
					}
					logger.Error("tenant lookup failed", "slug", slug, "request_id", reqID, "error", err)
					respondForbidden(w, "tenant could not be resolved")
					return
				}
				if !t.Active {
					respondForbidden(w, "tenant is inactive")
					return
				}
				SetTenant(ctx, t.ID, t.Slug)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// APIKeyAuth resolves an Authorization bearer token to a tenant and user
// when the subdomain did not already bind one. Requests without a token
// pass through untouched; an invalid token is rejected.
func APIKeyAuth(auth KeyAuthenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			rawKey := bearerToken(r)
			if rawKey == "" || FromContext(ctx).TenantID != "" {
				next.ServeHTTP(w, r)
				return
			}

			t, userID, err := auth.AuthenticateKey(ctx, rawKey)
			if err != nil {
				if !errors.Is(err, ErrUnauthorizedTenant) {
					logger.Error("api key lookup failed", "request_id", FromContext(ctx).RequestID, "error", err)
				}
				respondForbidden(w, "invalid API key")
				return
			}
			if !t.Active {
				respondForbidden(w, "tenant is inactive")
				return
			}

			SetTenant(ctx, t.ID, t.Slug)
			if userID != "" {
				SetUser(ctx, userID)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireTenant guards routes that must run with a tenant bound.
func RequireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if FromContext(r.Context()).TenantID == "" {
			respondForbidden(w, "tenant required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireBaseDomain guards provisioning routes that must not run under a
// tenant subdomain.
func RequireBaseDomain(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if FromContext(r.Context()).TenantID != "" {
			respondForbidden(w, "not available on tenant subdomains")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}
	return ""
}

func respondForbidden(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
