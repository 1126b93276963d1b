package tenant

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/riskhub/platform-core/internal/domain"
)

type fakeProvider struct {
	tenants map[string]*domain.Tenant
}

func (p *fakeProvider) GetBySlug(ctx context.Context, slug string) (*domain.Tenant, error) {
	t, ok := p.tenants[slug]
	if !ok {
		return nil, ErrTenantNotFound
	}
	return t, nil
}

type fakeKeyAuth struct {
	keys map[string]*domain.Tenant
}

func (a *fakeKeyAuth) AuthenticateKey(ctx context.Context, rawKey string) (*domain.Tenant, string, error) {
	t, ok := a.keys[rawKey]
	if !ok {
		return nil, "", ErrUnauthorizedTenant
	}
	return t, "user-42", nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testProvider() *fakeProvider {
	return &fakeProvider{tenants: map[string]*domain.Tenant{
		"demo":     {ID: "tenant-1", Slug: "demo", Active: true},
		"inactive": {ID: "tenant-2", Slug: "inactive", Active: false},
	}}
}

func TestMiddleware_BindsTenantFromSubdomain(t *testing.T) {
	var seen RequestContext
	handler := Middleware("risk-hub.de", testProvider(), testLogger())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = FromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		}),
	)

	req := httptest.NewRequest(http.MethodGet, "http://demo.risk-hub.de/api/v1/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusOK)
	}
	if seen.TenantID != "tenant-1" || seen.TenantSlug != "demo" {
		t.Errorf("tenant not bound: %+v", seen)
	}
	if seen.RequestID == "" {
		t.Error("request id should be stamped")
	}
}

func TestMiddleware_UnknownSubdomainForbidden(t *testing.T) {
	called := false
	handler := Middleware("risk-hub.de", testProvider(), testLogger())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}),
	)

	req := httptest.NewRequest(http.MethodGet, "http://nosuch.risk-hub.de/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusForbidden)
	}
	if called {
		t.Error("handler should not run for unknown tenants")
	}
}

func TestMiddleware_InactiveTenantForbidden(t *testing.T) {
	handler := Middleware("risk-hub.de", testProvider(), testLogger())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}),
	)

	req := httptest.NewRequest(http.MethodGet, "http://inactive.risk-hub.de/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestMiddleware_BaseDomainPassesWithoutTenant(t *testing.T) {
	var seen RequestContext
	handler := Middleware("risk-hub.de", testProvider(), testLogger())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = FromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		}),
	)

	req := httptest.NewRequest(http.MethodGet, "http://risk-hub.de/api/v1/tenants", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusOK)
	}
	if seen.TenantID != "" {
		t.Errorf("base domain must not bind a tenant, got %q", seen.TenantID)
	}
}

func TestMiddleware_ClearsContextAfterResponse(t *testing.T) {
	var captured context.Context
	handler := Middleware("risk-hub.de", testProvider(), testLogger())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			captured = r.Context()
		}),
	)

	req := httptest.NewRequest(http.MethodGet, "http://demo.risk-hub.de/", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if rc := FromContext(captured); rc != (RequestContext{}) {
		t.Errorf("context must be cleared after the response, got %+v", rc)
	}
}

func TestMiddleware_ClearsContextOnPanic(t *testing.T) {
	var captured context.Context
	handler := Middleware("risk-hub.de", testProvider(), testLogger())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			captured = r.Context()
			panic("handler exploded")
		}),
	)

	req := httptest.NewRequest(http.MethodGet, "http://demo.risk-hub.de/", nil)
	func() {
		defer func() { recover() }()
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}()

	if rc := FromContext(captured); rc != (RequestContext{}) {
		t.Errorf("context must be cleared even on panic, got %+v", rc)
	}
}

func TestAPIKeyAuth_BindsTenantAndUser(t *testing.T) {
	auth := &fakeKeyAuth{keys: map[string]*domain.Tenant{
		"rk_valid": {ID: "tenant-3", Slug: "apionly", Active: true},
	}}

	var seen RequestContext
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := Middleware("risk-hub.de", testProvider(), testLogger())(
		APIKeyAuth(auth, testLogger())(inner),
	)

	req := httptest.NewRequest(http.MethodGet, "http://risk-hub.de/", nil)
	req.Header.Set("Authorization", "Bearer rk_valid")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusOK)
	}
	if seen.TenantID != "tenant-3" {
		t.Errorf("tenant not bound from api key: %+v", seen)
	}
	if seen.UserID != "user-42" {
		t.Errorf("user not bound from api key: %+v", seen)
	}
}

func TestAPIKeyAuth_InvalidKeyForbidden(t *testing.T) {
	auth := &fakeKeyAuth{keys: map[string]*domain.Tenant{}}

	handler := Middleware("risk-hub.de", testProvider(), testLogger())(
		APIKeyAuth(auth, testLogger())(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}),
		),
	)

	req := httptest.NewRequest(http.MethodGet, "http://risk-hub.de/", nil)
	req.Header.Set("Authorization", "Bearer rk_bogus")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestAPIKeyAuth_NoTokenPassesThrough(t *testing.T) {
	auth := &fakeKeyAuth{keys: map[string]*domain.Tenant{}}

	called := false
	handler := Middleware("risk-hub.de", testProvider(), testLogger())(
		APIKeyAuth(auth, testLogger())(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}),
		),
	)

	req := httptest.NewRequest(http.MethodGet, "http://risk-hub.de/", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if !called {
		t.Error("request without a token should pass through")
	}
}

func TestRequireTenant(t *testing.T) {
	called := false
	guarded := RequireTenant(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	// No tenant bound
	req := httptest.NewRequest(http.MethodGet, "http://risk-hub.de/", nil)
	req = req.WithContext(NewContext(req.Context()))
	rec := httptest.NewRecorder()
	guarded.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status without tenant: got %d, want %d", rec.Code, http.StatusForbidden)
	}
	if called {
		t.Fatal("handler must not run without a tenant")
	}

	// Tenant bound
	ctx := NewContext(context.Background())
	SetTenant(ctx, "tenant-1", "demo")
	req = httptest.NewRequest(http.MethodGet, "http://demo.risk-hub.de/", nil).WithContext(ctx)
	rec = httptest.NewRecorder()
	guarded.ServeHTTP(rec, req)

	if !called {
		t.Error("handler should run with a tenant bound")
	}
}

func TestRequireBaseDomain(t *testing.T) {
	called := false
	guarded := RequireBaseDomain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	ctx := NewContext(context.Background())
	SetTenant(ctx, "tenant-1", "demo")
	req := httptest.NewRequest(http.MethodPost, "http://demo.risk-hub.de/api/v1/tenants", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	guarded.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status on subdomain: got %d, want %d", rec.Code, http.StatusForbidden)
	}
	if called {
		t.Error("provisioning must not run on tenant subdomains")
	}
}
