package tenant

import (
	"context"
	"sync"
)

// RequestContext carries the tenant and identity bound to one inbound
// request or background task. Fields default to empty; callers that require
// a tenant must reject the empty value themselves (fail-closed).
type RequestContext struct {
	TenantID   string
	TenantSlug string
	UserID     string
	RequestID  string
}

// contextKey is a private type to prevent collisions with other context keys.
type contextKey struct{}

// holder wraps the per-request state behind a pointer so that layers running
// after the context is installed (authentication, handlers) can fill fields
// without re-threading a new context through the middleware chain.
type holder struct {
	mu sync.Mutex
	rc RequestContext
}

// NewContext installs a fresh, empty RequestContext. Exactly one holder is
// live per request; it is never shared across requests.
func NewContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, &holder{})
}

// FromContext returns a snapshot of the current RequestContext. It never
// fails: without an installed context it returns the zero value.
func FromContext(ctx context.Context) RequestContext {
	h, ok := ctx.Value(contextKey{}).(*holder)
	if !ok {
		return RequestContext{}
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rc
}

// SetTenant binds the tenant for the current request. Returns false if no
// RequestContext is installed.
func SetTenant(ctx context.Context, tenantID, tenantSlug string) bool {
	h, ok := ctx.Value(contextKey{}).(*holder)
	if !ok {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.rc.TenantID = tenantID
	h.rc.TenantSlug = tenantSlug
	return true
}

// SetUser records the authenticated user for the current request.
func SetUser(ctx context.Context, userID string) bool {
	h, ok := ctx.Value(contextKey{}).(*holder)
	if !ok {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.rc.UserID = userID
	return true
}

// SetRequestID records the correlation id for the current request.
func SetRequestID(ctx context.Context, requestID string) bool {
	h, ok := ctx.Value(contextKey{}).(*holder)
	if !ok {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.rc.RequestID = requestID
	return true
}

// Clear resets all fields. Middleware must call it on every exit path so a
// reused goroutine never observes a previous request's tenant.
func Clear(ctx context.Context) {
	h, ok := ctx.Value(contextKey{}).(*holder)
	if !ok {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.rc = RequestContext{}
}
