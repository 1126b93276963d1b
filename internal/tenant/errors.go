package tenant

import "errors"

var (
	// ErrMissingTenant is returned when a tenant-dependent operation runs
	// with no tenant bound to the request context.
	ErrMissingTenant = errors.New("no tenant bound to request context")

	// ErrUnauthorizedTenant is returned when a subdomain or API key does
	// not map to a known, active tenant.
	ErrUnauthorizedTenant = errors.New("request does not map to a known tenant")

	// ErrTenantNotFound is returned by providers when no tenant matches
	// the given identifier.
	ErrTenantNotFound = errors.New("tenant not found")
)
