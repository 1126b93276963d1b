package tenant

import (
	"strings"
)

// ParseSubdomain extracts the tenant slug from an HTTP Host header.
//
// The match is case-insensitive and ignores a trailing :port. The bare base
// domain carries no tenant, and a host that is not a subdomain of baseDomain
// never yields a slug: unmatched hosts must not resolve to a tenant.
func ParseSubdomain(host, baseDomain string) (string, bool) {
	host = strings.ToLower(strings.TrimSpace(host))
	baseDomain = strings.ToLower(strings.TrimSpace(baseDomain))
	if host == "" || baseDomain == "" {
		return "", false
	}

	// Remove port if present
	if idx := strings.LastIndex(host, ":"); idx != -1 {
		host = host[:idx]
	}

	if host == baseDomain {
		return "", false
	}

	suffix := "." + baseDomain
	if !strings.HasSuffix(host, suffix) {
		return "", false
	}

	sub := strings.TrimSuffix(host, suffix)
	if sub == "" {
		return "", false
	}
	return sub, true
}
