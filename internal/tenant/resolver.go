// Package tenant derives the tenant a request belongs to and maps tenant
// slugs to directory records. Resolution output is advisory: a verified
// credential always overrides it.
package tenant

import (
	"net"
	"net/http"
	"strings"

	"github.com/meridian-saas/meridian/internal/shared"
)

// HeaderTenantID is the explicit tenant hint header, honored only
// pre-authentication.
const HeaderTenantID = "X-Tenant-ID"

// Subdomains that never name a tenant.
var reservedSubdomains = map[string]struct{}{
	"www":       {},
	"api":       {},
	"localhost": {},
}

// Resolve derives a tenant slug from request metadata. Strategy order, first
// match wins: explicit header, host subdomain, /tenant/{slug}/ path segment.
// Falls back to the public sentinel when nothing matches.
func Resolve(r *http.Request) string {
	if slug := strings.TrimSpace(r.Header.Get(HeaderTenantID)); slug != "" {
		return slug
	}
	if slug := fromHost(r.Host); slug != "" {
		return slug
	}
	if slug := fromPath(r.URL.Path); slug != "" {
		return slug
	}
	return shared.PublicTenantSlug
}

func fromHost(host string) string {
	if host == "" {
		return ""
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	labels := strings.Split(host, ".")
	if len(labels) < 2 {
		return ""
	}
	sub := strings.ToLower(labels[0])
	if _, reserved := reservedSubdomains[sub]; reserved || sub == "" {
		return ""
	}
	return sub
}

func fromPath(path string) string {
	const prefix = "/tenant/"
	if !strings.HasPrefix(path, prefix) {
		return ""
	}
	rest := strings.TrimPrefix(path, prefix)
	if idx := strings.IndexByte(rest, '/'); idx >= 0 {
		rest = rest[:idx]
	}
	return strings.TrimSpace(rest)
}
