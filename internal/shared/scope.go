package shared

import (
	"context"
	"sync"
)

// Scope is the per-request container for the resolved tenant and, once
// established, the verified caller identity. It is written at most twice
// (tenant resolution, then identity establishment) and read many times.
//
// Scopes are pooled across requests the way worker threads are reused, so
// Release zeroes every field before handing the scope back. The middleware
// that installs a scope owns its release via defer; nothing downstream may
// retain a scope beyond the request.
type Scope struct {
	tenantID   int64
	tenantSlug string
	subject    string
	authority  string
	role       Role
	identified bool
}

var scopePool = sync.Pool{
	New: func() any { return new(Scope) },
}

// AcquireScope hands out an empty scope from the pool.
func AcquireScope() *Scope {
	return scopePool.Get().(*Scope)
}

// Release zeroes the scope and returns it to the pool. Safe to call exactly
// once per acquisition; the deferred call in the scope middleware is the only
// caller in production code.
func (s *Scope) Release() {
	*s = Scope{}
	scopePool.Put(s)
}

// Empty reports whether the scope holds no tenant and no identity.
func (s *Scope) Empty() bool {
	return s == nil || *s == Scope{}
}

// SetProvisionalTenant records the resolver's tenant hint. Advisory only:
// identity establishment overwrites it whenever a valid credential is present.
func (s *Scope) SetProvisionalTenant(id int64, slug string) {
	s.tenantID = id
	s.tenantSlug = slug
}

// SetIdentity records the verified caller and makes the credential's tenant
// authoritative for the rest of the request.
func (s *Scope) SetIdentity(subject string, role Role, tenantID int64) {
	s.subject = subject
	s.role = role
	s.authority = role.Authority()
	s.tenantID = tenantID
	s.identified = true
}

// ClearIdentity removes any partially established identity, keeping the
// provisional tenant. Used when credential validation fails midway.
func (s *Scope) ClearIdentity() {
	s.subject = ""
	s.role = ""
	s.authority = ""
	s.identified = false
}

// TenantID returns the tenant the request is currently attributed to.
func (s *Scope) TenantID() int64 {
	if s == nil {
		return PublicTenantID
	}
	return s.tenantID
}

// TenantSlug returns the resolver's raw tenant hint.
func (s *Scope) TenantSlug() string {
	if s == nil {
		return PublicTenantSlug
	}
	return s.tenantSlug
}

// Subject returns the verified caller email, or "" when anonymous.
func (s *Scope) Subject() string {
	if s == nil {
		return ""
	}
	return s.subject
}

// Role returns the verified caller role. Meaningless unless Identified.
func (s *Scope) Role() Role {
	if s == nil {
		return ""
	}
	return s.role
}

// Authority returns the canonical prefixed role authority, or "" when anonymous.
func (s *Scope) Authority() string {
	if s == nil {
		return ""
	}
	return s.authority
}

// Identified reports whether a credential was successfully verified.
func (s *Scope) Identified() bool {
	return s != nil && s.identified
}

type scopeContextKey struct{}

// ContextWithScope attaches the request scope to the context.
func ContextWithScope(ctx context.Context, s *Scope) context.Context {
	return context.WithValue(ctx, scopeContextKey{}, s)
}

// ScopeFromContext extracts the request scope, or nil outside a request.
func ScopeFromContext(ctx context.Context) *Scope {
	s, _ := ctx.Value(scopeContextKey{}).(*Scope)
	return s
}
