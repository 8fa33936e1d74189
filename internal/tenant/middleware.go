package tenant

import (
	"net/http"

	"github.com/meridian-saas/meridian/internal/shared"
)

// Middleware records the provisional tenant on the request scope before
// identity establishment runs. It never rejects a request: an unresolvable
// tenant is simply the public sentinel.
func Middleware(registry *Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if scope := shared.ScopeFromContext(r.Context()); scope != nil {
				slug := Resolve(r)
				id := shared.PublicTenantID
				if registry != nil {
					id = registry.Lookup(r.Context(), slug)
				}
				scope.SetProvisionalTenant(id, slug)
			}
			next.ServeHTTP(w, r)
		})
	}
}
