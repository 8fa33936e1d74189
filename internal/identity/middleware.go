// Package identity establishes the verified caller on the request scope from
// the Authorization header. Validation failures never reach the client from
// here; the request simply continues anonymous and the first authorization
// check downstream produces the visible denial.
package identity

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/meridian-saas/meridian/internal/shared"
	"github.com/meridian-saas/meridian/internal/token"
)

const bearerPrefix = "Bearer "

// DefaultExemptPrefixes are never subject to identity establishment:
// credential issuance endpoints and the platform error path must not require
// a credential, or a failure would recurse.
var DefaultExemptPrefixes = []string{"/auth/", "/healthz", "/metrics", "/error"}

// Establisher is the per-request interceptor that turns a bearer credential
// into a verified identity on the request scope.
type Establisher struct {
	codec  *token.Codec
	logger *slog.Logger
	exempt []string
}

// NewEstablisher constructs an Establisher. With no prefixes supplied the
// default exemptions apply.
func NewEstablisher(codec *token.Codec, logger *slog.Logger, exemptPrefixes ...string) *Establisher {
	if len(exemptPrefixes) == 0 {
		exemptPrefixes = DefaultExemptPrefixes
	}
	return &Establisher{codec: codec, logger: logger, exempt: exemptPrefixes}
}

// Middleware runs establishment once per request and always continues the
// chain. The scope middleware above this one owns scope release.
func (e *Establisher) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if e.exemptPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		scope := shared.ScopeFromContext(r.Context())
		if scope == nil || scope.Identified() {
			next.ServeHTTP(w, r)
			return
		}

		credential, ok := bearerCredential(r)
		if !ok {
			// No credential is not an error, just no identity.
			next.ServeHTTP(w, r)
			return
		}

		subject, err := e.codec.Subject(credential)
		if err != nil {
			scope.ClearIdentity()
			next.ServeHTTP(w, r)
			return
		}
		claims, err := e.codec.Parse(credential, subject)
		if err != nil {
			scope.ClearIdentity()
			if e.logger != nil {
				e.logger.Debug("credential rejected", slog.String("path", r.URL.Path))
			}
			next.ServeHTTP(w, r)
			return
		}

		// The claim tenant is authoritative from here on; the role authority
		// is canonicalized even if the claim lacked the prefix.
		scope.SetIdentity(claims.Subject, shared.ParseRole(claims.Role), claims.TenantID)
		next.ServeHTTP(w, r)
	})
}

func (e *Establisher) exemptPath(path string) bool {
	for _, prefix := range e.exempt {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func bearerCredential(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	credential := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	return credential, credential != ""
}
