package identity_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/meridian-saas/meridian/internal/identity"
	"github.com/meridian-saas/meridian/internal/shared"
	"github.com/meridian-saas/meridian/internal/token"
)

func newCodec(t *testing.T) *token.Codec {
	t.Helper()
	codec, err := token.NewCodec([]byte("0123456789abcdef0123456789abcdef"), time.Hour)
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	return codec
}

// serve runs a request through the establisher with a fresh scope installed,
// capturing the scope state the downstream handler observed.
func serve(t *testing.T, e *identity.Establisher, req *http.Request) (seenSubject string, seenRole shared.Role, seenTenant int64, identified bool) {
	t.Helper()
	scope := shared.AcquireScope()
	defer scope.Release()
	scope.SetProvisionalTenant(99, "resolver-guess")
	req = req.WithContext(shared.ContextWithScope(req.Context(), scope))

	var called bool
	e.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		s := shared.ScopeFromContext(r.Context())
		seenSubject = s.Subject()
		seenRole = s.Role()
		seenTenant = s.TenantID()
		identified = s.Identified()
	})).ServeHTTP(httptest.NewRecorder(), req)
	if !called {
		t.Fatal("chain did not continue")
	}
	return seenSubject, seenRole, seenTenant, identified
}

func TestValidCredentialOverridesResolverTenant(t *testing.T) {
	codec := newCodec(t)
	e := identity.NewEstablisher(codec, nil)

	credential, err := codec.Issue("admin@acme.test", 12, 5, shared.RoleTenantAdmin)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	req := httptest.NewRequest("GET", "/files", nil)
	req.Header.Set("Authorization", "Bearer "+credential)

	subject, role, tenantID, identified := serve(t, e, req)
	if !identified {
		t.Fatal("expected identified request")
	}
	if subject != "admin@acme.test" || role != shared.RoleTenantAdmin {
		t.Fatalf("identity = %q/%q", subject, role)
	}
	if tenantID != 5 {
		t.Fatalf("tenant = %d, want claim tenant 5", tenantID)
	}
}

func TestMissingCredentialIsAnonymousNotError(t *testing.T) {
	e := identity.NewEstablisher(newCodec(t), nil)
	req := httptest.NewRequest("GET", "/files", nil)

	_, _, tenantID, identified := serve(t, e, req)
	if identified {
		t.Fatal("expected anonymous request")
	}
	if tenantID != 99 {
		t.Fatalf("provisional tenant lost, got %d", tenantID)
	}
}

func TestInvalidCredentialContinuesAnonymous(t *testing.T) {
	e := identity.NewEstablisher(newCodec(t), nil)
	for _, header := range []string{
		"Bearer garbage",
		"Bearer ",
		"Basic abc",
	} {
		req := httptest.NewRequest("GET", "/files", nil)
		req.Header.Set("Authorization", header)
		subject, _, tenantID, identified := serve(t, e, req)
		if identified || subject != "" {
			t.Fatalf("header %q: expected anonymous continuation", header)
		}
		if tenantID != 99 {
			t.Fatalf("header %q: provisional tenant lost", header)
		}
	}
}

func TestExpiredCredentialContinuesAnonymous(t *testing.T) {
	codec := newCodec(t)
	past := codec.WithClock(func() time.Time { return time.Now().Add(-25 * time.Hour) })
	credential, err := past.Issue("owner@acme.test", 1, 3, shared.RoleTenantOwner)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	e := identity.NewEstablisher(codec, nil)
	req := httptest.NewRequest("GET", "/files", nil)
	req.Header.Set("Authorization", "Bearer "+credential)
	_, _, _, identified := serve(t, e, req)
	if identified {
		t.Fatal("expired credential must not establish identity")
	}
}

func TestRolePrefixCanonicalization(t *testing.T) {
	codec := newCodec(t)
	e := identity.NewEstablisher(codec, nil)

	// A claim spelled with the authority prefix establishes the same role.
	credential, err := codec.Issue("admin@acme.test", 12, 5, shared.Role("ROLE_TENANT_ADMIN"))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	req := httptest.NewRequest("GET", "/files", nil)
	req.Header.Set("Authorization", "Bearer "+credential)
	_, role, _, _ := serve(t, e, req)
	if role != shared.RoleTenantAdmin {
		t.Fatalf("role = %q", role)
	}
	if role.Authority() != "ROLE_TENANT_ADMIN" {
		t.Fatalf("authority = %q", role.Authority())
	}
}

func TestExemptPathsSkipEstablishment(t *testing.T) {
	codec := newCodec(t)
	e := identity.NewEstablisher(codec, nil)

	credential, err := codec.Issue("admin@acme.test", 12, 5, shared.RoleTenantAdmin)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	req := httptest.NewRequest("POST", "/auth/login", nil)
	req.Header.Set("Authorization", "Bearer "+credential)
	_, _, _, identified := serve(t, e, req)
	if identified {
		t.Fatal("exempt path must not establish identity")
	}
}
