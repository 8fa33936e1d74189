// Package token issues and validates the signed bearer credentials that carry
// a caller's identity, tenant and role between requests.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/meridian-saas/meridian/internal/shared"
)

// MinKeyBytes is the smallest signing key the codec accepts. Startup must
// fail on shorter keys rather than silently weaken signatures.
const MinKeyBytes = 32

// DefaultTTL bounds credential liveness when configuration supplies none.
const DefaultTTL = 24 * time.Hour

// Claims is the signed payload of a credential. One credential maps to one
// principal snapshot; role or tenant changes are not reflected until
// re-issuance.
type Claims struct {
	UserID   int64  `json:"uid"`
	TenantID int64  `json:"tid"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Codec signs and validates credentials with a process-wide symmetric key.
// The key is read-only after construction and safe to share across workers.
type Codec struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewCodec constructs a Codec. Keys shorter than MinKeyBytes are rejected.
func NewCodec(key []byte, ttl time.Duration) (*Codec, error) {
	if len(key) < MinKeyBytes {
		return nil, errors.New("token: signing key must be at least 32 bytes")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Codec{key: key, ttl: ttl, now: time.Now}, nil
}

// WithClock returns a copy of the codec using the supplied time source.
// Test hook for expiry behavior.
func (c *Codec) WithClock(now func() time.Time) *Codec {
	clone := *c
	clone.now = now
	return &clone
}

// TTL exposes the configured credential lifetime.
func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// Issue signs a credential for the given identity.
func (c *Codec) Issue(email string, userID, tenantID int64, role shared.Role) (string, error) {
	issuedAt := c.now()
	claims := Claims{
		UserID:   userID,
		TenantID: tenantID,
		Role:     string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(c.ttl)),
			ID:        uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
}

// Parse verifies signature and expiry and, when expectedSubject is non-empty,
// that the credential belongs to that subject. Every failure mode collapses
// into shared.ErrInvalidCredential so validation cannot act as an oracle.
func (c *Codec) Parse(credential, expectedSubject string) (Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(credential, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return c.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return Claims{}, shared.ErrInvalidCredential
	}
	if expectedSubject != "" && claims.Subject != expectedSubject {
		return Claims{}, shared.ErrInvalidCredential
	}
	return claims, nil
}

// Subject extracts the subject claim without verifying the credential. The
// result is never trusted for authorization; it only lets the establisher
// bind validation to an expected subject.
func (c *Codec) Subject(credential string) (string, error) {
	var claims Claims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(credential, &claims); err != nil {
		return "", shared.ErrInvalidCredential
	}
	if claims.Subject == "" {
		return "", shared.ErrInvalidCredential
	}
	return claims.Subject, nil
}
