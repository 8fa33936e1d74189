package tenant_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/meridian-saas/meridian/internal/shared"
	"github.com/meridian-saas/meridian/internal/tenant"
)

func newCacheOnlyRegistry(t *testing.T) (*tenant.Registry, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return tenant.NewRegistry(nil, client, time.Minute, nil), mr
}

func TestLookupPublicSentinels(t *testing.T) {
	reg, _ := newCacheOnlyRegistry(t)
	if got := reg.Lookup(context.Background(), ""); got != shared.PublicTenantID {
		t.Fatalf("empty slug = %d", got)
	}
	if got := reg.Lookup(context.Background(), shared.PublicTenantSlug); got != shared.PublicTenantID {
		t.Fatalf("public slug = %d", got)
	}
}

func TestLookupCacheHit(t *testing.T) {
	reg, mr := newCacheOnlyRegistry(t)
	if err := mr.Set("tenant:slug:acme", strconv.FormatInt(7, 10)); err != nil {
		t.Fatalf("seed cache: %v", err)
	}
	if got := reg.Lookup(context.Background(), "acme"); got != 7 {
		t.Fatalf("cached lookup = %d, want 7", got)
	}
}

func TestLookupMissPopulatesCacheWithPublic(t *testing.T) {
	// No postgres pool: the directory knows nothing, so the slug resolves to
	// the public sentinel and the result is cached.
	reg, mr := newCacheOnlyRegistry(t)
	if got := reg.Lookup(context.Background(), "ghost"); got != shared.PublicTenantID {
		t.Fatalf("unknown slug = %d", got)
	}
	raw, err := mr.Get("tenant:slug:ghost")
	if err != nil {
		t.Fatalf("cache entry not written: %v", err)
	}
	if raw != "0" {
		t.Fatalf("cached value = %q", raw)
	}
}
