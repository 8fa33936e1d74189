package tenant

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/meridian-saas/meridian/internal/shared"
)

// Registry maps tenant slugs to directory IDs. Lookups go through a Redis
// cache with singleflight so a burst of requests for the same unknown tenant
// hits postgres once. An unknown slug is not an error; it resolves to the
// public sentinel.
type Registry struct {
	pool   *pgxpool.Pool
	cache  *redis.Client
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
}

// NewRegistry constructs a Registry.
func NewRegistry(pool *pgxpool.Pool, cache *redis.Client, ttl time.Duration, logger *slog.Logger) *Registry {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Registry{pool: pool, cache: cache, ttl: ttl, logger: logger}
}

// Lookup resolves a slug to a tenant ID. Misses and cache failures degrade to
// the public sentinel; only infrastructure errors on the postgres path
// surface, and callers treat those as public too.
func (reg *Registry) Lookup(ctx context.Context, slug string) int64 {
	if slug == "" || slug == shared.PublicTenantSlug {
		return shared.PublicTenantID
	}

	if reg.cache != nil {
		if raw, err := reg.cache.Get(ctx, cacheKey(slug)).Result(); err == nil {
			if id, parseErr := strconv.ParseInt(raw, 10, 64); parseErr == nil {
				return id
			}
		}
	}

	v, err, _ := reg.group.Do(slug, func() (any, error) {
		return reg.fetch(ctx, slug)
	})
	if err != nil {
		if reg.logger != nil {
			reg.logger.Warn("tenant lookup", slog.String("slug", slug), slog.Any("error", err))
		}
		return shared.PublicTenantID
	}
	return v.(int64)
}

func (reg *Registry) fetch(ctx context.Context, slug string) (int64, error) {
	id := shared.PublicTenantID
	if reg.pool != nil {
		err := reg.pool.QueryRow(ctx, `SELECT id FROM tenants WHERE slug = $1 AND is_active`, slug).Scan(&id)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return shared.PublicTenantID, err
		}
	}
	if reg.cache != nil {
		if err := reg.cache.Set(ctx, cacheKey(slug), strconv.FormatInt(id, 10), reg.ttl).Err(); err != nil && reg.logger != nil {
			reg.logger.Warn("tenant cache set", slog.String("slug", slug), slog.Any("error", err))
		}
	}
	return id, nil
}

func cacheKey(slug string) string {
	return "tenant:slug:" + slug
}
