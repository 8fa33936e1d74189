package audit

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Entry is a persisted activity record.
type Entry struct {
	ID         int64
	Actor      string
	TenantID   int64
	Action     string
	Decision   string
	OccurredAt time.Time
}

// Service reads the tenant-scoped activity timeline. Access control happens
// at the handler; the query itself is always tenant-filtered.
type Service struct {
	pool *pgxpool.Pool
}

// NewService constructs a Service.
func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

// Timeline returns the most recent entries for one tenant, newest first.
func (s *Service) Timeline(ctx context.Context, tenantID int64, limit int) ([]Entry, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, actor, tenant_id, action, decision, occurred_at
		FROM audit_logs WHERE tenant_id = $1
		ORDER BY occurred_at DESC LIMIT $2`, tenantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Actor, &e.TenantID, &e.Action, &e.Decision, &e.OccurredAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
