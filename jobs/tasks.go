// Package jobs defines the background task types and their handlers.
package jobs

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeAuditRecord is the task type for persisting audit events.
	TaskTypeAuditRecord = "audit:record"
)

// AuditRecordPayload carries one activity event to the worker.
type AuditRecordPayload struct {
	Actor      string         `json:"actor"`
	TenantID   int64          `json:"tenant_id"`
	Action     string         `json:"action"`
	Decision   string         `json:"decision"`
	Meta       map[string]any `json:"meta,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// NewAuditRecordTask constructs an Asynq task.
func NewAuditRecordTask(payload AuditRecordPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeAuditRecord, data), nil
}

// AuditWriter persists audit events from the queue.
type AuditWriter struct {
	pool *pgxpool.Pool
}

// NewAuditWriter constructs an AuditWriter.
func NewAuditWriter(pool *pgxpool.Pool) *AuditWriter {
	return &AuditWriter{pool: pool}
}

// HandleAuditRecordTask processes TaskTypeAuditRecord tasks.
func (w *AuditWriter) HandleAuditRecordTask(ctx context.Context, t *asynq.Task) error {
	var payload AuditRecordPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	metaJSON, err := json.Marshal(payload.Meta)
	if err != nil {
		return asynq.SkipRetry
	}
	occurredAt := payload.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}
	_, err = w.pool.Exec(ctx, `
		INSERT INTO audit_logs (actor, tenant_id, action, decision, meta, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		payload.Actor, payload.TenantID, payload.Action, payload.Decision, metaJSON, occurredAt)
	return err
}
