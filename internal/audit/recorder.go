// Package audit records security-relevant activity. Events are enqueued and
// persisted by the worker so recording never blocks a request on a write.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/meridian-saas/meridian/jobs"
)

// Event is one activity record: who did (or was denied) what, where.
type Event struct {
	Actor    string
	TenantID int64
	Action   string
	Decision string
	Meta     map[string]any
}

// Decision outcomes.
const (
	DecisionAllowed = "allowed"
	DecisionDenied  = "denied"
)

// Recorder enqueues audit events for asynchronous persistence. A nil client
// degrades to log-only, which keeps tests and local setups free of Redis.
type Recorder struct {
	client *asynq.Client
	logger *slog.Logger
}

// NewRecorder constructs a Recorder. client may be nil.
func NewRecorder(client *asynq.Client, logger *slog.Logger) *Recorder {
	return &Recorder{client: client, logger: logger}
}

// Record enqueues the event. Best effort: a failed enqueue is logged and
// dropped rather than failing the request that produced it.
func (r *Recorder) Record(ctx context.Context, ev Event) {
	if r == nil {
		return
	}
	payload := jobs.AuditRecordPayload{
		Actor:      ev.Actor,
		TenantID:   ev.TenantID,
		Action:     ev.Action,
		Decision:   ev.Decision,
		Meta:       ev.Meta,
		OccurredAt: time.Now().UTC(),
	}
	if r.client == nil {
		if r.logger != nil {
			r.logger.Info("audit event",
				slog.String("actor", ev.Actor),
				slog.Int64("tenant", ev.TenantID),
				slog.String("action", ev.Action),
				slog.String("decision", ev.Decision))
		}
		return
	}
	task, err := jobs.NewAuditRecordTask(payload)
	if err != nil {
		if r.logger != nil {
			r.logger.Warn("audit task build", slog.Any("error", err))
		}
		return
	}
	if _, err := r.client.EnqueueContext(ctx, task); err != nil && r.logger != nil {
		r.logger.Warn("audit enqueue", slog.String("action", ev.Action), slog.Any("error", err))
	}
}
