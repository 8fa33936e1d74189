package audit

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-saas/meridian/internal/authz"
	"github.com/meridian-saas/meridian/internal/platform/httpx"
	"github.com/meridian-saas/meridian/internal/shared"
)

// Handler exposes the activity timeline.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	engine   *authz.Engine
	recorder *Recorder
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, engine *authz.Engine, recorder *Recorder) *Handler {
	return &Handler{logger: logger, service: service, engine: engine, recorder: recorder}
}

// MountRoutes registers audit routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.timeline)
}

type entryResponse struct {
	ID         int64  `json:"id"`
	Actor      string `json:"actor"`
	Action     string `json:"action"`
	Decision   string `json:"decision"`
	OccurredAt string `json:"occurred_at"`
}

func (h *Handler) timeline(w http.ResponseWriter, r *http.Request) {
	tenantID := shared.ScopeFromContext(r.Context()).TenantID()
	if err := h.engine.RequireActivityLogPermission(r.Context(), tenantID); err != nil {
		h.recorder.Record(r.Context(), Event{
			Actor:    shared.ScopeFromContext(r.Context()).Subject(),
			TenantID: tenantID,
			Action:   "audit.view",
			Decision: DecisionDenied,
		})
		httpx.RespondError(w, err)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.service.Timeline(r.Context(), tenantID, limit)
	if err != nil {
		h.logger.Error("audit timeline", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryResponse{
			ID:         e.ID,
			Actor:      e.Actor,
			Action:     e.Action,
			Decision:   e.Decision,
			OccurredAt: e.OccurredAt.UTC().Format(time.RFC3339),
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"entries": out})
}
