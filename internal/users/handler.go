package users

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-saas/meridian/internal/audit"
	"github.com/meridian-saas/meridian/internal/platform/httpx"
	"github.com/meridian-saas/meridian/internal/shared"
)

// Handler exposes tenant-scoped user management over HTTP.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	recorder  *audit.Recorder
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, recorder *audit.Recorder) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		recorder:  recorder,
		validator: validator.New(),
	}
}

// MountRoutes registers user management routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
	r.Patch("/{id}", h.handleRename)
	r.Delete("/{id}", h.handleDelete)
	r.Put("/{id}/role", h.handleAssignRole)
}

type userResponse struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	TenantID  int64  `json:"tenant_id"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
}

type createRequest struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"required"`
}

type renameRequest struct {
	Name string `json:"name" validate:"required"`
}

type assignRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	tenantID := shared.ScopeFromContext(r.Context()).TenantID()
	accounts, err := h.service.List(r.Context(), tenantID)
	if err != nil {
		h.deny(r, tenantID, "users.list", err)
		httpx.RespondError(w, err)
		return
	}

	out := make([]userResponse, 0, len(accounts))
	for _, u := range accounts {
		out = append(out, userResponse{
			ID:        u.ID,
			Email:     u.Email,
			Name:      u.Name,
			Role:      string(u.Role),
			TenantID:  u.TenantID,
			IsActive:  u.IsActive,
			CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"users": out})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed payload")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "email and name are required")
		return
	}

	tenantID := shared.ScopeFromContext(r.Context()).TenantID()
	created, err := h.service.Create(r.Context(), tenantID, req.Email, req.Name)
	if err != nil {
		h.deny(r, tenantID, "users.create", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, userResponse{
		ID:        created.ID,
		Email:     created.Email,
		Name:      created.Name,
		Role:      string(created.Role),
		TenantID:  created.TenantID,
		IsActive:  created.IsActive,
		CreatedAt: created.CreatedAt.UTC().Format(time.RFC3339),
	})
}

func (h *Handler) handleRename(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid user id")
		return
	}

	var req renameRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed payload")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "name is required")
		return
	}

	if err := h.service.UpdateName(r.Context(), userID, req.Name); err != nil {
		h.deny(r, shared.ScopeFromContext(r.Context()).TenantID(), "users.update", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid user id")
		return
	}

	tenantID := shared.ScopeFromContext(r.Context()).TenantID()
	if err := h.service.Delete(r.Context(), tenantID, userID); err != nil {
		h.deny(r, tenantID, "users.delete", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) handleAssignRole(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid user id")
		return
	}

	var req assignRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed payload")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "role is required")
		return
	}

	role, ok := shared.LookupRole(req.Role)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown role")
		return
	}

	tenantID := shared.ScopeFromContext(r.Context()).TenantID()
	if err := h.service.AssignRole(r.Context(), tenantID, userID, role); err != nil {
		h.deny(r, tenantID, "users.assign_role", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "assigned"})
}

func (h *Handler) deny(r *http.Request, tenantID int64, action string, err error) {
	h.logger.Warn("user operation rejected", slog.String("action", action), slog.Any("error", err))
	if !errors.Is(err, shared.ErrAccessDenied) {
		return
	}
	h.recorder.Record(r.Context(), audit.Event{
		Actor:    shared.ScopeFromContext(r.Context()).Subject(),
		TenantID: tenantID,
		Action:   action,
		Decision: audit.DecisionDenied,
	})
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
