package auth

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-saas/meridian/internal/audit"
	"github.com/meridian-saas/meridian/internal/platform/httpx"
	"github.com/meridian-saas/meridian/internal/shared"
	"github.com/meridian-saas/meridian/internal/token"
)

// Handler wires HTTP endpoints for credential issuance. Mounted on paths
// exempt from identity establishment.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	codec     *token.Codec
	recorder  *audit.Recorder
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, codec *token.Codec, recorder *audit.Recorder) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		codec:     codec,
		recorder:  recorder,
		validator: validator.New(),
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/register", h.handleRegister)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

type credentialResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed payload")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "email and password are required")
		return
	}

	user, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.recorder.Record(r.Context(), audit.Event{
			Actor:    req.Email,
			TenantID: shared.ScopeFromContext(r.Context()).TenantID(),
			Action:   "auth.login",
			Decision: audit.DecisionDenied,
		})
		httpx.RespondError(w, err)
		return
	}

	h.issue(w, r, user, "auth.login")
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed payload")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "email, name and password are required")
		return
	}

	// Registration lands in the tenant the resolver derived; the public
	// sentinel is a valid home for unaffiliated accounts.
	tenantID := shared.ScopeFromContext(r.Context()).TenantID()
	user, err := h.service.Register(r.Context(), req.Email, req.Name, req.Password, tenantID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	h.issue(w, r, user, "auth.register")
}

func (h *Handler) issue(w http.ResponseWriter, r *http.Request, user *User, action string) {
	credential, err := h.codec.Issue(user.Email, user.ID, user.TenantID, user.Role)
	if err != nil {
		h.logger.Error("issue credential", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	h.recorder.Record(r.Context(), audit.Event{
		Actor:    user.Email,
		TenantID: user.TenantID,
		Action:   action,
		Decision: audit.DecisionAllowed,
	})
	httpx.JSON(w, http.StatusOK, credentialResponse{
		Token:     credential,
		ExpiresAt: time.Now().Add(h.codec.TTL()).UTC().Format(time.RFC3339),
	})
}
