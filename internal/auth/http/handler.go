package authhttp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/odyssey-hrms/internal/auth"
	"github.com/odyssey-erp/odyssey-hrms/internal/authctx"
	"github.com/odyssey-erp/odyssey-hrms/internal/observability"
	"github.com/odyssey-erp/odyssey-hrms/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-hrms/internal/sessionstore"
	"github.com/odyssey-erp/odyssey-hrms/internal/shared"
)

// Authenticator is the subset of auth.Service used by the handler.
type Authenticator interface {
	Login(ctx context.Context, store sessionstore.Store, email, password string) (*auth.User, error)
}

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	service   Authenticator
	csrf      *shared.CSRFManager
	metrics   *observability.Metrics
	audit     shared.Auditor
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service Authenticator, csrf *shared.CSRFManager, metrics *observability.Metrics, audit shared.Auditor) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if audit == nil {
		audit = shared.NopAuditor{}
	}
	return &Handler{
		logger:    logger,
		service:   service,
		csrf:      csrf,
		metrics:   metrics,
		audit:     audit,
		validator: validator.New(),
	}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,max=254"`
	Password string `json:"password" validate:"required,max=1024"`
}

type loginResponse struct {
	Success bool       `json:"success"`
	User    *auth.User `json:"user,omitempty"`
	Error   string     `json:"error,omitempty"`
}

type sessionResponse struct {
	User *auth.User `json:"user"`
}

type csrfResponse struct {
	Token string `json:"token"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	p := authctx.FromContext(r.Context())
	if p == nil {
		h.logger.Error("login: auth context missing")
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSON(w, http.StatusBadRequest, loginResponse{Error: "Invalid request body"})
		return
	}
	if err := h.validator.Struct(req); err != nil {
		h.metrics.ObserveLogin(auth.CodeInvalidCredentials)
		httpx.JSON(w, http.StatusBadRequest, loginResponse{Error: auth.ErrInvalidCredentials.Message})
		return
	}

	user, err := h.service.Login(r.Context(), p.Store(), req.Email, req.Password)
	if err != nil {
		code, status, message := classify(err)
		h.metrics.ObserveLogin(code)
		httpx.JSON(w, status, loginResponse{Error: message})
		return
	}
	h.metrics.ObserveLogin("success")
	p.RefreshUser(r.Context())

	if err := h.audit.Record(r.Context(), shared.AuditLog{
		ActorID:  user.ID,
		Action:   "auth.login",
		Entity:   "profile",
		EntityID: user.ProfileID.String(),
		Meta:     map[string]any{"ip": r.RemoteAddr, "user_agent": r.UserAgent()},
	}); err != nil {
		h.logger.Warn("login: audit", slog.Any("error", err))
	}
	httpx.JSON(w, http.StatusOK, loginResponse{Success: true, User: user})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	p := authctx.FromContext(r.Context())
	if p != nil {
		if user := p.User(); user != nil {
			if err := h.audit.Record(r.Context(), shared.AuditLog{
				ActorID:  user.ID,
				Action:   "auth.logout",
				Entity:   "profile",
				EntityID: user.ProfileID.String(),
			}); err != nil {
				h.logger.Warn("logout: audit", slog.Any("error", err))
			}
		}
		p.SignOut(r.Context())
	}
	h.metrics.ObserveLogout()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	user := authctx.UserFromContext(r.Context())
	if user == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "no active session")
		return
	}
	httpx.JSON(w, http.StatusOK, sessionResponse{User: user})
}

func (h *Handler) handleCSRF(w http.ResponseWriter, r *http.Request) {
	p := authctx.FromContext(r.Context())
	if p == nil || p.User() == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "no active session")
		return
	}
	entry, err := p.Store().Load(r.Context())
	if err != nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "no active session")
		return
	}
	token, err := h.csrf.Token(entry.Token)
	if err != nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "no active session")
		return
	}
	httpx.JSON(w, http.StatusOK, csrfResponse{Token: token})
}

// classify maps a Login failure to a metrics label, HTTP status and user message.
func classify(err error) (string, int, string) {
	var authErr *auth.Error
	if !errors.As(err, &authErr) {
		return auth.CodeLoginFailed, http.StatusInternalServerError, auth.ErrLoginFailed.Message
	}
	switch authErr.Code {
	case auth.CodeInvalidCredentials, auth.CodeAccountNotConfigured, auth.CodeRoleNotFound:
		return authErr.Code, http.StatusUnauthorized, authErr.Message
	default:
		return authErr.Code, http.StatusInternalServerError, authErr.Message
	}
}
