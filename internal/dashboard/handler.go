package dashboard

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-hrms/internal/auth"
	"github.com/odyssey-erp/odyssey-hrms/internal/authctx"
	"github.com/odyssey-erp/odyssey-hrms/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-hrms/internal/rbac"
	"github.com/odyssey-erp/odyssey-hrms/internal/shared"
)

// Handler serves the dashboards.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers /dashboard routes behind the route guard.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/dashboard", func(r chi.Router) {
		r.Get("/", h.redirect)
		r.With(h.rbac.RequireRole(auth.RoleAdmin)).Get("/admin", h.admin)
		r.With(h.rbac.RequireAny(shared.PermDashboardHR)).Get("/hr", h.hr)
		r.Get("/employee", h.employee)
	})
}

func (h *Handler) redirect(w http.ResponseWriter, r *http.Request) {
	user := authctx.UserFromContext(r.Context())
	if user == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	http.Redirect(w, r, PathFor(user.Role), http.StatusSeeOther)
}

func (h *Handler) admin(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Admin(r.Context())
	if err != nil {
		h.logger.Error("dashboard admin", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) hr(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.HR(r.Context())
	if err != nil {
		h.logger.Error("dashboard hr", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) employee(w http.ResponseWriter, r *http.Request) {
	user := authctx.UserFromContext(r.Context())
	if user == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	summary, err := h.service.Employee(r.Context(), user.ProfileID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "profile not found")
			return
		}
		h.logger.Error("dashboard employee", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}
