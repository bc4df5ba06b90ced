package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	audithttp "github.com/odyssey-erp/odyssey-hrms/internal/audit/http"
	authhttp "github.com/odyssey-erp/odyssey-hrms/internal/auth/http"
	"github.com/odyssey-erp/odyssey-hrms/internal/authctx"
	"github.com/odyssey-erp/odyssey-hrms/internal/dashboard"
	"github.com/odyssey-erp/odyssey-hrms/internal/observability"
	"github.com/odyssey-erp/odyssey-hrms/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-hrms/internal/rbac"
	"github.com/odyssey-erp/odyssey-hrms/internal/shared"
	"github.com/odyssey-erp/odyssey-hrms/internal/users"
	"github.com/odyssey-erp/odyssey-hrms/jobs"
)

// DefaultLoginPath is where the guard sends browsers without a session.
const DefaultLoginPath = "/login"

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger      *slog.Logger
	Config      *Config
	CSRFManager *shared.CSRFManager
	Metrics     *observability.Metrics
	Auth        authctx.Authenticator
	LoginPath   string

	AuthHandler        *authhttp.Handler
	UsersHandler       *users.Handler
	DashboardHandler   *dashboard.Handler
	PermissionsHandler *rbac.PermissionsHandler
	AuditHandler       *audithttp.Handler
	JobHandler         *jobs.Handler
}

// NewRouter constructs the chi.Router with HRMS defaults.
func NewRouter(params RouterParams) http.Handler {
	if params.Logger == nil {
		params.Logger = slog.Default()
	}
	loginPath := params.LoginPath
	if loginPath == "" {
		loginPath = DefaultLoginPath
	}

	r := chi.NewRouter()
	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:      params.Logger,
		Config:      params.Config,
		Auth:        params.Auth,
		CSRFManager: params.CSRFManager,
		Metrics:     params.Metrics,
	}) {
		r.Use(mw)
	}
	if !InTestMode() && !params.Config.IsProduction() {
		r.Use(chimw.Logger)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	params.AuthHandler.MountRoutes(r)

	r.Group(func(r chi.Router) {
		r.Use(authctx.Guard(loginPath))
		if params.UsersHandler != nil {
			params.UsersHandler.MountRoutes(r)
		}
		if params.DashboardHandler != nil {
			params.DashboardHandler.MountRoutes(r)
		}
		if params.PermissionsHandler != nil {
			params.PermissionsHandler.MountRoutes(r)
		}
		if params.AuditHandler != nil {
			params.AuditHandler.MountRoutes(r)
		}
		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	return r
}
