package authhttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/odyssey-erp/odyssey-hrms/internal/platform/httpx"
)

const loginRateLimit = 10
const loginRateWindow = time.Minute

// MountRoutes registers auth routes under /auth.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(loginRateLimit, loginRateWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			httpx.Problem(w, http.StatusTooManyRequests, "Too Many Requests", "too many login attempts, try again later")
		}),
	)
	r.Route("/auth", func(r chi.Router) {
		r.With(limiter).Post("/login", h.handleLogin)
		r.Post("/logout", h.handleLogout)
		r.Get("/session", h.handleSession)
		r.Get("/csrf", h.handleCSRF)
	})
}
