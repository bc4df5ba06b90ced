package audithttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/odyssey-erp/odyssey-hrms/internal/authctx"
	"github.com/odyssey-erp/odyssey-hrms/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-hrms/internal/shared"
)

const rateLimit = 10
const rateWindow = time.Minute

// MountRoutes mendaftarkan endpoint audit timeline dan ekspor CSV.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(rateLimit, rateWindow,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			httpx.Problem(w, http.StatusTooManyRequests, "Too Many Requests", "export limit reached, try again later")
		}),
	)
	r.Route("/audit", func(r chi.Router) {
		r.With(h.rbac.RequireAny(shared.PermAuditView)).Get("/", h.handleTimeline)
		r.With(h.rbac.RequireAny(shared.PermAuditExport), limiter).Get("/export.csv", h.handleExport)
	})
}

func rateLimitKey(r *http.Request) (string, error) {
	if user := authctx.UserFromContext(r.Context()); user != nil {
		return "user:" + user.ID.String(), nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
