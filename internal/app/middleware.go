package app

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"

	"github.com/odyssey-erp/odyssey-hrms/internal/authctx"
	"github.com/odyssey-erp/odyssey-hrms/internal/observability"
	"github.com/odyssey-erp/odyssey-hrms/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-hrms/internal/sessionstore"
	"github.com/odyssey-erp/odyssey-hrms/internal/shared"
)

// MiddlewareConfig aggregates dependencies shared by the middleware stack.
type MiddlewareConfig struct {
	Logger      *slog.Logger
	Config      *Config
	Auth        authctx.Authenticator
	CSRFManager *shared.CSRFManager
	Metrics     *observability.Metrics
}

// csrfExempt lists unsafe routes reachable before a session exists.
var csrfExempt = map[string]struct{}{
	"/auth/login": {},
}

// CookieStoreFunc returns the per-request cookie session store factory.
func CookieStoreFunc(cfg *Config) authctx.StoreFunc {
	opts := sessionstore.CookieOptions{Secure: cfg.IsProduction()}
	if cfg != nil {
		opts.TTL = cfg.SessionTTL
	}
	return func(w http.ResponseWriter, r *http.Request) sessionstore.Store {
		return sessionstore.NewCookieStore(w, r, opts)
	}
}

// CSRFMiddleware requires a token bound to the session on unsafe requests
// that carry a session.
func CSRFMiddleware(manager *shared.CSRFManager, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}
			if _, ok := csrfExempt[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}
			p := authctx.FromContext(r.Context())
			if p == nil {
				next.ServeHTTP(w, r)
				return
			}
			entry, err := p.Store().Load(r.Context())
			if errors.Is(err, sessionstore.ErrEmpty) || entry.Token == "" {
				next.ServeHTTP(w, r)
				return
			}
			token := r.Header.Get(shared.CSRFHeader)
			if token == "" {
				token = r.PostFormValue(shared.CSRFFormField)
			}
			if err := manager.VerifyToken(entry.Token, token); err != nil {
				logger.Warn("csrf validation failed", slog.String("path", r.URL.Path), slog.Any("error", err))
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "invalid CSRF token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// MiddlewareStack installs the HRMS middleware chain.
func MiddlewareStack(cfg MiddlewareConfig) []func(http.Handler) http.Handler {
	secureMiddleware := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		FeaturePolicy:         "none",
		ContentSecurityPolicy: "default-src 'self'",
		SSLRedirect:           cfg.Config != nil && cfg.Config.IsProduction(),
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
	})

	timeout := 30 * time.Second
	if cfg.Config != nil && cfg.Config.AppRequestTimeout > 0 {
		timeout = cfg.Config.AppRequestTimeout
	}

	middlewares := []func(http.Handler) http.Handler{
		middleware.RealIP,
		middleware.RequestID,
		middleware.Recoverer,
		middleware.Timeout(timeout),
		func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if err := secureMiddleware.Process(w, r); err != nil {
					cfg.Logger.Warn("secure headers blocked request", slog.Any("error", err))
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
					return
				}
				next.ServeHTTP(w, r)
			})
		},
		middleware.Compress(5),
		httprate.Limit(120, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)),
	}
	if cfg.Metrics != nil {
		middlewares = append(middlewares, cfg.Metrics.Middleware)
	}
	middlewares = append(middlewares,
		authctx.Middleware(cfg.Auth, CookieStoreFunc(cfg.Config), cfg.Logger),
		CSRFMiddleware(cfg.CSRFManager, cfg.Logger),
	)
	return middlewares
}
