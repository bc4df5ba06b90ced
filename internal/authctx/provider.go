// Package authctx holds the cached authenticated-user state and the route
// guard that consumes it.
package authctx

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/odyssey-hrms/internal/auth"
	"github.com/odyssey-erp/odyssey-hrms/internal/sessionstore"
)

// Authenticator resolves and ends sessions. *auth.Service satisfies it.
type Authenticator interface {
	SessionUser(ctx context.Context, store sessionstore.Store) (*auth.User, bool)
	Logout(ctx context.Context, store sessionstore.Store)
}

// State is a snapshot of the provider.
type State struct {
	User    *auth.User
	Loading bool
}

// Provider is the single writer of the cached user. Readers only ever see
// the last snapshot written by Init, RefreshUser, SignOut or Close.
type Provider struct {
	authn  Authenticator
	store  sessionstore.Store
	logger *slog.Logger

	mu    sync.RWMutex
	state State

	refresh singleflight.Group
}

// NewProvider returns a provider in the loading state.
func NewProvider(authn Authenticator, store sessionstore.Store, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{
		authn:  authn,
		store:  store,
		logger: logger,
		state:  State{Loading: true},
	}
}

// Init performs the initial session check and leaves the loading state.
func (p *Provider) Init(ctx context.Context) State {
	user, _ := p.authn.SessionUser(ctx, p.store)
	return p.set(State{User: user})
}

// State returns the last written snapshot.
func (p *Provider) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// User returns the cached user, or nil.
func (p *Provider) User() *auth.User {
	return p.State().User
}

// Store returns the session store the provider reads from.
func (p *Provider) Store() sessionstore.Store {
	return p.store
}

// RefreshUser re-runs the session check and replaces the cached user.
// Concurrent callers share one lookup.
func (p *Provider) RefreshUser(ctx context.Context) *auth.User {
	v, _, _ := p.refresh.Do("session", func() (any, error) {
		user, _ := p.authn.SessionUser(ctx, p.store)
		p.set(State{User: user})
		return user, nil
	})
	user, _ := v.(*auth.User)
	return user
}

// SignOut ends the session and clears the cached user.
func (p *Provider) SignOut(ctx context.Context) {
	p.authn.Logout(ctx, p.store)
	p.set(State{})
	p.logger.Debug("authctx: signed out")
}

// Close drops the cached user without touching the session.
func (p *Provider) Close() {
	p.set(State{})
}

func (p *Provider) set(s State) State {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = s
	return s
}

type providerKey struct{}

// WithProvider stores p in ctx.
func WithProvider(ctx context.Context, p *Provider) context.Context {
	return context.WithValue(ctx, providerKey{}, p)
}

// FromContext extracts the provider placed by WithProvider or Middleware.
func FromContext(ctx context.Context) *Provider {
	p, _ := ctx.Value(providerKey{}).(*Provider)
	return p
}

// UserFromContext returns the cached user of the request provider, or nil.
func UserFromContext(ctx context.Context) *auth.User {
	if p := FromContext(ctx); p != nil {
		return p.User()
	}
	return nil
}

// StoreFunc builds the session store backing one request.
type StoreFunc func(w http.ResponseWriter, r *http.Request) sessionstore.Store

// Middleware gives every request its own provider, initialised from the
// request's session store, and closes it when the request is done.
func Middleware(authn Authenticator, newStore StoreFunc, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := NewProvider(authn, newStore(w, r), logger)
			defer p.Close()
			p.Init(r.Context())
			next.ServeHTTP(w, r.WithContext(WithProvider(r.Context(), p)))
		})
	}
}
