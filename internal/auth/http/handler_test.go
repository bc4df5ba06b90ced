package authhttp_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-hrms/internal/auth"
	authhttp "github.com/odyssey-erp/odyssey-hrms/internal/auth/http"
	"github.com/odyssey-erp/odyssey-hrms/internal/authctx"
	"github.com/odyssey-erp/odyssey-hrms/internal/observability"
	"github.com/odyssey-erp/odyssey-hrms/internal/sessionstore"
	"github.com/odyssey-erp/odyssey-hrms/internal/shared"
	_ "github.com/odyssey-erp/odyssey-hrms/testing"
)

type fakeAuth struct {
	mu       sync.Mutex
	user     *auth.User
	password string
	loginErr error
	sessions map[string]*auth.User
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{
		user:     &auth.User{ID: uuid.New(), ProfileID: uuid.New(), Email: "hr@odyssey.test", FirstName: "Rina", LastName: "Hartono", Role: auth.RoleHR},
		password: "correct horse",
		sessions: make(map[string]*auth.User),
	}
}

func (f *fakeAuth) Login(ctx context.Context, store sessionstore.Store, email, password string) (*auth.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	if auth.NormalizeEmail(email) != f.user.Email || password != f.password {
		return nil, auth.ErrInvalidCredentials
	}
	token := strings.Repeat("a", 64)
	f.sessions[token] = f.user
	if err := store.Save(ctx, sessionstore.Entry{Token: token, UserID: f.user.ID.String()}); err != nil {
		return nil, auth.ErrLoginFailed
	}
	return f.user, nil
}

func (f *fakeAuth) SessionUser(ctx context.Context, store sessionstore.Store) (*auth.User, bool) {
	entry, err := store.Load(ctx)
	if err != nil {
		return nil, false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.sessions[entry.Token]
	return u, ok
}

func (f *fakeAuth) Logout(ctx context.Context, store sessionstore.Store) {
	if entry, err := store.Load(ctx); err == nil {
		f.mu.Lock()
		delete(f.sessions, entry.Token)
		f.mu.Unlock()
	}
	_ = store.Clear(ctx)
}

type testServer struct {
	router  http.Handler
	auth    *fakeAuth
	csrf    *shared.CSRFManager
	metrics *observability.Metrics
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	fa := newFakeAuth()
	csrf := shared.NewCSRFManager("csrfsecret")
	metrics := observability.NewMetrics()
	h := authhttp.NewHandler(nil, fa, csrf, metrics, nil)

	r := chi.NewRouter()
	r.Use(authctx.Middleware(fa, func(w http.ResponseWriter, r *http.Request) sessionstore.Store {
		return sessionstore.NewCookieStore(w, r, sessionstore.CookieOptions{TTL: time.Hour})
	}, nil))
	h.MountRoutes(r)
	return &testServer{router: r, auth: fa, csrf: csrf, metrics: metrics}
}

func (s *testServer) do(t *testing.T, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func findCookie(rr *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func (s *testServer) login(t *testing.T) *http.Cookie {
	t.Helper()
	rr := s.do(t, http.MethodPost, "/auth/login", `{"email":" HR@odyssey.test ","password":"correct horse"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	cookie := findCookie(rr, sessionstore.TokenCookie)
	require.NotNil(t, cookie)
	return cookie
}

func TestLoginSuccess(t *testing.T) {
	srv := newTestServer(t)
	rr := srv.do(t, http.MethodPost, "/auth/login", `{"email":"hr@odyssey.test","password":"correct horse"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Success bool       `json:"success"`
		User    *auth.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.True(t, body.Success)
	require.NotNil(t, body.User)
	assert.Equal(t, auth.RoleHR, body.User.Role)

	token := findCookie(rr, sessionstore.TokenCookie)
	require.NotNil(t, token)
	assert.True(t, token.HttpOnly)
	assert.Equal(t, 3600, token.MaxAge)
	user := findCookie(rr, sessionstore.UserIDCookie)
	require.NotNil(t, user)
	assert.Equal(t, srv.auth.user.ID.String(), user.Value)
}

func TestLoginInvalidCredentials(t *testing.T) {
	srv := newTestServer(t)
	rr := srv.do(t, http.MethodPost, "/auth/login", `{"email":"hr@odyssey.test","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.JSONEq(t, `{"success":false,"error":"Invalid email or password"}`, rr.Body.String())
	assert.Nil(t, findCookie(rr, sessionstore.TokenCookie))
}

func TestLoginServerFaultsAreGeneric(t *testing.T) {
	srv := newTestServer(t)
	srv.auth.loginErr = auth.ErrVerifyFailed
	rr := srv.do(t, http.MethodPost, "/auth/login", `{"email":"hr@odyssey.test","password":"correct horse"}`)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"success":false,"error":"Login failed, please try again"}`, rr.Body.String())
}

func TestLoginValidation(t *testing.T) {
	srv := newTestServer(t)

	rr := srv.do(t, http.MethodPost, "/auth/login", `not json`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = srv.do(t, http.MethodPost, "/auth/login", `{"email":"","password":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Invalid email or password")
}

func TestLoginRateLimited(t *testing.T) {
	srv := newTestServer(t)
	var last int
	for i := 0; i < 11; i++ {
		last = srv.do(t, http.MethodPost, "/auth/login", `{"email":"hr@odyssey.test","password":"nope"}`).Code
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
}

func TestSessionEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rr := srv.do(t, http.MethodGet, "/auth/session", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	cookie := srv.login(t)
	rr = srv.do(t, http.MethodGet, "/auth/session", "", cookie)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"role":"hr"`)
}

func TestLogoutClearsSession(t *testing.T) {
	srv := newTestServer(t)
	cookie := srv.login(t)

	rr := srv.do(t, http.MethodPost, "/auth/logout", "", cookie)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	cleared := findCookie(rr, sessionstore.TokenCookie)
	require.NotNil(t, cleared)
	assert.Less(t, cleared.MaxAge, 0)

	rr = srv.do(t, http.MethodGet, "/auth/session", "", cookie)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	// idempotent
	rr = srv.do(t, http.MethodPost, "/auth/logout", "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestCSRFToken(t *testing.T) {
	srv := newTestServer(t)

	rr := srv.do(t, http.MethodGet, "/auth/csrf", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	cookie := srv.login(t)
	rr = srv.do(t, http.MethodGet, "/auth/csrf", "", cookie)
	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.NoError(t, srv.csrf.VerifyToken(cookie.Value, body.Token))
}

func TestLoginOutcomesAreCounted(t *testing.T) {
	srv := newTestServer(t)
	srv.login(t)
	srv.do(t, http.MethodPost, "/auth/login", `{"email":"hr@odyssey.test","password":"nope"}`)

	rr := httptest.NewRecorder()
	srv.metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rr.Body.String(), `hrms_auth_logins_total{outcome="success"} 1`)
	assert.Contains(t, rr.Body.String(), `hrms_auth_logins_total{outcome="invalid_credentials"} 1`)
}
