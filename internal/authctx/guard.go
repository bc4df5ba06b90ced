package authctx

import (
	"net/http"
	"strings"

	"github.com/odyssey-erp/odyssey-hrms/internal/platform/httpx"
)

// Decision is the outcome of the route guard.
type Decision int

const (
	// DecisionWait renders nothing until the initial session check resolves.
	DecisionWait Decision = iota
	// DecisionRedirect sends the caller to the login entry point.
	DecisionRedirect
	// DecisionRender serves the protected content.
	DecisionRender
)

func (d Decision) String() string {
	switch d {
	case DecisionWait:
		return "wait"
	case DecisionRedirect:
		return "redirect"
	case DecisionRender:
		return "render"
	}
	return "unknown"
}

// Decide maps a provider state to a guard decision.
func Decide(s State) Decision {
	switch {
	case s.Loading:
		return DecisionWait
	case s.User == nil:
		return DecisionRedirect
	default:
		return DecisionRender
	}
}

// Guard protects the wrapped routes. Browser navigations are redirected to
// loginPath; API callers get a 401 problem.
func Guard(loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			state := State{Loading: true}
			if p := FromContext(r.Context()); p != nil {
				state = p.State()
			}
			switch Decide(state) {
			case DecisionWait:
				w.WriteHeader(http.StatusNoContent)
			case DecisionRedirect:
				if wantsHTML(r) {
					http.Redirect(w, r, loginPath, http.StatusSeeOther)
					return
				}
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "sign in required")
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}
