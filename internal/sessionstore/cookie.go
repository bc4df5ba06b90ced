package sessionstore

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// Cookie names used by CookieStore.
const (
	TokenCookie  = "hrms_session_token"
	UserIDCookie = "hrms_user_id"
)

// CookieOptions configures the cookies written by CookieStore.
type CookieOptions struct {
	TTL    time.Duration
	Secure bool
	Path   string
}

// CookieStore is a per-request Store backed by two browser cookies.
type CookieStore struct {
	w    http.ResponseWriter
	r    *http.Request
	opts CookieOptions

	// pending reflects writes made during this request so later Loads see them.
	pending *Entry
	cleared bool
}

// NewCookieStore binds a store to the current request/response pair.
func NewCookieStore(w http.ResponseWriter, r *http.Request, opts CookieOptions) *CookieStore {
	if opts.Path == "" {
		opts.Path = "/"
	}
	return &CookieStore{w: w, r: r, opts: opts}
}

// Load reads the token and user id cookies.
func (s *CookieStore) Load(ctx context.Context) (Entry, error) {
	if s.cleared {
		return Entry{}, ErrEmpty
	}
	if s.pending != nil {
		return *s.pending, nil
	}
	token, err := s.r.Cookie(TokenCookie)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return Entry{}, ErrEmpty
		}
		return Entry{}, err
	}
	if token.Value == "" {
		return Entry{}, ErrEmpty
	}
	entry := Entry{Token: token.Value}
	if user, err := s.r.Cookie(UserIDCookie); err == nil {
		entry.UserID = user.Value
	}
	return entry, nil
}

// Save writes both cookies.
func (s *CookieStore) Save(ctx context.Context, entry Entry) error {
	maxAge := int(s.opts.TTL / time.Second)
	http.SetCookie(s.w, s.cookie(TokenCookie, entry.Token, maxAge))
	http.SetCookie(s.w, s.cookie(UserIDCookie, entry.UserID, maxAge))
	s.pending = &entry
	s.cleared = false
	return nil
}

// Clear expires both cookies.
func (s *CookieStore) Clear(ctx context.Context) error {
	http.SetCookie(s.w, s.cookie(TokenCookie, "", -1))
	http.SetCookie(s.w, s.cookie(UserIDCookie, "", -1))
	s.pending = nil
	s.cleared = true
	return nil
}

func (s *CookieStore) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     s.opts.Path,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

var _ Store = (*CookieStore)(nil)
