package shared

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

const (
	// CSRFHeader carries the token on unsafe requests.
	CSRFHeader = "X-CSRF-Token"
	// CSRFFormField is the form field name carrying the CSRF token.
	CSRFFormField = "csrf_token"
)

// CSRFManager issues and verifies CSRF tokens bound to a session token.
// Tokens are stateless: the same session always yields the same token.
type CSRFManager struct {
	secret []byte
}

// NewCSRFManager returns a CSRFManager using the provided secret key.
func NewCSRFManager(secret string) *CSRFManager {
	return &CSRFManager{secret: []byte(secret)}
}

// Token derives the CSRF token for a session token.
func (m *CSRFManager) Token(sessionToken string) (string, error) {
	if sessionToken == "" {
		return "", ErrCSRFTokenMissing
	}
	return m.sign(sessionToken), nil
}

// VerifyToken compares the supplied token with the one derived from the session.
func (m *CSRFManager) VerifyToken(sessionToken, token string) error {
	if sessionToken == "" || token == "" {
		return ErrCSRFTokenMissing
	}
	if !hmac.Equal([]byte(m.sign(sessionToken)), []byte(token)) {
		return ErrCSRFTokenMismatch
	}
	return nil
}

func (m *CSRFManager) sign(sessionToken string) string {
	mac := hmac.New(sha256.New, m.secret)
	_, _ = mac.Write([]byte("csrf|"))
	_, _ = mac.Write([]byte(sessionToken))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
