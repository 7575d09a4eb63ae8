package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/mcoot/expense-tracker-go/internal/model"
)

// SessionCookieName is the cookie carrying the signed session token
const SessionCookieName = "session-id"

// CookieConfig configures the session cookie
type CookieConfig struct {
	Secret []byte
	Secure bool
	TTL    time.Duration
}

// SessionCookie signs, verifies, writes and clears the session cookie.
// The cookie value is "<token>.<signature>" where the signature is the
// unpadded base64url HMAC-SHA256 of the token.
type SessionCookie struct {
	cfg CookieConfig
}

// NewSessionCookie creates a SessionCookie
func NewSessionCookie(cfg CookieConfig) *SessionCookie {
	return &SessionCookie{cfg: cfg}
}

func (c *SessionCookie) signature(token string) string {
	mac := hmac.New(sha256.New, c.cfg.Secret)
	mac.Write([]byte(token))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Sign returns the cookie value for token
func (c *SessionCookie) Sign(token string) string {
	return token + "." + c.signature(token)
}

// Verify returns the token from a cookie value if its signature is valid
func (c *SessionCookie) Verify(value string) (string, bool) {
	token, sig, ok := strings.Cut(value, ".")
	if !ok || token == "" || sig == "" {
		return "", false
	}
	if !hmac.Equal([]byte(sig), []byte(c.signature(token))) {
		return "", false
	}
	return token, true
}

// Write sets the session cookie for s on the response
func (c *SessionCookie) Write(w http.ResponseWriter, s *model.Session) {
	setCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    c.Sign(s.Token),
		Path:     "/",
		MaxAge:   int(c.cfg.TTL / time.Second),
		HttpOnly: true,
		Secure:   c.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear expires the session cookie on the response
func (c *SessionCookie) Clear(w http.ResponseWriter) {
	setCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// setCookie replaces any session cookie already set on this response so the
// client only ever sees the final decision
func setCookie(w http.ResponseWriter, cookie *http.Cookie) {
	prefix := cookie.Name + "="
	existing := w.Header().Values("Set-Cookie")
	kept := existing[:0:0]
	for _, v := range existing {
		if !strings.HasPrefix(v, prefix) {
			kept = append(kept, v)
		}
	}
	w.Header().Del("Set-Cookie")
	for _, v := range kept {
		w.Header().Add("Set-Cookie", v)
	}
	http.SetCookie(w, cookie)
}
