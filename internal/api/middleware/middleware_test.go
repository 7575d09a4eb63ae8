package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/expense-tracker-go/internal/api/apierr"
	"github.com/mcoot/expense-tracker-go/internal/model"
	"github.com/mcoot/expense-tracker-go/internal/testutil"
)

func newCookie(secret string) *SessionCookie {
	return NewSessionCookie(CookieConfig{Secret: []byte(secret), TTL: time.Hour})
}

func TestSignVerifyRoundTrip(t *testing.T) {
	c := newCookie("k1")

	token, ok := c.Verify(c.Sign("abc_DEF-123"))
	assert.True(t, ok)
	assert.Equal(t, "abc_DEF-123", token)
}

func TestVerifyRejectsTampering(t *testing.T) {
	c := newCookie("k1")
	signed := c.Sign("token")
	_, sig, _ := strings.Cut(signed, ".")

	cases := map[string]string{
		"other token":       "other." + sig,
		"other key":         newCookie("k2").Sign("token"),
		"missing signature": "token",
		"empty signature":   "token.",
		"empty token":       "." + sig,
		"empty":             "",
	}
	for name, value := range cases {
		t.Run(name, func(t *testing.T) {
			_, ok := c.Verify(value)
			assert.False(t, ok)
		})
	}
}

func TestWriteAndClear(t *testing.T) {
	c := NewSessionCookie(CookieConfig{Secret: []byte("k"), Secure: true, TTL: 2 * time.Hour})
	rec := httptest.NewRecorder()

	c.Write(rec, &model.Session{Token: "tok"})
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookieName, cookies[0].Name)
	assert.Equal(t, c.Sign("tok"), cookies[0].Value)
	assert.Equal(t, 7200, cookies[0].MaxAge)
	assert.True(t, cookies[0].Secure)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)

	// Clearing replaces the cookie set earlier in the same response
	c.Clear(rec)
	cookies = rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "", cookies[0].Value)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestSetCookieKeepsOtherCookies(t *testing.T) {
	rec := httptest.NewRecorder()
	http.SetCookie(rec, &http.Cookie{Name: "theme", Value: "dark"})

	newCookie("k").Write(rec, &model.Session{Token: "tok"})
	newCookie("k").Clear(rec)

	names := []string{}
	for _, ck := range rec.Result().Cookies() {
		names = append(names, ck.Name)
	}
	assert.ElementsMatch(t, []string{"theme", SessionCookieName}, names)
}

func TestRecoveryWritesInternalError(t *testing.T) {
	errs := apierr.NewResponder(testutil.NopLogger(), false)
	h := Recovery(testutil.NopLogger(), errs)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/x", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var resp apierr.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, apierr.CodeInternalError, resp.Error.Code)
	assert.Equal(t, "Internal server error", resp.Error.Message)
}

func TestLoggingCapturesStatus(t *testing.T) {
	logger, logs := testutil.CaptureLogger()
	h := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/pot", nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(logs.String()), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "/api/v1/pot", entry["path"])
	assert.EqualValues(t, http.StatusTeapot, entry["status"])
	assert.EqualValues(t, len("short and stout"), entry["size"])
}

func TestRequireIdentityWithoutSessionMiddleware(t *testing.T) {
	errs := apierr.NewResponder(testutil.NopLogger(), false)
	called := false
	h := RequireIdentity(errs)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/users", nil))

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
