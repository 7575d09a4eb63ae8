package middleware

import (
	"net/http"

	"github.com/mcoot/expense-tracker-go/internal/api/apierr"
	"github.com/mcoot/expense-tracker-go/internal/identity"
	"github.com/mcoot/expense-tracker-go/internal/model"
)

// cookieBinding ties an identity Context to one request's session cookie
type cookieBinding struct {
	w      http.ResponseWriter
	r      *http.Request
	cookie *SessionCookie
}

func (b *cookieBinding) SessionToken() (string, bool) {
	c, err := b.r.Cookie(SessionCookieName)
	if err != nil {
		return "", false
	}
	token, ok := b.cookie.Verify(c.Value)
	if !ok {
		return "", true
	}
	return token, true
}

func (b *cookieBinding) IssueSession(s *model.Session) {
	b.cookie.Write(b.w, s)
}

func (b *cookieBinding) ClearSession() {
	b.cookie.Clear(b.w)
}

// Session resolves the session cookie into an identity Context for every
// request. Requests without a valid session continue anonymously.
func Session(builder *identity.Builder, cookie *SessionCookie, errs *apierr.Responder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ic, err := builder.Build(r.Context(), &cookieBinding{w: w, r: r, cookie: cookie})
			if err != nil {
				errs.WriteError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(identity.WithContext(r.Context(), ic)))
		})
	}
}

// RequireIdentity rejects anonymous requests with UNAUTHENTICATED.
// It must run after Session.
func RequireIdentity(errs *apierr.Responder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ic := identity.FromContext(r.Context())
			if ic == nil {
				errs.WriteError(w, r, model.ErrUnauthenticated)
				return
			}
			if _, err := ic.RequireIdentity(r.Context()); err != nil {
				errs.WriteError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// MustGetIdentity returns the authenticated identity of a request that has
// passed RequireIdentity, or panics
func MustGetIdentity(r *http.Request) *model.Identity {
	ic := identity.FromContext(r.Context())
	if ic == nil {
		panic("no identity context - session middleware not applied?")
	}
	id, err := ic.CurrentIdentity(r.Context())
	if err != nil || id == nil {
		panic("no identity in context - RequireIdentity not applied?")
	}
	return id
}
