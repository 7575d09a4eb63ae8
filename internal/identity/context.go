// Package identity builds the request-scoped view of who is making a request
// and lets handlers log identities in and out.
package identity

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mcoot/expense-tracker-go/internal/model"
	"github.com/mcoot/expense-tracker-go/internal/services/auth"
	"github.com/mcoot/expense-tracker-go/internal/services/credential"
	"github.com/mcoot/expense-tracker-go/internal/services/session"
)

// SessionState is how far a request got towards being authenticated
type SessionState int

const (
	NoCookie SessionState = iota
	CookieInvalid
	SessionExpired
	Authenticated
)

func (s SessionState) String() string {
	switch s {
	case NoCookie:
		return "no_cookie"
	case CookieInvalid:
		return "cookie_invalid"
	case SessionExpired:
		return "session_expired"
	case Authenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Binding connects a Context to the session cookie of one request/response.
// The session middleware implements it.
type Binding interface {
	// SessionToken returns the verified token from the request cookie and
	// whether a session cookie was sent at all. A cookie that fails
	// verification yields ("", true).
	SessionToken() (token string, present bool)

	// IssueSession sets the session cookie on the response
	IssueSession(s *model.Session)

	// ClearSession expires the session cookie on the response
	ClearSession()
}

// Context is the per-request identity facade handed to handlers.
// It must not be shared between requests.
type Context struct {
	sessions    *session.Service
	credentials *credential.Service
	strategies  *auth.Registry
	binding     Binding
	logger      *slog.Logger

	state    SessionState
	session  *model.Session
	resolved bool
	identity *model.Identity
}

// State returns the request's session state
func (c *Context) State() SessionState {
	return c.state
}

// CurrentIdentity returns the logged-in identity, or nil when the request is
// anonymous. The lookup happens at most once per request. Errors are only
// returned when the credential store cannot be reached.
func (c *Context) CurrentIdentity(ctx context.Context) (*model.Identity, error) {
	if c.resolved {
		return c.identity, nil
	}
	if c.session == nil {
		c.resolved = true
		return nil, nil
	}

	identity, err := c.credentials.FindByID(ctx, c.session.IdentityID)
	if errors.Is(err, model.ErrIdentityNotFound) {
		// The session outlived its identity; treat the request as anonymous
		c.logger.Warn("session references missing identity",
			slog.String("identity_id", string(c.session.IdentityID)),
		)
		identity = nil
	} else if err != nil {
		return nil, err
	}

	c.identity = identity
	c.resolved = true
	return identity, nil
}

// RequireIdentity is CurrentIdentity for protected operations: an anonymous
// request fails with model.ErrUnauthenticated.
func (c *Context) RequireIdentity(ctx context.Context) (*model.Identity, error) {
	identity, err := c.CurrentIdentity(ctx)
	if err != nil {
		return nil, err
	}
	if identity == nil {
		return nil, model.ErrUnauthenticated
	}
	return identity, nil
}

// Authenticate verifies credentials with the named strategy. It does not log
// the identity in.
func (c *Context) Authenticate(ctx context.Context, strategyName string, creds auth.Credentials) (*model.Identity, error) {
	strategy, err := c.strategies.Get(strategyName)
	if err != nil {
		return nil, err
	}
	return strategy.Authenticate(ctx, creds)
}

// Login starts a new session for identity and sets the cookie. Any session
// the request already carried is destroyed first. The session is stored
// before the cookie is issued.
func (c *Context) Login(ctx context.Context, identity *model.Identity) error {
	if c.session != nil {
		if err := c.sessions.Replace(ctx, c.session.Token); err != nil {
			return err
		}
		c.session = nil
	}

	s, err := c.sessions.Create(ctx, identity.ID)
	if err != nil {
		return err
	}
	c.binding.IssueSession(s)

	c.session = s
	c.identity = identity
	c.resolved = true
	c.state = Authenticated
	return nil
}

// Logout destroys the request's session, if any, and clears the cookie.
// Logging out an anonymous request is not an error.
func (c *Context) Logout(ctx context.Context) error {
	if c.session != nil {
		if err := c.sessions.Destroy(ctx, c.session.Token); err != nil {
			return err
		}
	}
	c.binding.ClearSession()
	c.reset()
	return nil
}

// LogoutAll destroys every session of the current identity, including this
// one, and clears the cookie. It returns how many sessions were destroyed.
func (c *Context) LogoutAll(ctx context.Context) (int, error) {
	identity, err := c.RequireIdentity(ctx)
	if err != nil {
		return 0, err
	}

	count, err := c.sessions.DestroyAllForIdentity(ctx, identity.ID)
	if err != nil {
		return 0, err
	}
	c.binding.ClearSession()
	c.reset()
	return count, nil
}

func (c *Context) reset() {
	c.session = nil
	c.identity = nil
	c.resolved = true
	c.state = NoCookie
}

type contextKey struct{}

// WithContext returns a copy of ctx carrying ic
func WithContext(ctx context.Context, ic *Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ic)
}

// FromContext returns the identity Context attached by the session
// middleware, or nil
func FromContext(ctx context.Context) *Context {
	ic, _ := ctx.Value(contextKey{}).(*Context)
	return ic
}
