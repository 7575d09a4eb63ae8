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

// Builder creates a Context for each request
type Builder struct {
	sessions    *session.Service
	credentials *credential.Service
	strategies  *auth.Registry
	logger      *slog.Logger
}

// NewBuilder creates a Builder
func NewBuilder(
	sessions *session.Service,
	credentials *credential.Service,
	strategies *auth.Registry,
	logger *slog.Logger,
) *Builder {
	return &Builder{
		sessions:    sessions,
		credentials: credentials,
		strategies:  strategies,
		logger:      logger.With(slog.String("component", "identity")),
	}
}

// Build resolves the request's session cookie into a Context. An unknown or
// expired session leaves the request anonymous and clears the cookie. With
// sliding sessions a live session is refreshed and its cookie reissued.
// Only store failures are returned as errors.
func (b *Builder) Build(ctx context.Context, binding Binding) (*Context, error) {
	c := &Context{
		sessions:    b.sessions,
		credentials: b.credentials,
		strategies:  b.strategies,
		binding:     binding,
		logger:      b.logger,
		state:       NoCookie,
	}

	token, present := binding.SessionToken()
	if !present {
		return c, nil
	}
	if token == "" {
		c.state = CookieInvalid
		binding.ClearSession()
		return c, nil
	}

	s, err := b.lookup(ctx, token)
	switch {
	case errors.Is(err, session.ErrExpired):
		c.state = SessionExpired
		binding.ClearSession()
		return c, nil
	case errors.Is(err, model.ErrSessionNotFound):
		c.state = CookieInvalid
		binding.ClearSession()
		return c, nil
	case err != nil:
		return nil, err
	}

	if b.sessions.Sliding() {
		binding.IssueSession(s)
	}

	c.state = Authenticated
	c.session = s
	return c, nil
}

func (b *Builder) lookup(ctx context.Context, token string) (*model.Session, error) {
	if b.sessions.Sliding() {
		return b.sessions.Touch(ctx, token)
	}
	return b.sessions.Get(ctx, token)
}
