// Package session manages the lifecycle of login sessions: creation,
// lookup, refresh, destruction and the expiry sweep.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mcoot/expense-tracker-go/internal/dependencies/clock"
	"github.com/mcoot/expense-tracker-go/internal/dependencies/random"
	"github.com/mcoot/expense-tracker-go/internal/metrics"
	"github.com/mcoot/expense-tracker-go/internal/model"
	"github.com/mcoot/expense-tracker-go/internal/storage"
)

// ErrExpired is returned by Get for a session past its expiry. It matches
// model.ErrSessionNotFound.
var ErrExpired = fmt.Errorf("%w: expired", model.ErrSessionNotFound)

// TokenBytes is the number of random bytes in a session token (256 bits)
const TokenBytes = 32

// Config holds configuration for the session service
type Config struct {
	// TTL is how long a session lives after creation (or after its last
	// activity when Sliding is set)
	TTL time.Duration

	// Sliding refreshes the expiry on every authenticated request
	Sliding bool

	// SweepInterval is how often RunSweeper removes expired sessions
	SweepInterval time.Duration
}

// DefaultConfig returns default session configuration
func DefaultConfig() Config {
	return Config{
		TTL:           7 * 24 * time.Hour,
		Sliding:       false,
		SweepInterval: time.Hour,
	}
}

// Service handles session persistence
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	random  random.Random
	metrics *metrics.Metrics
	logger  *slog.Logger
	cfg     Config
}

// New creates a session service
func New(
	storage storage.Storage,
	clock clock.Clock,
	random random.Random,
	m *metrics.Metrics,
	logger *slog.Logger,
	cfg Config,
) *Service {
	defaults := DefaultConfig()
	if cfg.TTL <= 0 {
		cfg.TTL = defaults.TTL
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = defaults.SweepInterval
	}
	return &Service{
		storage: storage,
		clock:   clock,
		random:  random,
		metrics: m,
		logger:  logger.With(slog.String("component", "session-service")),
		cfg:     cfg,
	}
}

// TTL returns the configured session lifetime
func (s *Service) TTL() time.Duration {
	return s.cfg.TTL
}

// Sliding reports whether sessions are refreshed on activity
func (s *Service) Sliding() bool {
	return s.cfg.Sliding
}

// Create starts a new session for an identity
func (s *Service) Create(ctx context.Context, identityID model.IdentityID) (*model.Session, error) {
	token, err := s.random.Token(TokenBytes)
	if err != nil {
		return nil, fmt.Errorf("generate session token: %w", err)
	}

	now := s.clock.Now()
	session := &model.Session{
		Token:      token,
		IdentityID: identityID,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.cfg.TTL),
	}

	if err := s.storage.SaveSession(ctx, session); err != nil {
		s.logger.Error("failed to save session",
			slog.String("identity_id", string(identityID)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	s.metrics.SessionCreated()
	s.logger.Debug("session created", slog.String("identity_id", string(identityID)))
	return session, nil
}

// Get returns a live session. Expired sessions are deleted and reported as
// ErrExpired.
func (s *Service) Get(ctx context.Context, token string) (*model.Session, error) {
	session, err := s.storage.GetSession(ctx, token)
	if err != nil {
		return nil, err
	}

	if session.Expired(s.clock.Now()) {
		if err := s.storage.DeleteSession(ctx, token); err != nil {
			s.logger.Warn("failed to delete expired session", slog.String("error", err.Error()))
		} else {
			s.metrics.SessionsDestroyed(metrics.ReasonExpired, 1)
		}
		return nil, ErrExpired
	}
	return session, nil
}

// Touch pushes a live session's expiry to now+TTL
func (s *Service) Touch(ctx context.Context, token string) (*model.Session, error) {
	session, err := s.Get(ctx, token)
	if err != nil {
		return nil, err
	}

	session.ExpiresAt = s.clock.Now().Add(s.cfg.TTL)
	if err := s.storage.ExtendSession(ctx, token, session.ExpiresAt); err != nil {
		return nil, err
	}
	return session, nil
}

// Destroy ends a session. Destroying an unknown token is not an error.
func (s *Service) Destroy(ctx context.Context, token string) error {
	return s.destroy(ctx, token, metrics.ReasonLogout)
}

// Replace ends a session that is being superseded by a fresh login
func (s *Service) Replace(ctx context.Context, token string) error {
	return s.destroy(ctx, token, metrics.ReasonReplaced)
}

func (s *Service) destroy(ctx context.Context, token, reason string) error {
	if token == "" {
		return nil
	}
	if err := s.storage.DeleteSession(ctx, token); err != nil {
		return fmt.Errorf("destroy session: %w", err)
	}
	s.metrics.SessionsDestroyed(reason, 1)
	return nil
}

// DestroyAllForIdentity ends every session of an identity and returns how
// many were ended
func (s *Service) DestroyAllForIdentity(ctx context.Context, identityID model.IdentityID) (int, error) {
	count, err := s.storage.DeleteSessionsForIdentity(ctx, identityID)
	if err != nil {
		return 0, fmt.Errorf("destroy sessions: %w", err)
	}

	s.metrics.SessionsDestroyed(metrics.ReasonLogoutAll, count)
	s.logger.Info("all sessions destroyed",
		slog.String("identity_id", string(identityID)),
		slog.Int("count", count),
	)
	return count, nil
}

// Sweep removes every expired session
func (s *Service) Sweep(ctx context.Context) (int, error) {
	count, err := s.storage.DeleteExpiredSessions(ctx, s.clock.Now())
	if err != nil {
		return 0, fmt.Errorf("sweep sessions: %w", err)
	}
	s.metrics.Swept(count)
	return count, nil
}

// RunSweeper sweeps expired sessions every SweepInterval until ctx is
// cancelled. Sweep failures are logged and retried on the next tick.
func (s *Service) RunSweeper(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	s.logger.Info("session sweeper started", slog.Duration("interval", s.cfg.SweepInterval))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("session sweeper stopped")
			return nil
		case <-ticker.C:
			count, err := s.Sweep(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				s.logger.Error("session sweep failed", slog.String("error", err.Error()))
				continue
			}
			if count > 0 {
				s.logger.Info("expired sessions swept", slog.Int("count", count))
			}
		}
	}
}
