// Package auth verifies credentials and registers new identities.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mcoot/expense-tracker-go/internal/metrics"
	"github.com/mcoot/expense-tracker-go/internal/model"
	"github.com/mcoot/expense-tracker-go/internal/services/credential"
	"github.com/mcoot/expense-tracker-go/internal/services/password"
)

// Signup limits
const (
	MaxUsernameLength = 32
	MinSecretLength   = 6
	// MaxSecretBytes is bcrypt's input limit
	MaxSecretBytes = 72
)

// dummySecret is hashed once at startup. Unknown usernames are verified
// against it so they cost the same as a wrong password.
const dummySecret = "expense-tracker-dummy-secret"

// SignUpInput holds the fields of a signup request
type SignUpInput struct {
	Username    string
	DisplayName string
	Secret      string
	Gender      model.Gender
}

// Service is the local username/secret authentication strategy and the
// signup flow
type Service struct {
	credentials *credential.Service
	hasher      password.Hasher
	metrics     *metrics.Metrics
	logger      *slog.Logger
	dummyHash   string
}

// Ensure Service is usable as a Strategy
var _ Strategy = (*Service)(nil)

// New creates an auth service
func New(
	credentials *credential.Service,
	hasher password.Hasher,
	m *metrics.Metrics,
	logger *slog.Logger,
) (*Service, error) {
	dummyHash, err := hasher.Hash(dummySecret)
	if err != nil {
		return nil, fmt.Errorf("hash dummy secret: %w", err)
	}

	return &Service{
		credentials: credentials,
		hasher:      hasher,
		metrics:     m,
		logger:      logger.With(slog.String("component", "auth-service")),
		dummyHash:   dummyHash,
	}, nil
}

func (s *Service) Name() string {
	return LocalStrategyName
}

// Authenticate checks a username and secret. Unknown usernames and wrong
// secrets both fail with model.ErrInvalidCredentials after one hash
// verification each.
func (s *Service) Authenticate(ctx context.Context, creds Credentials) (*model.Identity, error) {
	if err := ValidateCredentials(creds); err != nil {
		s.metrics.Login(metrics.ResultInvalidInput)
		return nil, err
	}

	identity, err := s.credentials.FindByUsername(ctx, creds.Username)
	if err != nil && !errors.Is(err, model.ErrIdentityNotFound) {
		s.metrics.Login(metrics.ResultError)
		return nil, err
	}

	if identity == nil {
		_ = s.hasher.Verify(creds.Secret, s.dummyHash)
		return nil, s.rejectLogin(creds.Username)
	}

	if !s.hasher.Verify(creds.Secret, identity.PasswordHash) {
		return nil, s.rejectLogin(creds.Username)
	}

	s.metrics.Login(metrics.ResultSuccess)
	s.logger.Info("login succeeded",
		slog.String("identity_id", string(identity.ID)),
		slog.String("username", identity.Username),
	)
	return identity, nil
}

func (s *Service) rejectLogin(username string) error {
	s.metrics.Login(metrics.ResultInvalidCredentials)
	s.logger.Info("login rejected", slog.String("username", username))
	return model.ErrInvalidCredentials
}

// SignUp validates the input, hashes the secret and creates the identity.
// A taken username fails with model.ErrDuplicateUsername and writes nothing.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (*model.Identity, error) {
	in, err := normalizeSignUp(in)
	if err != nil {
		s.metrics.Signup(metrics.ResultInvalidInput)
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Secret)
	if err != nil {
		s.metrics.Signup(metrics.ResultError)
		return nil, fmt.Errorf("hash secret: %w", err)
	}

	identity, err := s.credentials.Create(ctx, in.Username, in.DisplayName, hash, in.Gender)
	if err != nil {
		if errors.Is(err, model.ErrDuplicateUsername) {
			s.metrics.Signup(metrics.ResultDuplicate)
		} else {
			s.metrics.Signup(metrics.ResultError)
		}
		return nil, err
	}

	s.metrics.Signup(metrics.ResultSuccess)
	s.logger.Info("identity created",
		slog.String("identity_id", string(identity.ID)),
		slog.String("username", identity.Username),
	)
	return identity, nil
}

// ValidateCredentials rejects blank login fields
func ValidateCredentials(creds Credentials) error {
	if strings.TrimSpace(creds.Username) == "" {
		return model.NewValidationError("username", "is required")
	}
	if strings.TrimSpace(creds.Secret) == "" {
		return model.NewValidationError("password", "is required")
	}
	return nil
}

func normalizeSignUp(in SignUpInput) (SignUpInput, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.DisplayName = strings.TrimSpace(in.DisplayName)
	in.Gender = model.Gender(strings.TrimSpace(string(in.Gender)))

	switch {
	case in.Username == "":
		return in, model.NewValidationError("username", "is required")
	case in.DisplayName == "":
		return in, model.NewValidationError("displayName", "is required")
	case strings.TrimSpace(in.Secret) == "":
		return in, model.NewValidationError("password", "is required")
	case in.Gender == "":
		return in, model.NewValidationError("gender", "is required")
	}

	if utf8.RuneCountInString(in.Username) > MaxUsernameLength {
		return in, model.NewValidationError("username", fmt.Sprintf("must be at most %d characters", MaxUsernameLength))
	}
	if strings.IndexFunc(in.Username, unicode.IsSpace) >= 0 {
		return in, model.NewValidationError("username", "must not contain whitespace")
	}
	if utf8.RuneCountInString(in.Secret) < MinSecretLength {
		return in, model.NewValidationError("password", fmt.Sprintf("must be at least %d characters", MinSecretLength))
	}
	if len(in.Secret) > MaxSecretBytes {
		return in, model.NewValidationError("password", fmt.Sprintf("must be at most %d bytes", MaxSecretBytes))
	}
	if !in.Gender.Valid() {
		return in, model.NewValidationError("gender", "must be male or female")
	}
	return in, nil
}
