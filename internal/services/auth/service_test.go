package auth

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/expense-tracker-go/internal/dependencies/mocks"
	"github.com/mcoot/expense-tracker-go/internal/metrics"
	"github.com/mcoot/expense-tracker-go/internal/model"
	"github.com/mcoot/expense-tracker-go/internal/services/credential"
	"github.com/mcoot/expense-tracker-go/internal/services/password"
	"github.com/mcoot/expense-tracker-go/internal/storage/memory"
	"github.com/mcoot/expense-tracker-go/internal/testutil"
)

// countingHasher records how many verifications were performed
type countingHasher struct {
	password.Hasher
	verifies atomic.Int32
}

func (h *countingHasher) Verify(secret, hash string) bool {
	h.verifies.Add(1)
	return h.Hasher.Verify(secret, hash)
}

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	hasher  *countingHasher
	metrics *metrics.Metrics
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	clk := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))

	hasher, err := password.New(password.Config{BcryptCost: bcrypt.MinCost}, mocks.NewMockRandom())
	s.Require().NoError(err)
	s.hasher = &countingHasher{Hasher: hasher}
	s.metrics = metrics.New()

	s.service, err = New(credential.New(s.storage, clk), s.hasher, s.metrics, testutil.NopLogger())
	s.Require().NoError(err)
	s.ctx = context.Background()
}

func (s *ServiceSuite) signUpAlice() *model.Identity {
	identity, err := s.service.SignUp(s.ctx, SignUpInput{
		Username:    "alice",
		DisplayName: "Alice A.",
		Secret:      "secret123",
		Gender:      model.GenderFemale,
	})
	s.Require().NoError(err)
	return identity
}

// SignUp tests

func (s *ServiceSuite) TestSignUpSucceeds() {
	identity := s.signUpAlice()

	s.Equal("alice", identity.Username)
	s.Equal("Alice A.", identity.DisplayName)
	s.Contains(identity.ProfileImageURL, "girl")
	s.NotEqual("secret123", identity.PasswordHash)
	s.Equal(1.0, promtest.ToFloat64(s.metrics.SignupsTotal.WithLabelValues(metrics.ResultSuccess)))
}

func (s *ServiceSuite) TestSignUpTrimsFields() {
	identity, err := s.service.SignUp(s.ctx, SignUpInput{
		Username:    "  bob ",
		DisplayName: " Bob ",
		Secret:      "secret123",
		Gender:      " male",
	})
	s.Require().NoError(err)
	s.Equal("bob", identity.Username)
	s.Equal("Bob", identity.DisplayName)
	s.Equal(model.GenderMale, identity.Gender)
}

func (s *ServiceSuite) TestSignUpThenLogin() {
	created := s.signUpAlice()

	identity, err := s.service.Authenticate(s.ctx, Credentials{Username: "alice", Secret: "secret123"})
	s.Require().NoError(err)
	s.Equal(created.ID, identity.ID)
}

func (s *ServiceSuite) TestSignUpDuplicateUsername() {
	first := s.signUpAlice()

	_, err := s.service.SignUp(s.ctx, SignUpInput{
		Username:    "alice",
		DisplayName: "Impostor",
		Secret:      "another-secret",
		Gender:      model.GenderMale,
	})
	s.ErrorIs(err, model.ErrDuplicateUsername)

	identities, err := s.storage.ListIdentities(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(identities, 1)
	s.Equal(first.ID, identities[0].ID)
	s.Equal(first.PasswordHash, identities[0].PasswordHash)
	s.Equal(1.0, promtest.ToFloat64(s.metrics.SignupsTotal.WithLabelValues(metrics.ResultDuplicate)))
}

func (s *ServiceSuite) TestSignUpValidation() {
	valid := SignUpInput{Username: "carol", DisplayName: "Carol", Secret: "secret123", Gender: model.GenderFemale}

	cases := []struct {
		name  string
		edit  func(in *SignUpInput)
		field string
	}{
		{"blank username", func(in *SignUpInput) { in.Username = "   " }, "username"},
		{"blank display name", func(in *SignUpInput) { in.DisplayName = "" }, "displayName"},
		{"blank secret", func(in *SignUpInput) { in.Secret = " " }, "password"},
		{"blank gender", func(in *SignUpInput) { in.Gender = "" }, "gender"},
		{"long username", func(in *SignUpInput) { in.Username = strings.Repeat("a", MaxUsernameLength+1) }, "username"},
		{"username with space", func(in *SignUpInput) { in.Username = "carol smith" }, "username"},
		{"short secret", func(in *SignUpInput) { in.Secret = "12345" }, "password"},
		{"long secret", func(in *SignUpInput) { in.Secret = strings.Repeat("a", MaxSecretBytes+1) }, "password"},
		{"long multibyte secret", func(in *SignUpInput) { in.Secret = strings.Repeat("é", 37) }, "password"},
		{"unknown gender", func(in *SignUpInput) { in.Gender = "other" }, "gender"},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			in := valid
			tc.edit(&in)

			_, err := s.service.SignUp(s.ctx, in)
			s.Require().Error(err)

			var ve *model.ValidationError
			s.Require().ErrorAs(err, &ve)
			s.Equal(tc.field, ve.Field)
		})
	}

	identities, err := s.storage.ListIdentities(s.ctx)
	s.Require().NoError(err)
	s.Empty(identities)
}

func (s *ServiceSuite) TestSignUpAcceptsMaxLengthUsername() {
	_, err := s.service.SignUp(s.ctx, SignUpInput{
		Username:    strings.Repeat("a", MaxUsernameLength),
		DisplayName: "Long",
		Secret:      "123456",
		Gender:      model.GenderMale,
	})
	s.NoError(err)
}

func (s *ServiceSuite) TestSignUpAcceptsMaxLengthSecret() {
	secret := strings.Repeat("a", MaxSecretBytes)
	_, err := s.service.SignUp(s.ctx, SignUpInput{
		Username:    "dave",
		DisplayName: "Dave",
		Secret:      secret,
		Gender:      model.GenderMale,
	})
	s.Require().NoError(err)

	identity, err := s.service.Authenticate(s.ctx, Credentials{Username: "dave", Secret: secret})
	s.Require().NoError(err)
	s.Equal("dave", identity.Username)
}

// Authenticate tests

func (s *ServiceSuite) TestAuthenticateWrongSecret() {
	s.signUpAlice()

	_, err := s.service.Authenticate(s.ctx, Credentials{Username: "alice", Secret: "wrongpass"})
	s.ErrorIs(err, model.ErrInvalidCredentials)
}

func (s *ServiceSuite) TestAuthenticateUnknownUserMatchesWrongSecret() {
	s.signUpAlice()

	_, wrongSecret := s.service.Authenticate(s.ctx, Credentials{Username: "alice", Secret: "wrongpass"})
	_, unknownUser := s.service.Authenticate(s.ctx, Credentials{Username: "mallory", Secret: "wrongpass"})

	s.Equal(wrongSecret, unknownUser)
	s.Equal(wrongSecret.Error(), unknownUser.Error())
}

func (s *ServiceSuite) TestAuthenticateUnknownUserStillVerifies() {
	_, err := s.service.Authenticate(s.ctx, Credentials{Username: "mallory", Secret: "whatever"})
	s.ErrorIs(err, model.ErrInvalidCredentials)
	s.Equal(int32(1), s.hasher.verifies.Load())
}

func (s *ServiceSuite) TestAuthenticateIsCaseSensitive() {
	s.signUpAlice()

	_, err := s.service.Authenticate(s.ctx, Credentials{Username: "Alice", Secret: "secret123"})
	s.ErrorIs(err, model.ErrInvalidCredentials)
}

func (s *ServiceSuite) TestAuthenticateBlankFields() {
	_, err := s.service.Authenticate(s.ctx, Credentials{Username: "", Secret: "secret123"})
	s.True(model.IsValidationError(err))

	_, err = s.service.Authenticate(s.ctx, Credentials{Username: "alice", Secret: ""})
	s.True(model.IsValidationError(err))

	s.Zero(s.hasher.verifies.Load())
}

func (s *ServiceSuite) TestAuthenticateRecordsMetrics() {
	s.signUpAlice()

	_, _ = s.service.Authenticate(s.ctx, Credentials{Username: "alice", Secret: "secret123"})
	_, _ = s.service.Authenticate(s.ctx, Credentials{Username: "alice", Secret: "nope-nope"})
	_, _ = s.service.Authenticate(s.ctx, Credentials{Username: "ghost", Secret: "nope-nope"})

	s.Equal(1.0, promtest.ToFloat64(s.metrics.LoginsTotal.WithLabelValues(metrics.ResultSuccess)))
	s.Equal(2.0, promtest.ToFloat64(s.metrics.LoginsTotal.WithLabelValues(metrics.ResultInvalidCredentials)))
}

func (s *ServiceSuite) TestName() {
	s.Equal(LocalStrategyName, s.service.Name())
}
