package session

import (
	"context"
	"errors"
	"testing"
	"time"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/expense-tracker-go/internal/dependencies/mocks"
	"github.com/mcoot/expense-tracker-go/internal/metrics"
	"github.com/mcoot/expense-tracker-go/internal/model"
	"github.com/mcoot/expense-tracker-go/internal/storage/memory"
	"github.com/mcoot/expense-tracker-go/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	clock   *mocks.MockClock
	random  *mocks.MockRandom
	metrics *metrics.Metrics
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.metrics = metrics.New()
	s.service = New(s.storage, s.clock, s.random, s.metrics, testutil.NopLogger(), DefaultConfig())
	s.ctx = context.Background()
}

// Create tests

func (s *ServiceSuite) TestCreate() {
	s.random.QueueToken("token-1")

	session, err := s.service.Create(s.ctx, "id-1")
	s.Require().NoError(err)

	s.Equal("token-1", session.Token)
	s.Equal(model.IdentityID("id-1"), session.IdentityID)
	s.Equal(s.clock.Now(), session.CreatedAt)
	s.Equal(s.clock.Now().Add(7*24*time.Hour), session.ExpiresAt)

	stored, err := s.storage.GetSession(s.ctx, "token-1")
	s.Require().NoError(err)
	s.Equal(session.IdentityID, stored.IdentityID)
	s.Equal(1.0, promtest.ToFloat64(s.metrics.SessionsCreatedTotal))
}

func (s *ServiceSuite) TestCreateTokensAreLongAndUnique() {
	first, err := s.service.Create(s.ctx, "id-1")
	s.Require().NoError(err)
	second, err := s.service.Create(s.ctx, "id-1")
	s.Require().NoError(err)

	// 32 bytes of unpadded base64url
	s.Len(first.Token, 43)
	s.NotEqual(first.Token, second.Token)
}

func (s *ServiceSuite) TestCreateTokenFailure() {
	s.random.FailNext = errors.New("entropy exhausted")

	_, err := s.service.Create(s.ctx, "id-1")
	s.Error(err)
	s.Zero(promtest.ToFloat64(s.metrics.SessionsCreatedTotal))
}

func (s *ServiceSuite) TestMultipleSessionsPerIdentity() {
	first, _ := s.service.Create(s.ctx, "id-1")
	second, _ := s.service.Create(s.ctx, "id-1")

	_, err := s.service.Get(s.ctx, first.Token)
	s.NoError(err)
	_, err = s.service.Get(s.ctx, second.Token)
	s.NoError(err)
}

// Get tests

func (s *ServiceSuite) TestGetUnknownToken() {
	_, err := s.service.Get(s.ctx, "nope")
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *ServiceSuite) TestGetJustBeforeExpiry() {
	session, _ := s.service.Create(s.ctx, "id-1")

	s.clock.Advance(s.service.TTL() - time.Second)

	_, err := s.service.Get(s.ctx, session.Token)
	s.NoError(err)
}

func (s *ServiceSuite) TestGetExpiredIsAbsentAndDeleted() {
	session, _ := s.service.Create(s.ctx, "id-1")

	s.clock.Advance(s.service.TTL())

	_, err := s.service.Get(s.ctx, session.Token)
	s.ErrorIs(err, ErrExpired)
	s.ErrorIs(err, model.ErrSessionNotFound)

	_, err = s.storage.GetSession(s.ctx, session.Token)
	s.ErrorIs(err, model.ErrSessionNotFound)
	s.Equal(1.0, promtest.ToFloat64(s.metrics.SessionsDestroyedTotal.WithLabelValues(metrics.ReasonExpired)))
}

// Touch tests

func (s *ServiceSuite) TestTouchExtendsExpiry() {
	session, _ := s.service.Create(s.ctx, "id-1")

	s.clock.Advance(6 * 24 * time.Hour)
	touched, err := s.service.Touch(s.ctx, session.Token)
	s.Require().NoError(err)
	s.Equal(s.clock.Now().Add(s.service.TTL()), touched.ExpiresAt)

	// Past the original expiry, still alive
	s.clock.Advance(2 * 24 * time.Hour)
	_, err = s.service.Get(s.ctx, session.Token)
	s.NoError(err)
}

func (s *ServiceSuite) TestTouchExpiredSession() {
	session, _ := s.service.Create(s.ctx, "id-1")
	s.clock.Advance(s.service.TTL() + time.Minute)

	_, err := s.service.Touch(s.ctx, session.Token)
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *ServiceSuite) TestTouchDestroyedSession() {
	session, _ := s.service.Create(s.ctx, "id-1")
	s.Require().NoError(s.service.Destroy(s.ctx, session.Token))

	_, err := s.service.Touch(s.ctx, session.Token)
	s.ErrorIs(err, model.ErrSessionNotFound)
}

// Destroy tests

func (s *ServiceSuite) TestDestroy() {
	session, _ := s.service.Create(s.ctx, "id-1")

	s.Require().NoError(s.service.Destroy(s.ctx, session.Token))

	_, err := s.service.Get(s.ctx, session.Token)
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *ServiceSuite) TestDestroyIsIdempotent() {
	session, _ := s.service.Create(s.ctx, "id-1")

	s.NoError(s.service.Destroy(s.ctx, session.Token))
	s.NoError(s.service.Destroy(s.ctx, session.Token))
	s.NoError(s.service.Destroy(s.ctx, "never-existed"))
	s.NoError(s.service.Destroy(s.ctx, ""))
}

func (s *ServiceSuite) TestDestroyLeavesOtherSessions() {
	first, _ := s.service.Create(s.ctx, "id-1")
	second, _ := s.service.Create(s.ctx, "id-1")

	s.Require().NoError(s.service.Destroy(s.ctx, first.Token))

	_, err := s.service.Get(s.ctx, second.Token)
	s.NoError(err)
}

func (s *ServiceSuite) TestReplaceRecordsReason() {
	session, _ := s.service.Create(s.ctx, "id-1")

	s.Require().NoError(s.service.Replace(s.ctx, session.Token))

	_, err := s.service.Get(s.ctx, session.Token)
	s.ErrorIs(err, model.ErrSessionNotFound)
	s.Equal(1.0, promtest.ToFloat64(s.metrics.SessionsDestroyedTotal.WithLabelValues(metrics.ReasonReplaced)))
}

// DestroyAllForIdentity tests

func (s *ServiceSuite) TestDestroyAllForIdentity() {
	a1, _ := s.service.Create(s.ctx, "id-1")
	a2, _ := s.service.Create(s.ctx, "id-1")
	b1, _ := s.service.Create(s.ctx, "id-2")

	count, err := s.service.DestroyAllForIdentity(s.ctx, "id-1")
	s.Require().NoError(err)
	s.Equal(2, count)

	_, err = s.service.Get(s.ctx, a1.Token)
	s.ErrorIs(err, model.ErrSessionNotFound)
	_, err = s.service.Get(s.ctx, a2.Token)
	s.ErrorIs(err, model.ErrSessionNotFound)
	_, err = s.service.Get(s.ctx, b1.Token)
	s.NoError(err)

	s.Equal(2.0, promtest.ToFloat64(s.metrics.SessionsDestroyedTotal.WithLabelValues(metrics.ReasonLogoutAll)))
}

// Sweep tests

func (s *ServiceSuite) TestSweep() {
	old, _ := s.service.Create(s.ctx, "id-1")
	s.clock.Advance(s.service.TTL() / 2)
	fresh, _ := s.service.Create(s.ctx, "id-1")
	s.clock.Advance(s.service.TTL()/2 + time.Second)

	count, err := s.service.Sweep(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, count)

	_, err = s.storage.GetSession(s.ctx, old.Token)
	s.ErrorIs(err, model.ErrSessionNotFound)
	_, err = s.storage.GetSession(s.ctx, fresh.Token)
	s.NoError(err)
	s.Equal(1.0, promtest.ToFloat64(s.metrics.SessionsSweptTotal))
}

func (s *ServiceSuite) TestRunSweeperStopsOnCancel() {
	svc := New(s.storage, s.clock, s.random, s.metrics, testutil.NopLogger(), Config{
		TTL:           time.Hour,
		SweepInterval: 10 * time.Millisecond,
	})
	session, _ := svc.Create(s.ctx, "id-1")
	s.clock.Advance(2 * time.Hour)

	ctx, cancel := context.WithCancel(s.ctx)
	done := make(chan error, 1)
	go func() { done <- svc.RunSweeper(ctx) }()

	s.Eventually(func() bool {
		_, err := s.storage.GetSession(s.ctx, session.Token)
		return errors.Is(err, model.ErrSessionNotFound)
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		s.NoError(err)
	case <-time.After(time.Second):
		s.Fail("sweeper did not stop")
	}
}

func (s *ServiceSuite) TestConfigDefaults() {
	svc := New(s.storage, s.clock, s.random, nil, testutil.NopLogger(), Config{})
	s.Equal(7*24*time.Hour, svc.TTL())
	s.False(svc.Sliding())
}
