package factory

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/expense-tracker-go/internal/dependencies/mocks"
	"github.com/mcoot/expense-tracker-go/internal/services/password"
	"github.com/mcoot/expense-tracker-go/internal/storage"
	"github.com/mcoot/expense-tracker-go/internal/storage/memory"
	"github.com/mcoot/expense-tracker-go/internal/testutil"
)

// TestEpoch is the mock clock's starting time in test apps
var TestEpoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

// TestCookieSecret signs session cookies in test apps
var TestCookieSecret = []byte("test-cookie-secret")

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// TestConfig returns the configuration NewTestApp uses. Bcrypt runs at its
// minimum cost to keep tests fast.
func TestConfig() Config {
	return Config{
		Logger: testutil.NopLogger(),
		Password: password.Config{
			Algorithm:  password.Bcrypt,
			BcryptCost: bcrypt.MinCost,
		},
		CookieSecret: TestCookieSecret,
	}
}

// NewTestApp creates an App configured for testing with mocked dependencies
// and in-memory storage
func NewTestApp() *TestApp {
	return NewTestAppWith(memory.New(), TestConfig())
}

// NewTestAppWith creates a test App over the given storage and configuration
func NewTestAppWith(store storage.Storage, cfg Config) *TestApp {
	mockClock := mocks.NewMockClock(TestEpoch)
	mockRandom := mocks.NewMockRandom()

	logger := cfg.Logger
	if logger == nil {
		logger = testutil.NopLogger()
	}

	app, err := newWithDependencies(store, mockClock, mockRandom, cfg, logger)
	if err != nil {
		panic("factory: invalid test configuration: " + err.Error())
	}

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}
