package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/mcoot/expense-tracker-go/internal/api"
	"github.com/mcoot/expense-tracker-go/internal/api/apierr"
	"github.com/mcoot/expense-tracker-go/internal/api/middleware"
	"github.com/mcoot/expense-tracker-go/internal/config"
	"github.com/mcoot/expense-tracker-go/internal/dependencies/clock"
	"github.com/mcoot/expense-tracker-go/internal/dependencies/random"
	"github.com/mcoot/expense-tracker-go/internal/identity"
	"github.com/mcoot/expense-tracker-go/internal/metrics"
	"github.com/mcoot/expense-tracker-go/internal/services/auth"
	"github.com/mcoot/expense-tracker-go/internal/services/credential"
	"github.com/mcoot/expense-tracker-go/internal/services/password"
	"github.com/mcoot/expense-tracker-go/internal/services/session"
	"github.com/mcoot/expense-tracker-go/internal/services/transaction"
	"github.com/mcoot/expense-tracker-go/internal/storage"
	"github.com/mcoot/expense-tracker-go/internal/storage/memory"
	"github.com/mcoot/expense-tracker-go/internal/storage/postgres"
	redisstorage "github.com/mcoot/expense-tracker-go/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory   = config.StorageMemory
	StorageTypeRedis    = config.StorageRedis
	StorageTypePostgres = config.StoragePostgres
)

const cookieSecretBytes = 32

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock   clock.Clock
	Random  random.Random
	Metrics *metrics.Metrics
	Logger  *slog.Logger

	// Services
	PasswordService    *password.Service
	CredentialService  *credential.Service
	AuthService        *auth.Service
	SessionService     *session.Service
	TransactionService *transaction.Service

	// Request scoped identity plumbing
	Strategies      *auth.Registry
	IdentityBuilder *identity.Builder
	SessionCookie   *middleware.SessionCookie
	Responder       *apierr.Responder
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "redis" or "postgres")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// PostgresConfig holds connection settings (required if StorageType is "postgres")
	PostgresConfig *postgres.Config
	// Session and Password fall back to their package defaults when zero
	Session  session.Config
	Password password.Config
	// CookieSecret signs session cookies. If empty, a random per-process
	// secret is generated.
	CookieSecret []byte
	// Production turns on Secure cookies and hides internal error detail
	Production bool
}

// ConfigFromEnv converts loaded environment configuration into factory
// configuration
func ConfigFromEnv(cfg *config.Config, logger *slog.Logger) Config {
	out := Config{
		Logger:      logger,
		StorageType: cfg.StorageType,
		Session: session.Config{
			TTL:           cfg.SessionTTL,
			Sliding:       cfg.SessionSliding,
			SweepInterval: cfg.SessionSweepInterval,
		},
		Password: password.Config{
			Algorithm:  cfg.PasswordAlgorithm,
			BcryptCost: cfg.BcryptCost,
			Argon2:     password.DefaultArgon2Params(),
		},
		CookieSecret: cfg.SessionSecret,
		Production:   cfg.IsProduction(),
	}

	switch cfg.StorageType {
	case StorageTypeRedis:
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		out.RedisConfig = &redisCfg
	case StorageTypePostgres:
		pgCfg := postgres.DefaultConfig()
		pgCfg.URL = cfg.DatabaseURL
		out.PostgresConfig = &pgCfg
	}
	return out
}

// New creates a new application with all dependencies wired. The storage
// backend is connected before New returns; an unreachable store is an error.
func New(ctx context.Context, cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create external dependencies
	clk := clock.New()
	rnd := random.New()

	store, err := newStorage(ctx, cfg, clk)
	if err != nil {
		return nil, err
	}

	app, err := newWithDependencies(store, clk, rnd, cfg, logger)
	if err != nil {
		_ = closeStorage(store)
		return nil, err
	}
	return app, nil
}

func newStorage(ctx context.Context, cfg Config, clk clock.Clock) (storage.Storage, error) {
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		return memory.New(), nil
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		store, err := redisstorage.New(*cfg.RedisConfig, clk)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		return store, nil
	case StorageTypePostgres:
		if cfg.PostgresConfig == nil {
			return nil, errors.New("PostgresConfig required when StorageType is postgres")
		}
		store, err := postgres.New(ctx, *cfg.PostgresConfig)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("invalid StorageType %q: must be 'memory', 'redis' or 'postgres'", storageType)
	}
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, cfg Config, logger *slog.Logger) (*App, error) {
	m := metrics.New()

	passwords, err := password.New(cfg.Password, rnd)
	if err != nil {
		return nil, err
	}

	credentials := credential.New(store, clk)
	authService, err := auth.New(credentials, passwords, m, logger)
	if err != nil {
		return nil, err
	}
	sessions := session.New(store, clk, rnd, m, logger, cfg.Session)
	transactions := transaction.New(store, clk, rnd, logger)

	strategies := auth.NewRegistry(authService)
	builder := identity.NewBuilder(sessions, credentials, strategies, logger)

	secret := cfg.CookieSecret
	if len(secret) == 0 {
		secret, err = rnd.Bytes(cookieSecretBytes)
		if err != nil {
			return nil, fmt.Errorf("generate cookie secret: %w", err)
		}
	}
	cookie := middleware.NewSessionCookie(middleware.CookieConfig{
		Secret: secret,
		Secure: cfg.Production,
		TTL:    sessions.TTL(),
	})

	return &App{
		Storage:            store,
		Clock:              clk,
		Random:             rnd,
		Metrics:            m,
		Logger:             logger,
		PasswordService:    passwords,
		CredentialService:  credentials,
		AuthService:        authService,
		SessionService:     sessions,
		TransactionService: transactions,
		Strategies:         strategies,
		IdentityBuilder:    builder,
		SessionCookie:      cookie,
		Responder:          apierr.NewResponder(logger, !cfg.Production),
	}, nil
}

// Router returns the HTTP handler serving the API and metrics
func (a *App) Router() http.Handler {
	return api.NewRouter(api.RouterConfig{
		Logger:             a.Logger,
		Responder:          a.Responder,
		IdentityBuilder:    a.IdentityBuilder,
		SessionCookie:      a.SessionCookie,
		AuthService:        a.AuthService,
		CredentialService:  a.CredentialService,
		TransactionService: a.TransactionService,
		Storage:            a.Storage,
		Metrics:            a.Metrics,
	})
}

// Close releases the storage backend
func (a *App) Close() error {
	return closeStorage(a.Storage)
}

func closeStorage(store storage.Storage) error {
	if c, ok := store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
