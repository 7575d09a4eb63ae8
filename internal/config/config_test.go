package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/expense-tracker-go/internal/dependencies/mocks"
	"github.com/mcoot/expense-tracker-go/internal/services/password"
)

func lookupFrom(env map[string]string) lookupFunc {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestDefaults(t *testing.T) {
	cfg, err := load(lookupFrom(nil), mocks.NewMockRandom())
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, EnvDevelopment, cfg.Environment)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, StorageMemory, cfg.StorageType)
	assert.Equal(t, 7*24*time.Hour, cfg.SessionTTL)
	assert.False(t, cfg.SessionSliding)
	assert.Equal(t, time.Hour, cfg.SessionSweepInterval)
	assert.Equal(t, password.Bcrypt, cfg.PasswordAlgorithm)
	assert.Equal(t, password.DefaultBcryptCost, cfg.BcryptCost)
	assert.Len(t, cfg.SessionSecret, devSecretBytes)
}

func TestOverrides(t *testing.T) {
	cfg, err := load(lookupFrom(map[string]string{
		"PORT":                           "9090",
		"ENVIRONMENT":                    "Production",
		"LOG_LEVEL":                      "debug",
		"STORAGE_TYPE":                   "redis",
		"REDIS_URL":                      "redis://cache:6379/0",
		"SESSION_SECRET":                 "s3cret",
		"SESSION_TTL_HOURS":              "2",
		"SESSION_SLIDING":                "true",
		"SESSION_SWEEP_INTERVAL_MINUTES": "5",
		"PASSWORD_ALGORITHM":             "argon2id",
		"BCRYPT_COST":                    "12",
	}), mocks.NewMockRandom())
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, StorageRedis, cfg.StorageType)
	assert.Equal(t, "redis://cache:6379/0", cfg.RedisURL)
	assert.Equal(t, []byte("s3cret"), cfg.SessionSecret)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.True(t, cfg.SessionSliding)
	assert.Equal(t, 5*time.Minute, cfg.SessionSweepInterval)
	assert.Equal(t, password.Argon2id, cfg.PasswordAlgorithm)
	assert.Equal(t, 12, cfg.BcryptCost)
}

func TestMalformedNumbersFallBack(t *testing.T) {
	cfg, err := load(lookupFrom(map[string]string{
		"PORT":            "eighty",
		"SESSION_SLIDING": "maybe",
	}), mocks.NewMockRandom())
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.False(t, cfg.SessionSliding)
}

func TestInvalidConfig(t *testing.T) {
	cases := map[string]map[string]string{
		"production without secret": {"ENVIRONMENT": "production", "STORAGE_TYPE": "redis", "REDIS_URL": "redis://cache:6379/0"},
		"production memory storage": {"ENVIRONMENT": "production", "SESSION_SECRET": "s3cret"},
		"unknown environment":       {"ENVIRONMENT": "staging"},
		"unknown storage":           {"STORAGE_TYPE": "mongo"},
		"redis without url":         {"STORAGE_TYPE": "redis"},
		"postgres without url":      {"STORAGE_TYPE": "postgres"},
		"bad log level":             {"LOG_LEVEL": "loud"},
		"zero ttl":                  {"SESSION_TTL_HOURS": "0"},
		"negative sweep":            {"SESSION_SWEEP_INTERVAL_MINUTES": "-1"},
	}

	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := load(lookupFrom(env), mocks.NewMockRandom())
			assert.Error(t, err)
		})
	}
}

func TestProductionRejectsMemoryStorage(t *testing.T) {
	_, err := load(lookupFrom(map[string]string{
		"ENVIRONMENT":    "production",
		"SESSION_SECRET": "s3cret",
		"STORAGE_TYPE":   "memory",
	}), mocks.NewMockRandom())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORAGE_TYPE=memory")
}

func TestPostgresWithURL(t *testing.T) {
	cfg, err := load(lookupFrom(map[string]string{
		"STORAGE_TYPE": "postgres",
		"DATABASE_URL": "postgres://localhost/expenses",
	}), mocks.NewMockRandom())
	require.NoError(t, err)
	assert.Equal(t, StoragePostgres, cfg.StorageType)
}

func TestDevSecretIsRandomPerLoad(t *testing.T) {
	a, err := load(lookupFrom(nil), mocks.NewMockRandom())
	require.NoError(t, err)
	b, err := load(lookupFrom(nil), mocks.NewMockRandom())
	require.NoError(t, err)

	assert.NotEqual(t, a.SessionSecret, b.SessionSecret)
}

func TestDevSecretGenerationFailure(t *testing.T) {
	rnd := mocks.NewMockRandom()
	rnd.FailNext = errors.New("entropy exhausted")

	_, err := load(lookupFrom(nil), rnd)
	assert.ErrorContains(t, err, "entropy exhausted")
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("EXPENSE_CONFIG_TEST_VAR=from-file\n"), 0o600))
	t.Setenv("EXPENSE_CONFIG_TEST_VAR", "")
	require.NoError(t, os.Unsetenv("EXPENSE_CONFIG_TEST_VAR"))

	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "from-file", os.Getenv("EXPENSE_CONFIG_TEST_VAR"))
}

func TestLoadEnvFileDoesNotOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("EXPENSE_CONFIG_TEST_VAR=from-file\n"), 0o600))
	t.Setenv("EXPENSE_CONFIG_TEST_VAR", "from-env")

	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "from-env", os.Getenv("EXPENSE_CONFIG_TEST_VAR"))
}

func TestLoadEnvFileMissing(t *testing.T) {
	assert.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), "nope.env")))
}
