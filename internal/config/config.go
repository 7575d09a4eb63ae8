// Package config loads server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/mcoot/expense-tracker-go/internal/dependencies/random"
	"github.com/mcoot/expense-tracker-go/internal/services/password"
)

// Environments
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Storage backends
const (
	StorageMemory   = "memory"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
)

const devSecretBytes = 32

// Config holds the server configuration
type Config struct {
	// Server
	Port        int
	Environment string
	LogLevel    slog.Level

	// Storage
	StorageType string
	RedisURL    string
	DatabaseURL string

	// Sessions
	SessionSecret        []byte
	SessionTTL           time.Duration
	SessionSliding       bool
	SessionSweepInterval time.Duration

	// Passwords
	PasswordAlgorithm password.Algorithm
	BcryptCost        int
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// LoadEnvFile loads variables from a .env file into the process environment.
// Variables already set win, and a missing file is not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load reads configuration from the process environment
func Load(rnd random.Random) (*Config, error) {
	return load(os.LookupEnv, rnd)
}

type lookupFunc func(key string) (string, bool)

func load(lookup lookupFunc, rnd random.Random) (*Config, error) {
	env := envReader{lookup: lookup}

	cfg := &Config{
		Port:                 env.getInt("PORT", 8080),
		Environment:          strings.ToLower(env.get("ENVIRONMENT", EnvDevelopment)),
		StorageType:          strings.ToLower(env.get("STORAGE_TYPE", StorageMemory)),
		RedisURL:             env.get("REDIS_URL", ""),
		DatabaseURL:          env.get("DATABASE_URL", ""),
		SessionTTL:           time.Duration(env.getInt("SESSION_TTL_HOURS", 168)) * time.Hour,
		SessionSliding:       env.getBool("SESSION_SLIDING", false),
		SessionSweepInterval: time.Duration(env.getInt("SESSION_SWEEP_INTERVAL_MINUTES", 60)) * time.Minute,
		PasswordAlgorithm:    password.Algorithm(strings.ToLower(env.get("PASSWORD_ALGORITHM", string(password.Bcrypt)))),
		BcryptCost:           env.getInt("BCRYPT_COST", password.DefaultBcryptCost),
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(env.get("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	switch cfg.Environment {
	case EnvDevelopment, EnvProduction:
	default:
		return nil, fmt.Errorf("ENVIRONMENT must be %q or %q, got %q", EnvDevelopment, EnvProduction, cfg.Environment)
	}

	switch cfg.StorageType {
	case StorageMemory:
		if cfg.IsProduction() {
			return nil, errors.New("STORAGE_TYPE=memory is not allowed in production; sessions must outlive the process")
		}
	case StorageRedis:
		if cfg.RedisURL == "" {
			return nil, errors.New("REDIS_URL is required when STORAGE_TYPE=redis")
		}
	case StoragePostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL is required when STORAGE_TYPE=postgres")
		}
	default:
		return nil, fmt.Errorf("STORAGE_TYPE must be memory, redis or postgres, got %q", cfg.StorageType)
	}

	if cfg.SessionTTL <= 0 {
		return nil, errors.New("SESSION_TTL_HOURS must be positive")
	}
	if cfg.SessionSweepInterval <= 0 {
		return nil, errors.New("SESSION_SWEEP_INTERVAL_MINUTES must be positive")
	}

	secret := env.get("SESSION_SECRET", "")
	switch {
	case secret != "":
		cfg.SessionSecret = []byte(secret)
	case cfg.IsProduction():
		return nil, errors.New("SESSION_SECRET is required in production")
	default:
		// Sessions signed with a per-process key do not survive a restart
		b, err := rnd.Bytes(devSecretBytes)
		if err != nil {
			return nil, fmt.Errorf("generate session secret: %w", err)
		}
		cfg.SessionSecret = b
	}

	return cfg, nil
}

type envReader struct {
	lookup lookupFunc
}

func (e envReader) get(key, fallback string) string {
	if value, ok := e.lookup(key); ok && value != "" {
		return value
	}
	return fallback
}

func (e envReader) getInt(key string, fallback int) int {
	if value, ok := e.lookup(key); ok {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

func (e envReader) getBool(key string, fallback bool) bool {
	if value, ok := e.lookup(key); ok {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}
