package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/mcoot/expense-tracker-go/internal/api/apierr"
	"github.com/mcoot/expense-tracker-go/internal/api/handler"
	"github.com/mcoot/expense-tracker-go/internal/api/middleware"
	"github.com/mcoot/expense-tracker-go/internal/api/response"
	"github.com/mcoot/expense-tracker-go/internal/identity"
	"github.com/mcoot/expense-tracker-go/internal/metrics"
	"github.com/mcoot/expense-tracker-go/internal/services/auth"
	"github.com/mcoot/expense-tracker-go/internal/services/credential"
	"github.com/mcoot/expense-tracker-go/internal/services/transaction"
	"github.com/mcoot/expense-tracker-go/internal/storage"
)

const healthTimeout = 2 * time.Second

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger             *slog.Logger
	Responder          *apierr.Responder
	IdentityBuilder    *identity.Builder
	SessionCookie      *middleware.SessionCookie
	AuthService        *auth.Service
	CredentialService  *credential.Service
	TransactionService *transaction.Service
	Storage            storage.Storage
	Metrics            *metrics.Metrics
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	authHandler := handler.NewAuthHandler(cfg.AuthService, cfg.Responder)
	userHandler := handler.NewUserHandler(cfg.CredentialService, cfg.Responder)
	transactionHandler := handler.NewTransactionHandler(cfg.TransactionService, cfg.Responder)

	// Create middleware
	recoveryMiddleware := middleware.Recovery(cfg.Logger, cfg.Responder)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	sessionMiddleware := middleware.Session(cfg.IdentityBuilder, cfg.SessionCookie, cfg.Responder)
	requireIdentity := middleware.RequireIdentity(cfg.Responder)

	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics.Handler()).Methods(http.MethodGet)
	}

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Health check does not touch sessions
	api.HandleFunc("/health", healthHandler(cfg.Storage)).Methods(http.MethodGet)

	// Every other route gets an identity Context
	app := api.NewRoute().Subrouter()
	app.Use(sessionMiddleware)

	app.HandleFunc("/auth/signup", authHandler.SignUp).Methods(http.MethodPost)
	app.HandleFunc("/auth/login", authHandler.Login).Methods(http.MethodPost)
	app.HandleFunc("/auth/logout", authHandler.Logout).Methods(http.MethodPost)
	app.HandleFunc("/auth/logout-all", authHandler.LogoutAll).Methods(http.MethodPost)
	app.HandleFunc("/auth/me", authHandler.Me).Methods(http.MethodGet)

	users := app.PathPrefix("/users").Subrouter()
	users.Use(requireIdentity)
	users.HandleFunc("", userHandler.List).Methods(http.MethodGet)
	users.HandleFunc("/{id}", userHandler.Get).Methods(http.MethodGet)

	transactions := app.PathPrefix("/transactions").Subrouter()
	transactions.Use(requireIdentity)
	transactions.HandleFunc("", transactionHandler.Create).Methods(http.MethodPost)
	transactions.HandleFunc("", transactionHandler.List).Methods(http.MethodGet)
	transactions.HandleFunc("/stats", transactionHandler.Stats).Methods(http.MethodGet)
	transactions.HandleFunc("/{id}", transactionHandler.Get).Methods(http.MethodGet)
	transactions.HandleFunc("/{id}", transactionHandler.Update).Methods(http.MethodPatch)
	transactions.HandleFunc("/{id}", transactionHandler.Delete).Methods(http.MethodDelete)

	return r
}

func healthHandler(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			response.JSON(w, http.StatusServiceUnavailable, response.Health{Status: "degraded", Storage: "unavailable"})
			return
		}
		response.JSON(w, http.StatusOK, response.Health{Status: "ok", Storage: "ok"})
	}
}
