package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/mcoot/expense-tracker-go/internal/api"
	"github.com/mcoot/expense-tracker-go/internal/config"
	"github.com/mcoot/expense-tracker-go/internal/dependencies/random"
	"github.com/mcoot/expense-tracker-go/internal/factory"
)

func main() {
	// Bootstrap logger until the configured level is known
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := config.LoadEnvFile(".env"); err != nil {
		logger.Error("failed to read .env", slog.String("error", err.Error()))
		os.Exit(1)
	}

	cfg, err := config.Load(random.New())
	if err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up logging with JSON output
	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Storage is connected here; an unreachable store aborts startup
	app, err := factory.New(ctx, factory.ConfigFromEnv(cfg, logger))
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn("failed to close storage", slog.String("error", err.Error()))
		}
	}()

	logger.Info("storage connected",
		slog.String("storage", cfg.StorageType),
		slog.String("environment", cfg.Environment),
		slog.Bool("session_sliding", cfg.SessionSliding),
	)

	serverConfig := api.DefaultServerConfig()
	serverConfig.Port = cfg.Port
	server := api.NewServer(app.Router(), serverConfig, logger)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(server.Start)

	g.Go(func() error {
		return app.SessionService.RunSweeper(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		if errors.Is(context.Cause(gctx), context.Canceled) {
			logger.Info("shutdown signal received")
		}
		return server.Shutdown(context.WithoutCancel(gctx))
	})

	return g.Wait()
}
