package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nouridin/supershop/internal/config"
	"github.com/nouridin/supershop/internal/database"
	"github.com/nouridin/supershop/internal/database/postgres"
	"github.com/nouridin/supershop/internal/event"
	"github.com/nouridin/supershop/internal/handler"
	"github.com/nouridin/supershop/internal/inventory"
	"github.com/nouridin/supershop/internal/logger"
	"github.com/nouridin/supershop/internal/server"
	"github.com/nouridin/supershop/internal/shop"
	"github.com/nouridin/supershop/internal/worker"
	"github.com/nouridin/supershop/internal/world"
	"github.com/nouridin/supershop/migrations"
)

// Database pool sizing
const (
	dbMaxConnections = 10
	dbMaxIdleTime    = 5 * time.Minute
	dbMaxLifetime    = 30 * time.Minute
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("Fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Load reads .env, so the environment is complete by the time it is
	// validated here.
	warnings, err := config.ValidateEnvWithWarnings()
	if err != nil {
		return err
	}

	logger.InitLogger(logger.NewConfig(cfg.LogLevel, cfg.LogFormat, cfg.ServiceName, cfg.Version, cfg.Environment, false))
	for _, warning := range warnings {
		slog.Warn(warning)
	}

	handler.InitValidator()

	ctx := context.Background()

	pool, err := database.NewPool(cfg.GetDBConnString(), dbMaxConnections, dbMaxIdleTime, dbMaxLifetime)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, migrations.FS); err != nil {
		return err
	}

	store, err := postgres.NewShopRepository(pool)
	if err != nil {
		return err
	}

	oracle := inventory.NewMemoryOracle(nil, inventory.Unbounded)
	worlds := world.NewStaticOracle(cfg.Worlds...)
	bus := event.NewMemoryBus()

	notifyPool := worker.NewPool(cfg.NotifyWorkers, cfg.NotifyQueueSize)
	notifyPool.Start()
	defer notifyPool.Stop()

	shopService := shop.NewService(store, oracle, worlds, nil, nil, bus, notifyPool)
	if err := shopService.Load(ctx); err != nil {
		return err
	}

	srv := server.NewServer(cfg.Port, cfg.APIKey, pool, shopService)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		slog.Info("Shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}

	// Flush registry state before the pool closes.
	if err := shopService.SaveAll(shutdownCtx); err != nil {
		slog.Error("Final save failed", "error", err)
	}

	return nil
}
