package main

import (
	"LykkeLoopAPI/internal/adapter"
	"LykkeLoopAPI/internal/bootstrap"
	"LykkeLoopAPI/internal/config"
	"LykkeLoopAPI/internal/controller"
	"LykkeLoopAPI/internal/repository"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.LoadAppConfig()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisAdapter, err := adapter.NewRedisAdapter(cfg)
	if err != nil {
		slog.Error("Failed to initialize Redis", "error", err)
		os.Exit(1)
	}

	healthChecks := map[string]controller.Pinger{}
	if redisAdapter != nil {
		healthChecks["redis"] = redisAdapter
		defer redisAdapter.Close()
	}

	var repo *repository.Repository
	switch cfg.DBDriver {
	case config.DBDriverMemory:
		slog.Warn("Using in-memory storage; data is lost on restart")
		repo = repository.NewMemoryRepository(repository.NewMemoryStore(), redisAdapter)
	case config.DBDriverPostgres:
		drv := config.InitDB(cfg)
		defer func() {
			if err := drv.Close(); err != nil {
				slog.Error("Error closing database connection", "error", err)
			}
		}()
		healthChecks["postgres"] = drv.DB()
		repo = repository.NewRepository(drv, redisAdapter)
	default:
		slog.Error("Unsupported DB_DRIVER", "driver", cfg.DBDriver)
		os.Exit(1)
	}

	validate := config.NewValidator()
	chiMux := config.NewChi(cfg)

	bootstrap.Init(ctx, cfg, repo, redisAdapter, validate, chiMux, healthChecks)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.AppPort),
		Handler:           chiMux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Graceful shutdown failed", "error", err)
		}
	}()

	slog.Info("Starting LykkeLoopAPI", "port", cfg.AppPort, "db", cfg.DBDriver, "redis", redisAdapter != nil)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Failed to start server", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped")
}
