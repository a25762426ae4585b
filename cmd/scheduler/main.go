package main

import (
	"LykkeLoopAPI/internal/config"
	"LykkeLoopAPI/internal/repository"
	"LykkeLoopAPI/internal/scheduler"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.LoadAppConfig()

	if cfg.DBDriver != config.DBDriverPostgres {
		slog.Error("Scheduler requires DB_DRIVER=postgres", "driver", cfg.DBDriver)
		os.Exit(1)
	}

	cfg.DBMigrate = false

	drv := config.InitDB(cfg)
	defer func() {
		if err := drv.Close(); err != nil {
			slog.Error("Error closing database connection", "error", err)
		}
	}()

	repo := repository.NewRepository(drv, nil)
	srv := scheduler.New(cfg, repo)

	if err := srv.Start(); err != nil {
		os.Exit(1)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down scheduler...")
	srv.Stop()
}
