package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/ofertas/internal/config"
	"github.com/JonMunkholm/ofertas/internal/core"
	"github.com/JonMunkholm/ofertas/internal/logging"
	"github.com/JonMunkholm/ofertas/internal/metrics"
	"github.com/JonMunkholm/ofertas/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"reference_path", cfg.Reference.Path,
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"decode_workers", cfg.Upload.DecodeWorkers,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	// Nothing works without the reference catalogue.
	ref, err := core.LoadReferenceFile(cfg.Reference.Path)
	if err != nil {
		slog.Error("failed to load reference workbook", "path", cfg.Reference.Path, "error", err)
		os.Exit(1)
	}
	slog.Info("reference workbook loaded",
		"path", cfg.Reference.Path,
		"records", ref.Len(),
		"duplicates", ref.Duplicates(),
	)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	service, err := core.NewService(ref, cfg, m)
	if err != nil {
		slog.Error("failed to create service", "error", err)
		os.Exit(1)
	}

	server := web.NewServer(cfg, service, m)

	jobCtx, cancelJobs := context.WithCancel(context.Background())
	go service.StartSessionSweeper(jobCtx, cfg.Session.SweepInterval)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if status := service.Limiter().Status(); status.Active > 0 {
			slog.Info("waiting for processing runs to complete", "active", status.Active)
			if err := service.Shutdown(shutdownCtx); err != nil {
				slog.Warn("processing runs did not complete in time", "error", err)
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
