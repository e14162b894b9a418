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

	"github.com/hotelops/rmsync/internal/config"
	"github.com/hotelops/rmsync/internal/importer"
	"github.com/hotelops/rmsync/internal/logging"
	"github.com/hotelops/rmsync/internal/store"
	"github.com/hotelops/rmsync/internal/web"
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
		"store_url", cfg.Store.URL,
		"upload_dir", cfg.Upload.Dir,
		"batch_size", cfg.Upload.BatchSize,
	)

	client := store.NewClient(cfg.Store.URL, cfg.Store.APIKey, cfg.Store.Timeout, slog.Default())

	// A down store is reported, not fatal: files can still be staged and
	// previewed while the destination recovers.
	if err := client.Ping(context.Background()); err != nil {
		slog.Warn("destination store not reachable at startup", "error", err)
	} else {
		slog.Info("destination store reachable")
	}

	service := importer.New(cfg, client, slog.Default())
	server := web.NewServer(cfg, service, slog.Default())

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

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
