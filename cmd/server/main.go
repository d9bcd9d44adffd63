// Command server runs the extraction API as a standalone HTTP server.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/StackNinja0109/pdf2csv/internal/config"
	"github.com/StackNinja0109/pdf2csv/internal/handlers"
	"github.com/StackNinja0109/pdf2csv/internal/services"
)

const shutdownTimeout = 30 * time.Second

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Could not load .env file.", "error", err)
	}

	cfgPath, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("Failed to load config.", "error", err)
		os.Exit(1)
	}

	rt, err := services.Bootstrap(context.Background(), cfg)
	if err != nil {
		slog.Error("Failed to initialize services.", "error", err)
		os.Exit(1)
	}
	defer rt.Close()

	h := handlers.New(rt.Processor, rt.Exporter, cfg.Server.MaxUploadBytes, nil)
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           NewRouter(h, cfg.Server.RequestTimeout),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening.", "addr", srv.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error.", "error", err)
		}
	case sig := <-shutdown:
		slog.Info("Shutdown signal received.", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Graceful shutdown failed.", "error", err)
		if err := srv.Close(); err != nil {
			slog.Error("Forced shutdown failed.", "error", err)
		}
	}
	slog.Info("Server stopped.")
}

// parseFlags returns the config file path from --config, falling back to $CONFIG_PATH.
func parseFlags(args []string) (string, error) {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	cfgPath := fs.String("config", os.Getenv("CONFIG_PATH"), "config file path")
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	return *cfgPath, nil
}
