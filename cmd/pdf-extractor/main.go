package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/GoogleCloudPlatform/functions-framework-go/funcframework"

	"github.com/StackNinja0109/pdf2csv/internal/config"
	"github.com/StackNinja0109/pdf2csv/internal/handlers"
	"github.com/StackNinja0109/pdf2csv/internal/services"
)

var (
	handler *handlers.Handler
	once    sync.Once
	initErr error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.HTTP("HandleProcessPDF", withHandler(func(h *handlers.Handler) http.HandlerFunc { return h.ProcessPDF }))
	functions.HTTP("HandleExport", withHandler(func(h *handlers.Handler) http.HandlerFunc { return h.Export }))
}

// main serves the functions locally; on Cloud Functions the framework calls them directly.
func main() {
	port := config.GetEnv("PORT", "8080")
	if err := funcframework.Start(port); err != nil {
		slog.Error("Function framework stopped.", "error", err)
		os.Exit(1)
	}
}

// withHandler initializes the runtime on first use and then delegates to the selected method.
func withHandler(pick func(*handlers.Handler) http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		once.Do(func() {
			handler, initErr = newHandler(context.Background())
		})
		if initErr != nil {
			slog.Error("Critical error during function initialization.", "error", initErr)
			http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
			return
		}
		pick(handler)(w, r)
	}
}

func newHandler(ctx context.Context) (*handlers.Handler, error) {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return nil, err
	}
	rt, err := services.Bootstrap(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return handlers.New(rt.Processor, rt.Exporter, cfg.Server.MaxUploadBytes, nil), nil
}
