package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/StackNinja0109/pdf2csv/internal/handlers"
)

// NewRouter mounts the API routes behind the common middleware.
func NewRouter(h *handlers.Handler, requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", handlers.Healthz)

	r.Route("/api", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(requestTimeout))
		r.Post("/process-pdf", h.ProcessPDF)
		r.Post("/export", h.Export)
	})
	return r
}
