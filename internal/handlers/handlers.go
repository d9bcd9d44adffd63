// Package handlers exposes the extraction pipeline over HTTP.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/StackNinja0109/pdf2csv/internal/extract"
	"github.com/StackNinja0109/pdf2csv/internal/models"
	"github.com/StackNinja0109/pdf2csv/internal/services"
)

const (
	msgMissingFormats = "Formats parameter is required"
	msgMissingPDF     = "PDF file is required"
	msgNoData         = "No data could be extracted from the PDF"
)

type processor interface {
	Process(ctx context.Context, req services.ProcessRequest) (*services.ProcessResult, error)
}

type exporter interface {
	Export(format string, fields []string, records []extract.Record) (*services.Export, error)
}

type Handler struct {
	processor      processor
	exporter       exporter
	maxUploadBytes int64
	logger         *slog.Logger
}

func New(p processor, e exporter, maxUploadBytes int64, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{processor: p, exporter: e, maxUploadBytes: maxUploadBytes, logger: logger}
}

// ProcessPDF handles POST /api/process-pdf. The multipart body carries the document in
// "pdf" and a JSON array of field names in "formats".
func (h *Handler) ProcessPDF(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "could not parse multipart body")
		return
	}

	rawFormats := r.PostFormValue("formats")
	if rawFormats == "" {
		writeError(w, http.StatusBadRequest, msgMissingFormats)
		return
	}
	formats, err := extract.ParseFieldNames(rawFormats)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	file, header, err := r.FormFile("pdf")
	if err != nil {
		writeError(w, http.StatusBadRequest, msgMissingPDF)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		h.logger.Error("Failed to read uploaded PDF.", "error", err)
		writeError(w, http.StatusBadRequest, "could not read uploaded PDF")
		return
	}

	result, err := h.processor.Process(r.Context(), services.ProcessRequest{
		PDF:      data,
		Filename: header.Filename,
		Formats:  formats,
	})
	if err != nil {
		status, msg := processErrorStatus(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("PDF processing failed.", "filename", header.Filename, "error", err)
		}
		writeError(w, status, msg)
		return
	}

	writeJSON(w, http.StatusOK, result.Records)
}

func processErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrNoData):
		return http.StatusBadRequest, msgNoData
	case errors.Is(err, services.ErrMissingFormats):
		return http.StatusBadRequest, msgMissingFormats
	case errors.Is(err, services.ErrMissingPDF):
		return http.StatusBadRequest, msgMissingPDF
	case errors.Is(err, services.ErrInvalidFormats):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

// Export handles POST /api/export?format=csv|xlsx.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = services.FormatCSV
	}

	var req models.ExportRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxUploadBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "could not parse JSON body")
		return
	}

	out, err := h.exporter.Export(format, req.Formats, extract.ProjectObjects(req.Records, req.Formats))
	if err != nil {
		if errors.Is(err, services.ErrUnknownExportFormat) || errors.Is(err, services.ErrInvalidFormats) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("Export failed.", "format", format, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", out.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+out.Filename+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out.Data); err != nil {
		h.logger.Error("Failed to write export.", "error", err)
	}
}

func Healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, models.ErrorResponse{Error: msg})
}
