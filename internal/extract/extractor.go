package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/StackNinja0109/pdf2csv/internal/gcp"
)

const pdfMIMEType = "application/pdf"

// Generator is a multimodal model that answers an instruction about one attached document.
type Generator interface {
	Generate(ctx context.Context, prompt string, document []byte, mimeType string) (string, error)
	ModelName() string
}

// Extractor turns one single-page PDF into records. It never fails: any problem on a
// page is logged and the page yields no records.
type Extractor struct {
	gen    Generator
	logger *slog.Logger
}

func NewExtractor(gen Generator, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{gen: gen, logger: logger}
}

// Extract asks the model for the rows of page and projects them onto fields.
func (e *Extractor) Extract(ctx context.Context, page []byte, fields []string) (records []Record) {
	logCtx := e.logger.With("model", e.gen.ModelName(), "page_bytes", len(page))

	defer func() {
		if r := recover(); r != nil {
			logCtx.Error("Recovered from panic during page extraction.", "panic", fmt.Sprint(r))
			records = nil
		}
	}()

	text, err := e.gen.Generate(ctx, gcp.BuildExtractionPrompt(fields), page, pdfMIMEType)
	if err != nil {
		logCtx.Error("Model call failed.", "error", err)
		return nil
	}
	if isRefusal(text) {
		logCtx.Warn("Model response looks like a refusal.", "response", truncate(text, 200))
		return nil
	}

	elements, strategy, err := ParseResponse(text)
	if err != nil {
		logCtx.Error("Could not parse model response.", "error", err, "response", truncate(text, 200))
		return nil
	}
	if i := nullElement(elements); i >= 0 {
		logCtx.Error("Model response contains a null row. Discarding page.", "index", i)
		return nil
	}
	if err := checkShape(elements, fields); err != nil {
		logCtx.Warn("Model response does not match requested fields.", "detail", err.Error())
	}

	records = Project(elements, fields)
	logCtx.Info("Page extracted.", "strategy", strategy, "records", len(records))
	return records
}

var refusalPhrases = []string{
	"i am unable to",
	"i cannot fulfill",
	"i cannot answer",
	"i cannot provide",
	"as a large language model",
}

// isRefusal reports whether text is a refusal rather than data. Text that still contains a
// JSON array or object is not treated as one.
func isRefusal(text string) bool {
	if strings.ContainsAny(text, "[{") {
		return false
	}
	lower := strings.ToLower(text)
	for _, p := range refusalPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// nullElement returns the index of the first null row, or -1. A null row cannot be read
// field by field, so the whole reply is unusable.
func nullElement(elements []any) int {
	for i, el := range elements {
		if el == nil {
			return i
		}
	}
	return -1
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
