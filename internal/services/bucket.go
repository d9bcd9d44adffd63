package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/StackNinja0109/pdf2csv/internal/extract"
	"github.com/StackNinja0109/pdf2csv/internal/models"
)

// formatsMetadataKey is the object metadata entry holding the field names as a JSON array.
const formatsMetadataKey = "formats"

// GCSEvent is the payload of a Cloud Storage object.finalized event.
type GCSEvent struct {
	Bucket      string `json:"bucket"`
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
}

type objectStore interface {
	objectWriter
	Read(ctx context.Context, bucket, object string) ([]byte, map[string]string, error)
}

type documentProcessor interface {
	Process(ctx context.Context, req ProcessRequest) (*ProcessResult, error)
}

// BucketExtractor runs the pipeline on PDFs uploaded to a bucket and writes the records
// to <object>.json in the results bucket.
type BucketExtractor struct {
	store          objectStore
	processor      documentProcessor
	resultsBucket  string
	defaultFormats []string
	model          string
}

func NewBucketExtractor(store objectStore, processor documentProcessor, resultsBucket string, defaultFormats []string, model string) (*BucketExtractor, error) {
	if resultsBucket == "" {
		return nil, fmt.Errorf("RESULTS_BUCKET environment variable must be set")
	}
	return &BucketExtractor{
		store:          store,
		processor:      processor,
		resultsBucket:  resultsBucket,
		defaultFormats: defaultFormats,
		model:          model,
	}, nil
}

// Process handles one finalized object. Returning an error makes the platform retry, so
// outcomes that a retry cannot change return nil.
func (b *BucketExtractor) Process(ctx context.Context, e GCSEvent) error {
	logCtx := slog.With("gcsBucket", e.Bucket, "gcsObject", e.Name)
	if !strings.EqualFold(path.Ext(e.Name), ".pdf") {
		logCtx.Info("Not a PDF. Skipping.")
		return nil
	}
	logCtx.Info("Processing new GCS object.")

	data, metadata, err := b.store.Read(ctx, e.Bucket, e.Name)
	if err != nil {
		logCtx.Error("Failed to download source PDF.", "error", err)
		return err
	}

	formats, err := b.formatsFor(metadata)
	if err != nil {
		logCtx.Error("No usable field names for object.", "error", err)
		return nil
	}

	result, err := b.processor.Process(ctx, ProcessRequest{
		PDF:      data,
		Filename: e.Name,
		Formats:  formats,
	})
	switch {
	case errors.Is(err, ErrNoData):
		logCtx.Warn("No data extracted. Nothing written.")
		return nil
	case errors.Is(err, ErrInvalidFormats), errors.Is(err, ErrMissingFormats), errors.Is(err, ErrMissingPDF):
		logCtx.Error("Object cannot be processed.", "error", err)
		return nil
	case err != nil:
		return fmt.Errorf("failed to process gs://%s/%s: %w", e.Bucket, e.Name, err)
	}

	content, err := json.Marshal(models.ArchivedResult{
		JobID:         result.JobID,
		Source:        fmt.Sprintf("gs://%s/%s", e.Bucket, e.Name),
		Formats:       formats,
		PageCount:     result.PageCount,
		AcceptedPages: result.AcceptedPages,
		Model:         b.model,
		Records:       result.Records,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	object := e.Name + ".json"
	if err := b.store.WriteIfAbsent(ctx, b.resultsBucket, object, content, "application/json"); err != nil {
		logCtx.Error("Failed to save result.", "error", err)
		return err
	}
	logCtx.Info("Result saved.", "output", fmt.Sprintf("gs://%s/%s", b.resultsBucket, object), "records", len(result.Records))
	return nil
}

// formatsFor reads the field names from the object metadata, falling back to the defaults.
func (b *BucketExtractor) formatsFor(metadata map[string]string) ([]string, error) {
	if raw, ok := metadata[formatsMetadataKey]; ok && strings.TrimSpace(raw) != "" {
		return extract.ParseFieldNames(raw)
	}
	if len(b.defaultFormats) == 0 {
		return nil, ErrMissingFormats
	}
	return b.defaultFormats, nil
}
