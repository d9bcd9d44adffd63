package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/StackNinja0109/pdf2csv/internal/extract"
	"github.com/StackNinja0109/pdf2csv/internal/models"
	"github.com/StackNinja0109/pdf2csv/internal/pdf"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

var (
	ErrMissingFormats = errors.New("formats parameter is required")
	ErrInvalidFormats = errors.New("invalid formats")
	ErrMissingPDF     = errors.New("pdf file is required")
	ErrNoData         = errors.New("no data could be extracted from the PDF")
)

// minRecordsPerPage is the smallest number of records a page must yield to be kept.
// Pages with a single record are treated as a caption or header read as data and dropped,
// which also drops genuine one-row tables.
const minRecordsPerPage = 2

// PageExtractor turns one single-page PDF into records and absorbs its own failures.
type PageExtractor interface {
	Extract(ctx context.Context, page []byte, fields []string) []extract.Record
}

// ProcessorConfig holds the per-request pipeline settings.
type ProcessorConfig struct {
	PageConcurrency int
	PageTimeout     time.Duration
	Model           string
}

// ProcessRequest is one PDF and the field names to extract from it.
type ProcessRequest struct {
	PDF      []byte
	Filename string
	Formats  []string

	// Progress, if set, is called once per finished page. Calls never overlap.
	Progress func(page, records int)
}

// ProcessResult is the outcome of a successful run.
type ProcessResult struct {
	JobID         string
	PageCount     int
	AcceptedPages int
	Records       []extract.Record
}

// Processor runs the split, extract and filter pipeline for one document at a time.
type Processor struct {
	extractor PageExtractor
	split     func([]byte) ([][]byte, error)
	ledger    Ledger
	archive   Archive
	logger    *slog.Logger
	config    ProcessorConfig
}

type ProcessorOption func(*Processor)

// WithLedger records every job in l.
func WithLedger(l Ledger) ProcessorOption {
	return func(p *Processor) { p.ledger = l }
}

// WithArchive stores the records of every successful job in a.
func WithArchive(a Archive) ProcessorOption {
	return func(p *Processor) { p.archive = a }
}

func WithLogger(l *slog.Logger) ProcessorOption {
	return func(p *Processor) { p.logger = l }
}

func withSplitter(split func([]byte) ([][]byte, error)) ProcessorOption {
	return func(p *Processor) { p.split = split }
}

func NewProcessor(extractor PageExtractor, config ProcessorConfig, opts ...ProcessorOption) *Processor {
	if config.PageConcurrency < 1 {
		config.PageConcurrency = 1
	}
	p := &Processor{
		extractor: extractor,
		split:     pdf.Split,
		logger:    slog.Default(),
		config:    config,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process splits req.PDF into pages, extracts records from each page and concatenates the
// records of every page that yielded more than one, in page order. It returns ErrNoData when
// nothing is left.
func (p *Processor) Process(ctx context.Context, req ProcessRequest) (*ProcessResult, error) {
	if len(req.Formats) == 0 {
		return nil, ErrMissingFormats
	}
	if err := extract.ValidateFieldNames(req.Formats); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormats, err)
	}
	if len(req.PDF) == 0 {
		return nil, ErrMissingPDF
	}

	jobID := uuid.NewString()
	logCtx := p.logger.With("jobId", jobID, "filename", req.Filename)
	logCtx.Info("Processing new PDF.", "bytes", len(req.PDF), "fields", len(req.Formats))

	p.startJob(ctx, logCtx, jobID, models.ExtractionJob{
		FileHash:         fileHash(req.PDF),
		OriginalFilename: req.Filename,
		Status:           models.StatusProcessing,
		Formats:          req.Formats,
		Model:            p.config.Model,
		CreatedAt:        time.Now(),
	})

	pages, err := p.split(req.PDF)
	if err != nil {
		return nil, p.handleError(ctx, logCtx, jobID, "failed to split PDF", err)
	}
	logCtx.Info("PDF split.", "pageCount", len(pages))

	perPage := p.extractPages(ctx, logCtx, pages, req)
	if err := ctx.Err(); err != nil {
		return nil, p.handleError(ctx, logCtx, jobID, "processing cancelled", err)
	}

	result := &ProcessResult{JobID: jobID, PageCount: len(pages)}
	for i, records := range perPage {
		if len(records) < minRecordsPerPage {
			logCtx.Info("Discarding page.", "page", i+1, "records", len(records))
			continue
		}
		result.AcceptedPages++
		result.Records = append(result.Records, records...)
	}

	outcome := JobOutcome{
		PageCount:     result.PageCount,
		AcceptedPages: result.AcceptedPages,
		RecordCount:   len(result.Records),
	}
	if len(result.Records) == 0 {
		logCtx.Warn("No data extracted from any page.", "pageCount", len(pages))
		outcome.Status = models.StatusEmpty
		p.finishJob(ctx, logCtx, jobID, outcome)
		return nil, ErrNoData
	}

	outcome.Status = models.StatusCompleted
	p.finishJob(ctx, logCtx, jobID, outcome)
	p.archiveResult(ctx, logCtx, req, result)

	logCtx.Info("Processing complete.", "acceptedPages", result.AcceptedPages, "records", len(result.Records))
	return result, nil
}

// extractPages runs the extractor over every page with bounded concurrency. Results are
// indexed by page so the output order never depends on completion order.
func (p *Processor) extractPages(ctx context.Context, logCtx *slog.Logger, pages [][]byte, req ProcessRequest) [][]extract.Record {
	perPage := make([][]extract.Record, len(pages))
	var progressMu sync.Mutex

	var eg errgroup.Group
	eg.SetLimit(p.config.PageConcurrency)
	for i, page := range pages {
		eg.Go(func() error {
			pageCtx := ctx
			if p.config.PageTimeout > 0 {
				var cancel context.CancelFunc
				pageCtx, cancel = context.WithTimeout(ctx, p.config.PageTimeout)
				defer cancel()
			}

			records := p.extractor.Extract(pageCtx, page, req.Formats)
			perPage[i] = records
			logCtx.Info("Page processed.", "page", i+1, "records", len(records))

			if req.Progress != nil {
				progressMu.Lock()
				req.Progress(i+1, len(records))
				progressMu.Unlock()
			}
			return nil
		})
	}
	_ = eg.Wait()
	return perPage
}

func (p *Processor) startJob(ctx context.Context, logCtx *slog.Logger, jobID string, job models.ExtractionJob) {
	if p.ledger == nil {
		return
	}
	if err := p.ledger.Start(ctx, jobID, job); err != nil {
		logCtx.Error("Failed to record job start.", "error", err)
	}
}

func (p *Processor) finishJob(ctx context.Context, logCtx *slog.Logger, jobID string, outcome JobOutcome) {
	if p.ledger == nil {
		return
	}
	// The outcome is still recorded when the request itself was cancelled.
	if err := p.ledger.Finish(context.WithoutCancel(ctx), jobID, outcome); err != nil {
		logCtx.Error("Failed to record job outcome.", "status", outcome.Status, "error", err)
	}
}

func (p *Processor) archiveResult(ctx context.Context, logCtx *slog.Logger, req ProcessRequest, result *ProcessResult) {
	if p.archive == nil {
		return
	}
	err := p.archive.Save(ctx, models.ArchivedResult{
		JobID:         result.JobID,
		Source:        req.Filename,
		Formats:       req.Formats,
		PageCount:     result.PageCount,
		AcceptedPages: result.AcceptedPages,
		Model:         p.config.Model,
		Records:       result.Records,
	})
	if err != nil {
		logCtx.Error("Failed to archive result.", "error", err)
	}
}

// handleError logs, marks the job FAILED and returns the wrapped error.
func (p *Processor) handleError(ctx context.Context, logCtx *slog.Logger, jobID, message string, originalErr error) error {
	logCtx.Error(message, "error", originalErr)
	p.finishJob(ctx, logCtx, jobID, JobOutcome{
		Status:       models.StatusFailed,
		ErrorDetails: fmt.Sprintf("%s: %v", message, originalErr),
	})
	return fmt.Errorf("%s: %w", message, originalErr)
}

func fileHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
