package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/StackNinja0109/pdf2csv/internal/config"
	"github.com/StackNinja0109/pdf2csv/internal/extract"
	"github.com/StackNinja0109/pdf2csv/internal/gcp"
)

// Runtime bundles everything an entry point needs, built once from configuration.
type Runtime struct {
	Config    *config.Config
	Processor *Processor
	Exporter  *Exporter
	// Store is nil unless a results bucket is configured.
	Store *gcp.ObjectStore

	extractor *extract.Extractor
	procCfg   ProcessorConfig
	ledger    Ledger
	closers   []func() error
}

// Bootstrap creates the model backend and the optional ledger and archive.
func Bootstrap(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	rt := &Runtime{Config: cfg, Exporter: NewExporter(nil)}

	gen, err := rt.newGenerator(ctx)
	if err != nil {
		return nil, err
	}

	rt.extractor = extract.NewExtractor(gen, nil)
	rt.procCfg = ProcessorConfig{
		PageConcurrency: cfg.Pipeline.PageConcurrency,
		PageTimeout:     cfg.Pipeline.PageTimeout,
		Model:           gen.ModelName(),
	}

	var opts []ProcessorOption
	if cfg.FirestoreEnabled() {
		client, err := gcp.NewLedgerClient(ctx, cfg.Model.ProjectID, cfg.Storage.FirestoreDatabase)
		if err != nil {
			rt.Close()
			return nil, err
		}
		rt.closers = append(rt.closers, client.Close)
		rt.ledger = NewFirestoreLedger(client, cfg.Storage.FirestoreCollection)
		opts = append(opts, WithLedger(rt.ledger))
	}
	if cfg.Storage.ResultsBucket != "" {
		store, err := gcp.NewObjectStore(ctx)
		if err != nil {
			rt.Close()
			return nil, err
		}
		rt.Store = store
		rt.closers = append(rt.closers, store.Close)
		opts = append(opts, WithArchive(NewBucketArchive(store, cfg.Storage.ResultsBucket)))
	}

	rt.Processor = NewProcessor(rt.extractor, rt.procCfg, opts...)

	slog.Info("Extraction runtime initialized.",
		"backend", cfg.Model.Backend,
		"model", gen.ModelName(),
		"pageConcurrency", cfg.Pipeline.PageConcurrency,
		"ledger", cfg.FirestoreEnabled(),
		"resultsBucket", cfg.Storage.ResultsBucket,
	)
	return rt, nil
}

func (rt *Runtime) newGenerator(ctx context.Context) (extract.Generator, error) {
	m := rt.Config.Model
	switch m.Backend {
	case config.BackendVertex:
		client, err := gcp.NewVertexClient(ctx, m.ProjectID, m.Region, m.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to create vertex client: %w", err)
		}
		rt.closers = append(rt.closers, client.Close)
		return client, nil
	case config.BackendStudio:
		if m.APIKey == "" {
			slog.Warn("GEMINI_API_KEY is not set. Every model call will fail.")
		}
		return gcp.NewStudioClient(m.APIKey, m.Name), nil
	default:
		return nil, fmt.Errorf("unknown GEMINI_BACKEND %q", m.Backend)
	}
}

// BucketExtractor returns a trigger handler writing to the results bucket. Its processor
// skips the archive since the trigger writes the result itself.
func (rt *Runtime) BucketExtractor() (*BucketExtractor, error) {
	if rt.Store == nil {
		return nil, fmt.Errorf("RESULTS_BUCKET environment variable must be set")
	}
	var opts []ProcessorOption
	if rt.ledger != nil {
		opts = append(opts, WithLedger(rt.ledger))
	}
	processor := NewProcessor(rt.extractor, rt.procCfg, opts...)
	return NewBucketExtractor(rt.Store, processor, rt.Config.Storage.ResultsBucket, rt.Config.Storage.DefaultFormats, rt.procCfg.Model)
}

// Close releases the clients in reverse creation order.
func (rt *Runtime) Close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		errs = append(errs, rt.closers[i]())
	}
	rt.closers = nil
	return errors.Join(errs...)
}
