package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/StackNinja0109/pdf2csv/internal/config"
	"github.com/StackNinja0109/pdf2csv/internal/services"
)

var (
	extractorInstance *services.BucketExtractor
	once              sync.Once
	initErr           error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.CloudEvent("ExtractFromBucket", extractFromBucket)
}

// main is required by the Go Functions Framework.
func main() {}

func extractFromBucket(ctx context.Context, e cloudevents.Event) error {
	once.Do(func() {
		extractorInstance, initErr = newBucketExtractor(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization.", "error", initErr)
		return initErr
	}

	var gcsEvent services.GCSEvent
	if err := json.Unmarshal(e.Data(), &gcsEvent); err != nil {
		slog.Error("Failed to unmarshal event data.", "error", err, "data", string(e.Data()))
		return fmt.Errorf("json.Unmarshal: %w", err)
	}

	return extractorInstance.Process(ctx, gcsEvent)
}

func newBucketExtractor(ctx context.Context) (*services.BucketExtractor, error) {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return nil, err
	}
	rt, err := services.Bootstrap(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return rt.BucketExtractor()
}
