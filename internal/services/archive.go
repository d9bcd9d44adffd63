package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/StackNinja0109/pdf2csv/internal/models"
)

// Archive stores the records of completed jobs.
type Archive interface {
	Save(ctx context.Context, result models.ArchivedResult) error
}

// objectWriter is the part of gcp.ObjectStore the archive and bucket trigger write with.
type objectWriter interface {
	WriteIfAbsent(ctx context.Context, bucket, object string, content []byte, contentType string) error
}

// BucketArchive writes <jobId>/records.json into a Cloud Storage bucket.
type BucketArchive struct {
	store  objectWriter
	bucket string
}

func NewBucketArchive(store objectWriter, bucket string) *BucketArchive {
	return &BucketArchive{store: store, bucket: bucket}
}

func (a *BucketArchive) Save(ctx context.Context, result models.ArchivedResult) error {
	content, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	object := fmt.Sprintf("%s/records.json", result.JobID)
	if err := a.store.WriteIfAbsent(ctx, a.bucket, object, content, "application/json"); err != nil {
		return fmt.Errorf("failed to archive gs://%s/%s: %w", a.bucket, object, err)
	}
	return nil
}
