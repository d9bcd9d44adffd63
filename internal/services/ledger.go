package services

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/StackNinja0109/pdf2csv/internal/models"
)

// Ledger records extraction jobs. Nothing in the pipeline reads it back.
type Ledger interface {
	Start(ctx context.Context, jobID string, job models.ExtractionJob) error
	Finish(ctx context.Context, jobID string, outcome JobOutcome) error
}

// JobOutcome is the final state of a job.
type JobOutcome struct {
	Status        string
	ErrorDetails  string
	PageCount     int
	AcceptedPages int
	RecordCount   int
}

// FirestoreLedger stores one document per job, keyed by job id.
type FirestoreLedger struct {
	client     *firestore.Client
	collection string
}

func NewFirestoreLedger(client *firestore.Client, collection string) *FirestoreLedger {
	return &FirestoreLedger{client: client, collection: collection}
}

func (l *FirestoreLedger) Start(ctx context.Context, jobID string, job models.ExtractionJob) error {
	if _, err := l.client.Collection(l.collection).Doc(jobID).Set(ctx, job); err != nil {
		return fmt.Errorf("failed to create job document: %w", err)
	}
	return nil
}

func (l *FirestoreLedger) Finish(ctx context.Context, jobID string, outcome JobOutcome) error {
	_, err := l.client.Collection(l.collection).Doc(jobID).Update(ctx, outcomeUpdates(outcome))
	if err != nil {
		return fmt.Errorf("failed to update job status to %s: %w", outcome.Status, err)
	}
	return nil
}

func outcomeUpdates(outcome JobOutcome) []firestore.Update {
	updates := []firestore.Update{
		{Path: "status", Value: outcome.Status},
	}
	if outcome.ErrorDetails != "" {
		updates = append(updates, firestore.Update{Path: "errorDetails", Value: outcome.ErrorDetails})
		return updates
	}
	return append(updates,
		firestore.Update{Path: "pageCount", Value: outcome.PageCount},
		firestore.Update{Path: "acceptedPages", Value: outcome.AcceptedPages},
		firestore.Update{Path: "recordCount", Value: outcome.RecordCount},
	)
}
