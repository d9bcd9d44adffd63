package gcp

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
)

var ErrMissingProjectID = errors.New("PROJECT_ID must be set to use the job ledger")

// NewLedgerClient opens the Firestore database holding extraction jobs. An empty
// databaseID selects the project's default database.
func NewLedgerClient(ctx context.Context, projectID, databaseID string) (*firestore.Client, error) {
	if projectID == "" {
		return nil, ErrMissingProjectID
	}
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}

	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger database %q: %w", databaseID, err)
	}
	return client, nil
}
