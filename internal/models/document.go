package models

import "time"

// Job statuses recorded in the ledger.
const (
	StatusProcessing = "PROCESSING"
	StatusCompleted  = "COMPLETED"
	StatusEmpty      = "EMPTY"
	StatusFailed     = "FAILED"
)

// ExtractionJob is the Firestore record of one extraction run.
// It tracks the outcome and metadata of the file, never the extracted rows.
type ExtractionJob struct {
	FileHash         string    `firestore:"fileHash,omitempty"`
	OriginalFilename string    `firestore:"originalFilename,omitempty"`
	Status           string    `firestore:"status,omitempty"`
	ErrorDetails     string    `firestore:"errorDetails,omitempty"`
	PageCount        int       `firestore:"pageCount,omitempty"`
	AcceptedPages    int       `firestore:"acceptedPages,omitempty"`
	RecordCount      int       `firestore:"recordCount,omitempty"`
	Formats          []string  `firestore:"formats,omitempty"`
	Model            string    `firestore:"model,omitempty"`
	CreatedAt        time.Time `firestore:"createdAt,omitempty"`
}
