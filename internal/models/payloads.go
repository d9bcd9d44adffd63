package models

// These structs define the JSON payloads of the HTTP endpoints.

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ExportRequest is the input for the export endpoint. Records are usually the
// array returned by the process endpoint.
type ExportRequest struct {
	Formats []string         `json:"formats"`
	Records []map[string]any `json:"records"`
}

// ArchivedResult is what gets written to the results bucket for one job.
type ArchivedResult struct {
	JobID         string   `json:"jobId"`
	Source        string   `json:"source,omitempty"`
	Formats       []string `json:"formats"`
	PageCount     int      `json:"pageCount"`
	AcceptedPages int      `json:"acceptedPages"`
	Model         string   `json:"model"`
	Records       any      `json:"records"`
}
