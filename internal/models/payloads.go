package models

import "time"

// These structs define the JSON payloads exchanged by the cloud functions and the
// snapshot objects they read and write.

// ListJobsRequest is the optional query for the list-jobs function.
type ListJobsRequest struct {
	Order string `json:"order"` // "desc" (default) or "asc"
	Limit int    `json:"limit"`
}

// ListJobsResponse is the output of the list-jobs function.
type ListJobsResponse struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
	Jobs   []*Job `json:"jobs"`
}

// JobBatch is the object format used for snapshot export and batch import.
type JobBatch struct {
	ExportedAt time.Time `json:"exportedAt"`
	Collection string    `json:"collection"`
	Jobs       []*Job    `json:"jobs"`
}

// GCSEvent is the payload of a GCS object-finalized event.
type GCSEvent struct {
	Bucket string `json:"bucket"`
	Name   string `json:"name"`
}

// ImportResult summarises one batch import.
type ImportResult struct {
	Source     string   `json:"source"`
	Imported   int      `json:"imported"`
	CreatedIDs []string `json:"createdIds"`
}
