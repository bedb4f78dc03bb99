package models

import "time"

// Batch lifecycle states tracked in the local journal.
const (
	BatchCreated  = "created"
	BatchUploaded = "uploaded"
	BatchNotified = "notified"
	BatchFailed   = "failed"
)

// UploadBatch identifies one submit action: the set of files uploaded
// together for a task and later classified under one batch id.
// TaskID and ProjectID are immutable for the batch's lifetime.
type UploadBatch struct {
	ID        string
	TaskID    string
	ProjectID string

	// JobID is set once classification has been started for the batch.
	JobID string

	Total     int
	State     string
	CreatedAt time.Time
}
