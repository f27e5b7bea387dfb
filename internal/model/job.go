package model

import "time"

// JobStatus represents the state of a batch job.
type JobStatus string

const (
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether the job has left processing.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// RowError records a failure on one input row.
type RowError struct {
	RowIndex int    `json:"row_index"`
	Message  string `json:"message"`
}

// JobSnapshot is a read-only copy of a job's progress. Error carries the
// cause of a failed job; row failures stay in Errors.
type JobSnapshot struct {
	JobID       string     `json:"job_id"`
	Status      JobStatus  `json:"status"`
	Progress    int        `json:"progress"`
	Total       int        `json:"total"`
	Errors      []RowError `json:"errors"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	DownloadURL string     `json:"download_url,omitempty"`
}
