// Package store persists finished batch jobs so their results survive a
// restart of the process that ran them.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/domain-cli/internal/model"
)

// ErrNotFound is returned when no job with the requested id is stored.
var ErrNotFound = eris.New("store: job not found")

// JobRecord is the persisted form of a finished batch job.
type JobRecord struct {
	Snapshot model.JobSnapshot
	// Output is the enriched CSV. Empty for failed jobs.
	Output []byte
}

// JobStore defines the persistence interface for batch jobs.
type JobStore interface {
	// SaveJob inserts or replaces the record for Snapshot.JobID.
	SaveJob(ctx context.Context, rec JobRecord) error
	GetJob(ctx context.Context, jobID string) (*JobRecord, error)
	// DeleteJobsBefore removes jobs created before cutoff and returns how
	// many were removed.
	DeleteJobsBefore(ctx context.Context, cutoff time.Time) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
