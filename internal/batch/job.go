package batch

import (
	"sync"
	"time"

	"github.com/sells-group/domain-cli/internal/model"
	"github.com/sells-group/domain-cli/internal/tabular"
)

// job is the mutable state of one batch. The worker goroutine is the only
// writer; status readers take the read lock.
type job struct {
	mu sync.RWMutex

	id        string
	table     *tabular.Table
	cols      tabular.Columns
	createdAt time.Time

	status      model.JobStatus
	progress    int
	errors      []model.RowError
	results     []*model.EnrichmentResult
	failure     string
	output      []byte
	completedAt *time.Time

	// done is closed when the job leaves processing.
	done chan struct{}
}

func newJob(id string, table *tabular.Table, cols tabular.Columns, now time.Time) *job {
	return &job{
		id:        id,
		table:     table,
		cols:      cols,
		createdAt: now,
		status:    model.JobStatusProcessing,
		errors:    []model.RowError{},
		results:   make([]*model.EnrichmentResult, 0, table.Len()),
		done:      make(chan struct{}),
	}
}

// recordRow appends the outcome of row i and advances progress.
func (j *job) recordRow(i int, res *model.EnrichmentResult, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err != nil {
		j.errors = append(j.errors, model.RowError{RowIndex: i, Message: err.Error()})
		res = nil
	}
	j.results = append(j.results, res)
	j.progress++
}

// complete moves the job to completed with its rendered output.
func (j *job) complete(output []byte, now time.Time) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.output = output
	j.status = model.JobStatusCompleted
	j.completedAt = &now
	close(j.done)
}

// fail moves the job to failed. The cause is kept apart from row errors so
// len(errors) never exceeds the row count.
func (j *job) fail(err error, now time.Time) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.failure = err.Error()
	j.output = nil
	j.status = model.JobStatusFailed
	j.completedAt = &now
	close(j.done)
}

func (j *job) snapshot() model.JobSnapshot {
	j.mu.RLock()
	defer j.mu.RUnlock()

	snap := model.JobSnapshot{
		JobID:     j.id,
		Status:    j.status,
		Progress:  j.progress,
		Total:     j.table.Len(),
		Errors:    append([]model.RowError{}, j.errors...),
		Error:     j.failure,
		CreatedAt: j.createdAt,
	}
	if j.completedAt != nil {
		t := *j.completedAt
		snap.CompletedAt = &t
	}
	if j.status == model.JobStatusCompleted {
		snap.DownloadURL = downloadURL(j.id)
	}
	return snap
}

func (j *job) resultsSnapshot() []*model.EnrichmentResult {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return append([]*model.EnrichmentResult(nil), j.results...)
}

func (j *job) outputIfComplete() ([]byte, model.JobStatus) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.output, j.status
}

func downloadURL(id string) string {
	return "/download/" + id
}
