// Package batch runs the enrichment pipeline over uploaded tables in the
// background and tracks per-job progress.
package batch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/sells-group/domain-cli/internal/config"
	"github.com/sells-group/domain-cli/internal/model"
	"github.com/sells-group/domain-cli/internal/monitoring"
	"github.com/sells-group/domain-cli/internal/pipeline"
	"github.com/sells-group/domain-cli/internal/store"
	"github.com/sells-group/domain-cli/internal/tabular"
)

var (
	// ErrJobNotFound is returned for an unknown job id.
	ErrJobNotFound = eris.New("batch: job not found")
	// ErrJobNotComplete is returned when results are requested before the
	// job completed.
	ErrJobNotComplete = eris.New("batch: job not complete")
	// ErrNoCompanyColumn is returned when no header names a company column.
	ErrNoCompanyColumn = eris.New("batch: could not detect company name column")

	errEmptyCompany = errors.New("company name is empty")
	errNoResult     = errors.New("enrichment returned no result")
)

// Engine owns the registry of batch jobs and their background workers.
type Engine struct {
	enricher pipeline.Enricher
	store    store.JobStore
	metrics  *monitoring.Metrics
	slots    *semaphore.Weighted
	ttl      time.Duration
	now      func() time.Time

	mu   sync.RWMutex
	jobs map[string]*job

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures an Engine.
type Option func(*Engine)

// WithStore persists finished jobs so they can be served after a restart.
func WithStore(st store.JobStore) Option {
	return func(e *Engine) { e.store = st }
}

// WithMetrics records job and row counters.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine creates an engine that enriches rows with enricher.
func NewEngine(cfg config.BatchConfig, enricher pipeline.Enricher, opts ...Option) *Engine {
	slots := cfg.MaxConcurrentJobs
	if slots <= 0 {
		slots = 4
	}
	ttl := time.Duration(cfg.JobTTLHours) * time.Hour
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		enricher: enricher,
		slots:    semaphore.NewWeighted(int64(slots)),
		ttl:      ttl,
		now:      time.Now,
		jobs:     make(map[string]*job),
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Submit parses an uploaded table and starts a background job for it.
// Input errors fail fast and create no job.
func (e *Engine) Submit(_ context.Context, filename string, data []byte) (model.JobSnapshot, error) {
	table, err := tabular.Parse(filename, data)
	if err != nil {
		return model.JobSnapshot{}, err
	}
	cols := tabular.DetectColumns(table.Header)
	if !cols.HasCompany() {
		return model.JobSnapshot{}, ErrNoCompanyColumn
	}

	j := newJob(uuid.New().String(), table, cols, e.now())

	e.mu.Lock()
	e.jobs[j.id] = j
	e.mu.Unlock()

	e.metrics.JobSubmitted()
	zap.L().Info("batch: job created",
		zap.String("job_id", j.id),
		zap.String("filename", filename),
		zap.Int("rows", table.Len()),
		zap.Int("company_column", cols.Company),
		zap.Int("location_column", cols.Location),
	)

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.run(j)
	}()

	return j.snapshot(), nil
}

func (e *Engine) run(j *job) {
	log := zap.L().With(zap.String("job_id", j.id))

	if err := e.slots.Acquire(e.ctx, 1); err != nil {
		e.finishFailed(j, eris.Wrap(err, "batch: engine shut down before job started"))
		return
	}
	defer e.slots.Release(1)

	log.Info("batch: job started", zap.Int("rows", j.table.Len()))

	for i, row := range j.table.Rows {
		if err := e.ctx.Err(); err != nil {
			e.finishFailed(j, eris.Wrap(err, "batch: engine shut down"))
			return
		}
		res, err := e.processRow(e.ctx, j.cols, row)
		// A row cut short by shutdown carries degraded stage output, not a
		// real answer.
		if cerr := e.ctx.Err(); cerr != nil {
			e.finishFailed(j, eris.Wrap(cerr, "batch: engine shut down"))
			return
		}
		if err != nil {
			log.Warn("batch: row failed", zap.Int("row_index", i), zap.Error(err))
		}
		e.metrics.ObserveRow(err == nil)
		j.recordRow(i, res, err)
	}

	if err := e.ctx.Err(); err != nil {
		e.finishFailed(j, eris.Wrap(err, "batch: engine shut down"))
		return
	}
	output, err := tabular.WriteCSV(j.table, j.resultsSnapshot())
	if err != nil {
		e.finishFailed(j, eris.Wrap(err, "batch: build output"))
		return
	}

	snap := j.snapshot()
	now := e.now()
	snap.Status = model.JobStatusCompleted
	snap.CompletedAt = &now
	snap.DownloadURL = ""
	if err := e.ctx.Err(); err != nil {
		e.finishFailed(j, eris.Wrap(err, "batch: engine shut down"))
		return
	}
	if err := e.persist(store.JobRecord{Snapshot: snap, Output: output}); err != nil {
		e.finishFailed(j, err)
		return
	}

	j.complete(output, now)
	log.Info("batch: job completed",
		zap.Int("rows", snap.Total),
		zap.Int("errors", len(snap.Errors)),
		zap.Duration("duration", now.Sub(j.createdAt)),
	)
}

// processRow enriches one row. Panics from the enricher become row errors.
func (e *Engine) processRow(ctx context.Context, cols tabular.Columns, row []string) (res *model.EnrichmentResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, eris.Errorf("enrichment panicked: %v", r)
		}
	}()

	name := tabular.Cell(row, cols.Company)
	if name == "" {
		return nil, errEmptyCompany
	}
	req := model.CompanyRequest{
		Name:    name,
		Address: tabular.ParseLocation(tabular.Cell(row, cols.Location)),
	}

	res = e.enricher.Enrich(ctx, req)
	if res == nil {
		return nil, errNoResult
	}
	return res, nil
}

func (e *Engine) finishFailed(j *job, err error) {
	now := e.now()
	j.fail(err, now)
	zap.L().Error("batch: job failed", zap.String("job_id", j.id), zap.Error(err))

	if perr := e.persist(store.JobRecord{Snapshot: j.snapshot()}); perr != nil {
		zap.L().Warn("batch: persist failed job", zap.String("job_id", j.id), zap.Error(perr))
	}
}

func (e *Engine) persist(rec store.JobRecord) error {
	if e.store == nil {
		return nil
	}
	// Persisting outlives the request that submitted the job.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return eris.Wrap(e.store.SaveJob(ctx, rec), "batch: persist job")
}

func (e *Engine) lookup(id string) (*job, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	j, ok := e.jobs[id]
	return j, ok
}

// loadStored fetches a job that is no longer in memory.
func (e *Engine) loadStored(ctx context.Context, id string) (*store.JobRecord, error) {
	if e.store == nil {
		return nil, ErrJobNotFound
	}
	rec, err := e.store.GetJob(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "batch: load stored job")
	}
	if rec.Snapshot.Status == model.JobStatusCompleted {
		rec.Snapshot.DownloadURL = downloadURL(id)
	}
	return rec, nil
}

// Status returns a snapshot of the job.
func (e *Engine) Status(ctx context.Context, id string) (model.JobSnapshot, error) {
	if j, ok := e.lookup(id); ok {
		return j.snapshot(), nil
	}
	rec, err := e.loadStored(ctx, id)
	if err != nil {
		return model.JobSnapshot{}, err
	}
	return rec.Snapshot, nil
}

// Result returns the enriched CSV of a completed job.
func (e *Engine) Result(ctx context.Context, id string) ([]byte, error) {
	if j, ok := e.lookup(id); ok {
		output, status := j.outputIfComplete()
		if status != model.JobStatusCompleted {
			return nil, ErrJobNotComplete
		}
		return output, nil
	}

	rec, err := e.loadStored(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Snapshot.Status != model.JobStatusCompleted {
		return nil, ErrJobNotComplete
	}
	return rec.Output, nil
}

// Wait blocks until the job leaves processing or ctx is done.
func (e *Engine) Wait(ctx context.Context, id string) (model.JobSnapshot, error) {
	j, ok := e.lookup(id)
	if !ok {
		return e.Status(ctx, id)
	}
	select {
	case <-j.done:
		return j.snapshot(), nil
	case <-ctx.Done():
		return j.snapshot(), eris.Wrap(ctx.Err(), "batch: wait for job")
	}
}

// JobCounts returns the number of in-memory jobs per status.
func (e *Engine) JobCounts() map[model.JobStatus]int {
	e.mu.RLock()
	jobs := make([]*job, 0, len(e.jobs))
	for _, j := range e.jobs {
		jobs = append(jobs, j)
	}
	e.mu.RUnlock()

	counts := make(map[model.JobStatus]int, 3)
	for _, j := range jobs {
		j.mu.RLock()
		counts[j.status]++
		j.mu.RUnlock()
	}
	return counts
}

// Evict removes finished jobs created more than maxAge ago from memory and
// from the store. Jobs still processing are kept. It returns how many
// in-memory jobs were removed.
func (e *Engine) Evict(ctx context.Context, maxAge time.Duration) int {
	cutoff := e.now().Add(-maxAge)
	log := zap.L().With(zap.String("component", "batch.janitor"))

	e.mu.Lock()
	removed := 0
	for id, j := range e.jobs {
		j.mu.RLock()
		old := j.status.Terminal() && j.createdAt.Before(cutoff)
		j.mu.RUnlock()
		if old {
			delete(e.jobs, id)
			removed++
			log.Debug("batch: evicted job", zap.String("job_id", id))
		}
	}
	e.mu.Unlock()

	if e.store != nil {
		n, err := e.store.DeleteJobsBefore(ctx, cutoff)
		if err != nil {
			log.Warn("batch: evict stored jobs", zap.Error(err))
		} else if n > 0 {
			log.Info("batch: evicted stored jobs", zap.Int("count", n))
		}
	}
	if removed > 0 {
		log.Info("batch: evicted jobs", zap.Int("count", removed))
	}
	return removed
}

// RunJanitor evicts expired jobs every interval. It blocks until ctx is
// cancelled.
func (e *Engine) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}

	log := zap.L().With(zap.String("component", "batch.janitor"))
	log.Info("starting job janitor",
		zap.Duration("interval", interval),
		zap.Duration("ttl", e.ttl),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("job janitor stopped")
			return
		case <-ticker.C:
			e.Evict(ctx, e.ttl)
		}
	}
}

// Close cancels running jobs and waits for their workers to exit.
func (e *Engine) Close() {
	e.cancel()
	e.wg.Wait()
}
