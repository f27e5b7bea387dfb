package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/domain-cli/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func completedRecord(id string, created time.Time) JobRecord {
	done := created.Add(time.Minute)
	return JobRecord{
		Snapshot: model.JobSnapshot{
			JobID:       id,
			Status:      model.JobStatusCompleted,
			Progress:    3,
			Total:       3,
			Errors:      []model.RowError{{RowIndex: 1, Message: "company name is empty"}},
			CreatedAt:   created,
			CompletedAt: &done,
		},
		Output: []byte("company,primary_domain\nApple,apple.com\n"),
	}
}

func TestSQLite_SaveAndGetJob(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, st.SaveJob(ctx, completedRecord("job-1", created)))

	got, err := st.GetJob(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, "job-1", got.Snapshot.JobID)
	assert.Equal(t, model.JobStatusCompleted, got.Snapshot.Status)
	assert.Equal(t, 3, got.Snapshot.Progress)
	assert.Equal(t, 3, got.Snapshot.Total)
	assert.Equal(t, []model.RowError{{RowIndex: 1, Message: "company name is empty"}}, got.Snapshot.Errors)
	assert.True(t, created.Equal(got.Snapshot.CreatedAt))
	require.NotNil(t, got.Snapshot.CompletedAt)
	assert.True(t, created.Add(time.Minute).Equal(*got.Snapshot.CompletedAt))
	assert.Equal(t, "company,primary_domain\nApple,apple.com\n", string(got.Output))
}

func TestSQLite_SaveJobUpserts(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	rec := JobRecord{Snapshot: model.JobSnapshot{
		JobID:     "job-1",
		Status:    model.JobStatusProcessing,
		Total:     2,
		CreatedAt: time.Now(),
	}}
	require.NoError(t, st.SaveJob(ctx, rec))

	rec.Snapshot.Status = model.JobStatusFailed
	rec.Snapshot.Errors = []model.RowError{{RowIndex: 0, Message: "company name is empty"}}
	rec.Snapshot.Error = "batch: persist job: boom"
	require.NoError(t, st.SaveJob(ctx, rec))

	got, err := st.GetJob(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusFailed, got.Snapshot.Status)
	assert.Nil(t, got.Snapshot.CompletedAt)
	assert.Len(t, got.Snapshot.Errors, 1)
	assert.Equal(t, "batch: persist job: boom", got.Snapshot.Error)
	assert.Empty(t, got.Output)
}

func TestSQLite_GetJobNotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.GetJob(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)
}

func TestSQLite_DeleteJobsBefore(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, st.SaveJob(ctx, completedRecord("old", now.Add(-48*time.Hour))))
	require.NoError(t, st.SaveJob(ctx, completedRecord("new", now.Add(-time.Hour))))

	n, err := st.DeleteJobsBefore(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = st.GetJob(ctx, "old")
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = st.GetJob(ctx, "new")
	assert.NoError(t, err)
}

func TestSQLite_MigrateIdempotent(t *testing.T) {
	st := newTestSQLiteStore(t)
	assert.NoError(t, st.Migrate(context.Background()))
}

func TestSQLite_ImplementsJobStore(t *testing.T) {
	var _ JobStore = newTestSQLiteStore(t)
}
