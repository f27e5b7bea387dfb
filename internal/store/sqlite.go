package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/domain-cli/internal/model"
)

// SQLiteStore implements JobStore using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS jobs (
	id           TEXT PRIMARY KEY,
	status       TEXT NOT NULL,
	progress     INTEGER NOT NULL DEFAULT 0,
	total        INTEGER NOT NULL DEFAULT 0,
	errors       TEXT NOT NULL DEFAULT '[]',
	error        TEXT NOT NULL DEFAULT '',
	output       BLOB,
	created_at   DATETIME NOT NULL,
	completed_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveJob(ctx context.Context, rec JobRecord) error {
	snap := rec.Snapshot
	errorsJSON, err := json.Marshal(snap.Errors)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal job errors")
	}

	var completedAt sql.NullTime
	if snap.CompletedAt != nil {
		completedAt = sql.NullTime{Time: snap.CompletedAt.UTC(), Valid: true}
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO jobs (id, status, progress, total, errors, error, output, created_at, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			progress = excluded.progress,
			total = excluded.total,
			errors = excluded.errors,
			error = excluded.error,
			output = excluded.output,
			completed_at = excluded.completed_at`,
		snap.JobID, string(snap.Status), snap.Progress, snap.Total, string(errorsJSON),
		snap.Error, rec.Output, snap.CreatedAt.UTC(), completedAt,
	)
	return eris.Wrapf(err, "sqlite: save job %s", snap.JobID)
}

func (s *SQLiteStore) GetJob(ctx context.Context, jobID string) (*JobRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, status, progress, total, errors, error, output, created_at, completed_at
		 FROM jobs WHERE id = ?`,
		jobID,
	)

	var (
		rec         JobRecord
		errorsJSON  string
		completedAt sql.NullTime
	)
	snap := &rec.Snapshot
	err := row.Scan(&snap.JobID, &snap.Status, &snap.Progress, &snap.Total,
		&errorsJSON, &snap.Error, &rec.Output, &snap.CreatedAt, &completedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "job %s", jobID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get job %s", jobID)
	}

	if err := json.Unmarshal([]byte(errorsJSON), &snap.Errors); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal job errors")
	}
	if snap.Errors == nil {
		snap.Errors = []model.RowError{}
	}
	if completedAt.Valid {
		t := completedAt.Time
		snap.CompletedAt = &t
	}
	return &rec, nil
}

func (s *SQLiteStore) DeleteJobsBefore(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE created_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete old jobs")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}
