// Package sqlite is the embedded job store used when no MongoDB is
// configured.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"codegen/internal/domain/entity"
	"codegen/internal/domain/repository"
	"codegen/internal/infrastructure/metrics"
)

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
	id TEXT PRIMARY KEY,
	description TEXT NOT NULL,
	mode TEXT NOT NULL,
	language TEXT NOT NULL,
	status TEXT NOT NULL,
	result_json TEXT,
	error TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS jobs_status ON jobs(status);
`

const jobColumns = `id, description, mode, language, status, result_json, error, created_at, updated_at`

var _ repository.JobRepository = (*JobRepo)(nil)

type JobRepo struct {
	db *sql.DB
}

// NewJobRepo opens (creating if needed) the database at path. ":memory:"
// gives a private in-memory store.
func NewJobRepo(path string) (*JobRepo, error) {
	dsn := ":memory:"
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
		dsn = path + "?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps writers serialized and an in-memory
	// database alive.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return &JobRepo{db: db}, nil
}

func (r *JobRepo) Close() error {
	return r.db.Close()
}

func (r *JobRepo) Create(ctx context.Context, job *entity.Job) error {
	metrics.IncStoreOp("sqlite", "put")

	result, err := encodeResult(job.Result)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO jobs (`+jobColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.Description, string(job.Mode), string(job.Language), string(job.Status),
		result, job.Error, job.CreatedAt.UnixNano(), job.UpdatedAt.UnixNano(),
	)
	if err != nil {
		metrics.IncError("sqlite_job_repo", "create_error")
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

func (r *JobRepo) GetByID(ctx context.Context, id string) (*entity.Job, error) {
	metrics.IncStoreOp("sqlite", "get")

	row := r.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", entity.ErrJobNotFound, id)
	}
	if err != nil {
		metrics.IncError("sqlite_job_repo", "get_error")
		return nil, err
	}
	return job, nil
}

func (r *JobRepo) List(ctx context.Context) ([]*entity.Job, error) {
	metrics.IncStoreOp("sqlite", "list")
	return r.query(ctx, `SELECT `+jobColumns+` FROM jobs ORDER BY created_at, id`)
}

func (r *JobRepo) ListByStatus(ctx context.Context, status entity.JobStatus) ([]*entity.Job, error) {
	metrics.IncStoreOp("sqlite", "list")
	return r.query(ctx, `SELECT `+jobColumns+` FROM jobs WHERE status = ? ORDER BY created_at, id`, string(status))
}

func (r *JobRepo) query(ctx context.Context, q string, args ...any) ([]*entity.Job, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		metrics.IncError("sqlite_job_repo", "list_error")
		return nil, fmt.Errorf("query jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*entity.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			metrics.IncError("sqlite_job_repo", "list_decode_error")
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func (r *JobRepo) Update(ctx context.Context, job *entity.Job) error {
	metrics.IncStoreOp("sqlite", "put")

	result, err := encodeResult(job.Result)
	if err != nil {
		return err
	}
	job.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE jobs SET description = ?, mode = ?, language = ?, status = ?, result_json = ?, error = ?, updated_at = ? WHERE id = ?`,
		job.Description, string(job.Mode), string(job.Language), string(job.Status),
		result, job.Error, job.UpdatedAt.UnixNano(), job.ID,
	)
	if err != nil {
		metrics.IncError("sqlite_job_repo", "update_error")
		return fmt.Errorf("update job: %w", err)
	}
	return expectOne(res, job.ID)
}

func (r *JobRepo) UpdateStatus(ctx context.Context, id string, status entity.JobStatus) error {
	metrics.IncStoreOp("sqlite", "put")

	res, err := r.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC().UnixNano(), id,
	)
	if err != nil {
		metrics.IncError("sqlite_job_repo", "update_status_error")
		return fmt.Errorf("update job status: %w", err)
	}
	return expectOne(res, id)
}

func (r *JobRepo) Delete(ctx context.Context, id string) error {
	metrics.IncStoreOp("sqlite", "delete")

	res, err := r.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, id)
	if err != nil {
		metrics.IncError("sqlite_job_repo", "delete_error")
		return fmt.Errorf("delete job: %w", err)
	}
	return expectOne(res, id)
}

func (r *JobRepo) CountByStatus(ctx context.Context, status entity.JobStatus) (int, error) {
	metrics.IncStoreOp("sqlite", "count")

	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM jobs WHERE status = ?`, string(status)).Scan(&n); err != nil {
		metrics.IncError("sqlite_job_repo", "count_by_status_error")
		return 0, fmt.Errorf("count jobs: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(s scanner) (*entity.Job, error) {
	var (
		job                  entity.Job
		mode, lang, status   string
		result               sql.NullString
		createdAt, updatedAt int64
	)
	err := s.Scan(&job.ID, &job.Description, &mode, &lang, &status, &result, &job.Error, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	job.Mode = entity.Mode(mode)
	job.Language = entity.Language(lang)
	job.Status = entity.JobStatus(status)
	job.CreatedAt = time.Unix(0, createdAt).UTC()
	job.UpdatedAt = time.Unix(0, updatedAt).UTC()
	if result.Valid && result.String != "" {
		var res entity.GenerationResult
		if err := json.Unmarshal([]byte(result.String), &res); err != nil {
			return nil, fmt.Errorf("decode result of job %s: %w", job.ID, err)
		}
		job.Result = &res
	}
	return &job, nil
}

func encodeResult(res *entity.GenerationResult) (sql.NullString, error) {
	if res == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(res)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encode result: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func expectOne(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", entity.ErrJobNotFound, id)
	}
	return nil
}
