package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"orders-lake/internal/domain"
)

var _ domain.QueryJobRepository = (*QueryJobRepo)(nil)

// QueryJobRepo stores engine job lifecycle state in SQLite.
type QueryJobRepo struct {
	db *sql.DB
}

// NewQueryJobRepo creates a new QueryJobRepo.
func NewQueryJobRepo(db *sql.DB) *QueryJobRepo {
	return &QueryJobRepo{db: db}
}

const selectQueryJob = `
	SELECT id, database_name, sql_text, result_destination, output_location, state, row_count,
	       error_message, created_at, started_at, completed_at, updated_at
	FROM query_jobs`

// Create inserts a new job in the QUEUED state unless job.State is set.
func (r *QueryJobRepo) Create(ctx context.Context, job *domain.QueryJob) (*domain.QueryJob, error) {
	if job == nil {
		return nil, domain.ErrValidation("query job is required")
	}
	if job.ID == "" {
		job.ID = domain.NewID()
	}
	if job.State == "" {
		job.State = domain.JobStateQueued
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO query_jobs (id, database_name, sql_text, result_destination, state)
		VALUES (?, ?, ?, ?, ?)
	`, job.ID, job.Database, job.SQLText, job.ResultDestination, string(job.State))
	if err != nil {
		return nil, mapDBError(err)
	}
	return r.GetByID(ctx, job.ID)
}

// GetByID returns a job by ID.
func (r *QueryJobRepo) GetByID(ctx context.Context, id string) (*domain.QueryJob, error) {
	job, err := scanQueryJob(r.db.QueryRowContext(ctx, selectQueryJob+` WHERE id = ?`, id))
	if err != nil {
		if nf, ok := err.(*domain.NotFoundError); ok {
			nf.Message = fmt.Sprintf("query job %q not found", id)
		}
		return nil, err
	}
	return job, nil
}

// ListRecent returns up to limit jobs, newest first.
func (r *QueryJobRepo) ListRecent(ctx context.Context, limit int) ([]domain.QueryJob, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, selectQueryJob+` ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, mapDBError(err)
	}
	defer rows.Close() //nolint:errcheck

	var jobs []domain.QueryJob
	for rows.Next() {
		job, err := scanQueryJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

// MarkRunning moves a queued job to RUNNING.
func (r *QueryJobRepo) MarkRunning(ctx context.Context, id string) error {
	return r.transition(ctx, id, `
		UPDATE query_jobs
		SET state = ?, started_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND state = 'QUEUED'
	`, string(domain.JobStateRunning), id)
}

// MarkSucceeded records where the result was written and completes the job.
func (r *QueryJobRepo) MarkSucceeded(ctx context.Context, id, outputLocation string, rowCount int) error {
	return r.transition(ctx, id, `
		UPDATE query_jobs
		SET state = ?, output_location = ?, row_count = ?, error_message = NULL,
		    completed_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND state IN ('QUEUED', 'RUNNING')
	`, string(domain.JobStateSucceeded), outputLocation, rowCount, id)
}

// MarkFailed completes the job as FAILED with message as its reason.
func (r *QueryJobRepo) MarkFailed(ctx context.Context, id, message string) error {
	return r.transition(ctx, id, `
		UPDATE query_jobs
		SET state = ?, error_message = ?, completed_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND state IN ('QUEUED', 'RUNNING')
	`, string(domain.JobStateFailed), message, id)
}

// MarkCancelled completes the job as CANCELLED.
func (r *QueryJobRepo) MarkCancelled(ctx context.Context, id string) error {
	return r.transition(ctx, id, `
		UPDATE query_jobs
		SET state = ?,
		    error_message = CASE WHEN error_message IS NULL OR error_message = '' THEN 'query cancelled' ELSE error_message END,
		    completed_at = CURRENT_TIMESTAMP,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND state IN ('QUEUED', 'RUNNING')
	`, string(domain.JobStateCancelled), id)
}

// transition runs a guarded state update. A job that exists but is already
// terminal yields a ConflictError.
func (r *QueryJobRepo) transition(ctx context.Context, id, stmt string, args ...interface{}) error {
	res, err := r.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return mapDBError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}
	job, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return domain.ErrConflict("query job %q is already %s", id, job.State)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanQueryJob(row rowScanner) (*domain.QueryJob, error) {
	var (
		job                    domain.QueryJob
		state                  string
		errorMessage           sql.NullString
		startedAt, completedAt sql.NullTime
		createdAt, updatedAt   time.Time
	)
	err := row.Scan(
		&job.ID,
		&job.Database,
		&job.SQLText,
		&job.ResultDestination,
		&job.OutputLocation,
		&state,
		&job.RowCount,
		&errorMessage,
		&createdAt,
		&startedAt,
		&completedAt,
		&updatedAt,
	)
	if err != nil {
		return nil, mapDBError(err)
	}

	job.State = domain.JobState(state)
	job.CreatedAt = createdAt
	job.UpdatedAt = updatedAt
	if errorMessage.Valid {
		msg := errorMessage.String
		job.ErrorMessage = &msg
	}
	if startedAt.Valid {
		t := startedAt.Time
		job.StartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		job.CompletedAt = &t
	}
	return &job, nil
}
