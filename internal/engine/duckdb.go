// Package engine runs report queries asynchronously on DuckDB and tracks each
// execution as a job that callers submit and then poll.
package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"orders-lake/internal/ddl"
	"orders-lake/internal/domain"
	"orders-lake/internal/storage"
	"orders-lake/internal/tabular"
)

var _ domain.QueryEngine = (*DuckDBEngine)(nil)

// Source describes the view queries read orders from.
type Source struct {
	View string // view name created inside each query database, e.g. "filtered_orders"
	Glob string // path DuckDB reads CSV files from; empty disables the view
	// Types pins column types that auto-detection would otherwise guess.
	Types map[string]string
}

// JobReader loads job state for Poll. It is usually a repository on the
// read-only pool so polling never queues behind job writes.
type JobReader interface {
	GetByID(ctx context.Context, id string) (*domain.QueryJob, error)
}

// DuckDBEngine executes queries in background goroutines against a DuckDB
// pool, writes each result as tabular text through an ObjectStore, and keeps
// job state in a QueryJobRepository.
type DuckDBEngine struct {
	db     *sql.DB
	jobs   domain.QueryJobRepository
	reader JobReader
	store  domain.ObjectStore
	source Source
	logger *slog.Logger

	ddlMu   sync.Mutex
	cancels sync.Map // job id -> context.CancelFunc
	wg      sync.WaitGroup
	closed  chan struct{}
}

// NewDuckDBEngine creates a DuckDBEngine.
func NewDuckDBEngine(db *sql.DB, jobs domain.QueryJobRepository, store domain.ObjectStore, source Source, logger *slog.Logger) *DuckDBEngine {
	return &DuckDBEngine{
		db:     db,
		jobs:   jobs,
		reader: jobs,
		store:  store,
		source: source,
		logger: logger.With("component", "duckdb-engine"),
		closed: make(chan struct{}),
	}
}

// SetJobReader routes Poll through r instead of the write repository.
func (e *DuckDBEngine) SetJobReader(r JobReader) {
	e.reader = r
}

// Submit registers a job and starts executing it. The returned id can be
// polled until the job reaches a terminal state.
func (e *DuckDBEngine) Submit(ctx context.Context, query, database, resultDestination string) (string, error) {
	select {
	case <-e.closed:
		return "", fmt.Errorf("engine is closed")
	default:
	}
	if strings.TrimSpace(query) == "" {
		return "", domain.ErrValidation("query text is required")
	}
	if err := ddl.ValidateIdentifier(database); err != nil {
		return "", domain.ErrValidation("invalid database %q: %v", database, err)
	}
	dest, err := storage.ParseLocation(resultDestination)
	if err != nil {
		return "", domain.ErrValidation("invalid result destination: %v", err)
	}

	job, err := e.jobs.Create(ctx, &domain.QueryJob{
		Database:          database,
		SQLText:           query,
		ResultDestination: resultDestination,
		State:             domain.JobStateQueued,
	})
	if err != nil {
		return "", fmt.Errorf("create query job: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	e.cancels.Store(job.ID, cancel)
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer e.cancels.Delete(job.ID)
		defer cancel()
		e.run(runCtx, job.ID, database, query, dest)
	}()

	e.logger.Debug("query job submitted", "job_id", job.ID, "database", database)
	return job.ID, nil
}

// Poll reports the current state of a job.
func (e *DuckDBEngine) Poll(ctx context.Context, jobID string) (domain.JobStatus, error) {
	job, err := e.reader.GetByID(ctx, jobID)
	if err != nil {
		return domain.JobStatus{}, err
	}
	status := domain.JobStatus{
		JobID:          job.ID,
		State:          job.State,
		OutputLocation: job.OutputLocation,
	}
	if job.ErrorMessage != nil {
		status.Reason = *job.ErrorMessage
	}
	return status, nil
}

// Cancel stops a queued or running job. Cancelling a finished job is a no-op.
func (e *DuckDBEngine) Cancel(ctx context.Context, jobID string) error {
	job, err := e.jobs.GetByID(ctx, jobID)
	if err != nil {
		return err
	}
	if job.State.IsTerminal() {
		return nil
	}
	if cancelRaw, ok := e.cancels.Load(jobID); ok {
		if cancelFn, ok := cancelRaw.(context.CancelFunc); ok {
			cancelFn()
		}
	}
	err = e.jobs.MarkCancelled(ctx, jobID)
	var conflict *domain.ConflictError
	if errors.As(err, &conflict) {
		return nil
	}
	return err
}

// Close cancels every in-flight job and waits for the workers to exit.
func (e *DuckDBEngine) Close() {
	select {
	case <-e.closed:
		return
	default:
		close(e.closed)
	}
	e.cancels.Range(func(_, v any) bool {
		if cancelFn, ok := v.(context.CancelFunc); ok {
			cancelFn()
		}
		return true
	})
	e.wg.Wait()
}

func (e *DuckDBEngine) run(ctx context.Context, jobID, database, query string, dest storage.Location) {
	logger := e.logger.With("job_id", jobID)

	if err := e.jobs.MarkRunning(ctx, jobID); err != nil {
		logger.Warn("mark running failed", "error", err)
		e.finishFailed(ctx, logger, jobID, err)
		return
	}

	columns, rows, err := e.execute(ctx, database, query)
	if err != nil {
		e.finishFailed(ctx, logger, jobID, err)
		return
	}

	data, err := tabular.Format(columns, rows)
	if err != nil {
		e.finishFailed(ctx, logger, jobID, fmt.Errorf("format result: %w", err))
		return
	}
	out := dest.Join(jobID + ".csv")
	if err := e.store.Put(ctx, out.Bucket, out.Key, data); err != nil {
		e.finishFailed(ctx, logger, jobID, fmt.Errorf("write result: %w", err))
		return
	}

	if err := e.jobs.MarkSucceeded(context.Background(), jobID, out.String(), len(rows)); err != nil {
		var conflict *domain.ConflictError
		if errors.As(err, &conflict) {
			logger.Debug("job finished after cancellation", "error", err)
			return
		}
		logger.Error("mark succeeded failed", "error", err)
		return
	}
	logger.Debug("query job succeeded", "rows", len(rows), "output", out.String())
}

func (e *DuckDBEngine) finishFailed(ctx context.Context, logger *slog.Logger, jobID string, cause error) {
	var markErr error
	if ctx.Err() != nil {
		markErr = e.jobs.MarkCancelled(context.Background(), jobID)
	} else {
		logger.Debug("query job failed", "error", cause)
		markErr = e.jobs.MarkFailed(context.Background(), jobID, cause.Error())
	}
	var conflict *domain.ConflictError
	if markErr != nil && !errors.As(markErr, &conflict) {
		logger.Error("record job failure", "error", markErr)
	}
}

// execute runs query on a dedicated connection whose default schema is database.
func (e *DuckDBEngine) execute(ctx context.Context, database, query string) ([]string, [][]string, error) {
	conn, err := e.db.Conn(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close() //nolint:errcheck

	if err := e.prepareDatabase(ctx, conn, database); err != nil {
		return nil, nil, err
	}

	rows, err := conn.QueryContext(ctx, query)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close() //nolint:errcheck

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("read columns: %w", err)
	}

	var out [][]string
	for rows.Next() {
		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, fmt.Errorf("scan row: %w", err)
		}
		row := make([]string, len(values))
		for i, v := range values {
			row[i] = FormatValue(v)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return columns, out, nil
}

// prepareDatabase creates the schema and source view if needed and makes the
// schema the connection default. DDL is serialised across jobs.
func (e *DuckDBEngine) prepareDatabase(ctx context.Context, conn *sql.Conn, database string) error {
	e.ddlMu.Lock()
	defer e.ddlMu.Unlock()

	stmts := make([]string, 0, 3)
	createSQL, err := ddl.CreateSchema(database)
	if err != nil {
		return err
	}
	stmts = append(stmts, createSQL)
	if e.source.Glob != "" && e.source.View != "" {
		viewSQL, err := ddl.CreateCSVView(database, e.source.View, e.source.Glob, e.source.Types)
		if err != nil {
			return err
		}
		stmts = append(stmts, viewSQL)
	}
	useSQL, err := ddl.UseSchema(database)
	if err != nil {
		return err
	}
	stmts = append(stmts, useSQL)

	for _, stmt := range stmts {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
