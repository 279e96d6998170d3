// Package query runs one report query end to end: submit to the engine,
// poll until the job settles, then fetch and parse the result object.
package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"orders-lake/internal/domain"
	"orders-lake/internal/storage"
	"orders-lake/internal/tabular"
)

// Defaults for RunnerConfig.
const (
	DefaultPollInterval = 1 * time.Second
	DefaultPollTimeout  = 5 * time.Minute
)

// RunnerConfig controls polling. Zero values take the defaults.
type RunnerConfig struct {
	PollInterval time.Duration
	PollTimeout  time.Duration
}

// Runner executes QueryJobSpecs against a QueryEngine and reads results from an ObjectStore.
type Runner struct {
	engine   domain.QueryEngine
	store    domain.ObjectStore
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger
}

// NewRunner creates a Runner.
func NewRunner(engine domain.QueryEngine, store domain.ObjectStore, cfg RunnerConfig, logger *slog.Logger) *Runner {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = DefaultPollTimeout
	}
	return &Runner{
		engine:   engine,
		store:    store,
		interval: cfg.PollInterval,
		timeout:  cfg.PollTimeout,
		logger:   logger.With("component", "query-runner"),
	}
}

// RunQuery submits spec and waits for its outcome. It never returns an error:
// every failure, including a timeout, is folded into a Failure result.
// A job still running at the timeout is left alone on the engine.
func (r *Runner) RunQuery(ctx context.Context, spec domain.QueryJobSpec) domain.QueryJobResult {
	start := time.Now()
	logger := r.logger.With("title", spec.Title)

	result, jobID, err := r.run(ctx, spec)
	if err != nil {
		msg := failureMessage(err)
		logger.Warn("query failed", "job_id", jobID, "error", msg, "duration", time.Since(start))
		return domain.NewFailure(msg)
	}
	logger.Info("query succeeded", "job_id", jobID, "rows", len(result.Rows), "duration", time.Since(start))
	return result
}

func (r *Runner) run(ctx context.Context, spec domain.QueryJobSpec) (domain.QueryJobResult, string, error) {
	jobID, err := r.engine.Submit(ctx, spec.Query, spec.Database, spec.ResultDestination)
	if err != nil {
		return domain.QueryJobResult{}, "", &domain.SubmitError{Err: err}
	}
	r.logger.Debug("query submitted", "title", spec.Title, "job_id", jobID)

	status, err := r.wait(ctx, jobID)
	if err != nil {
		return domain.QueryJobResult{}, jobID, err
	}

	switch status.State {
	case domain.JobStateSucceeded:
		res, err := r.fetch(ctx, spec, status)
		return res, jobID, err
	default:
		return domain.QueryJobResult{}, jobID, &domain.EngineJobFailure{JobID: jobID, State: status.State, Reason: status.Reason}
	}
}

// wait polls immediately and then once per interval until the job is terminal
// or the timeout elapses.
func (r *Runner) wait(ctx context.Context, jobID string) (domain.JobStatus, error) {
	waitCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	last := domain.JobState("")
	for {
		status, err := r.engine.Poll(waitCtx, jobID)
		if err != nil {
			if ctx.Err() == nil && waitCtx.Err() != nil {
				return domain.JobStatus{}, &domain.PollTimeoutError{JobID: jobID, Timeout: r.timeout}
			}
			return domain.JobStatus{}, fmt.Errorf("poll job %s: %w", jobID, err)
		}
		if status.State != last {
			r.logger.Debug("job state", "job_id", jobID, "state", status.State)
			last = status.State
		}
		if status.State.IsTerminal() {
			return status, nil
		}

		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return domain.JobStatus{}, ctx.Err()
			}
			return domain.JobStatus{}, &domain.PollTimeoutError{JobID: jobID, Timeout: r.timeout}
		case <-ticker.C:
		}
	}
}

func (r *Runner) fetch(ctx context.Context, spec domain.QueryJobSpec, status domain.JobStatus) (domain.QueryJobResult, error) {
	uri := status.OutputLocation
	if uri == "" {
		dest, err := storage.ParseLocation(spec.ResultDestination)
		if err != nil {
			return domain.QueryJobResult{}, fmt.Errorf("result destination: %w", err)
		}
		uri = dest.Join(status.JobID + ".csv").String()
	}
	loc, err := storage.ParseObjectLocation(uri)
	if err != nil {
		return domain.QueryJobResult{}, fmt.Errorf("result location: %w", err)
	}

	data, err := r.store.Get(ctx, loc.Bucket, loc.Key)
	if err != nil {
		return domain.QueryJobResult{}, &domain.StorageError{Op: "get", Bucket: loc.Bucket, Key: loc.Key, Err: err}
	}
	table, err := tabular.Parse(data)
	if err != nil {
		return domain.QueryJobResult{}, fmt.Errorf("parse result %s: %w", uri, err)
	}
	return domain.NewSuccess(table.Columns, table.Rows), nil
}

func failureMessage(err error) string {
	var jobFailure *domain.EngineJobFailure
	var timeout *domain.PollTimeoutError
	switch {
	case errors.As(err, &jobFailure):
		return jobFailure.Error()
	case errors.As(err, &timeout):
		return timeout.Error()
	default:
		return "An exception occurred: " + err.Error()
	}
}
