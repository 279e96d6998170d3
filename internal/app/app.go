// Package app wires configuration, storage, the query engine, and the report
// and ingestion services into one runnable application.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // registers the "duckdb" driver
	_ "github.com/mattn/go-sqlite3"    // registers the "sqlite3" driver

	"orders-lake/internal/config"
	internaldb "orders-lake/internal/db"
	"orders-lake/internal/db/repository"
	"orders-lake/internal/domain"
	"orders-lake/internal/engine"
	"orders-lake/internal/service/ingestion"
	"orders-lake/internal/service/query"
	"orders-lake/internal/service/report"
	"orders-lake/internal/storage"
)

const readPoolSize = 4

// Deps holds what the caller must provide.
type Deps struct {
	Cfg    *config.Config
	Logger *slog.Logger
	// Now overrides the ingestion clock. Nil means time.Now.
	Now func() time.Time
}

// App is the fully wired application.
type App struct {
	Cfg       *config.Config
	Store     domain.ObjectStore
	Jobs      *repository.QueryJobRepo
	Engine    *engine.DuckDBEngine
	Reports   *report.Service
	Trigger   *ingestion.Trigger
	Scheduler *report.Scheduler // nil without REPORT_SCHEDULE

	logger  *slog.Logger
	closers []func() error
}

// New builds the storage adapter, job registry, DuckDB engine, and services
// described by deps.Cfg. Call Close to release them.
func New(ctx context.Context, deps Deps) (_ *App, err error) {
	cfg := deps.Cfg
	a := &App{Cfg: cfg, logger: deps.Logger}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	specs, err := cfg.LoadQuerySet(cfg.QueriesFile)
	if err != nil {
		return nil, fmt.Errorf("load query set: %w", err)
	}

	store, closeStore, err := storage.NewFromConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	a.Store = store
	a.closers = append(a.closers, closeStore)

	writeDB, readDB, err := internaldb.OpenPair(cfg.JobDBPath, readPoolSize)
	if err != nil {
		return nil, fmt.Errorf("open job registry: %w", err)
	}
	a.closers = append(a.closers, writeDB.Close, readDB.Close)
	if err := internaldb.Migrate(writeDB); err != nil {
		return nil, fmt.Errorf("migrate job registry: %w", err)
	}
	jobWriter := repository.NewQueryJobRepo(writeDB)
	a.Jobs = repository.NewQueryJobRepo(readDB)

	duck, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	a.closers = append(a.closers, duck.Close)
	if err := engine.ConfigureStorage(ctx, duck, cfg); err != nil {
		return nil, err
	}

	a.Engine = engine.NewDuckDBEngine(duck, jobWriter, store, engine.SourceFromConfig(cfg), deps.Logger)
	a.Engine.SetJobReader(a.Jobs)
	a.closers = append(a.closers, func() error { a.Engine.Close(); return nil })

	runner := query.NewRunner(a.Engine, store, query.RunnerConfig{
		PollInterval: cfg.PollInterval,
		PollTimeout:  cfg.PollTimeout,
	}, deps.Logger)
	agg := report.NewAggregator(runner, cfg.ReportConcurrency, deps.Logger)
	a.Reports = report.NewService(agg, specs)

	policy := domain.DefaultRetentionPolicy()
	policy.Window = cfg.RetentionWindow
	a.Trigger = ingestion.NewTrigger(store, policy, deps.Now, deps.Logger)

	if cfg.ReportSchedule != "" {
		a.Scheduler = report.NewScheduler(agg, specs, cfg.ReportSchedule, deps.Logger)
	}

	deps.Logger.Info("application wired",
		"storage_backend", cfg.StorageBackend,
		"bucket", cfg.Bucket,
		"result_location", cfg.ResultLocation,
		"queries", len(specs),
	)
	return a, nil
}

// Start launches background work. It is a no-op without a report schedule.
func (a *App) Start() error {
	if a.Scheduler == nil {
		return nil
	}
	return a.Scheduler.Start()
}

// Close stops background work and releases resources in reverse order.
func (a *App) Close() error {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
		a.Scheduler = nil
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
