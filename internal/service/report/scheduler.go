package report

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"orders-lake/internal/domain"
)

// Scheduler rebuilds the report on a cron schedule and logs a per-section summary.
type Scheduler struct {
	cron     *cron.Cron
	agg      *Aggregator
	specs    []domain.QueryJobSpec
	schedule string
	logger   *slog.Logger
}

// NewScheduler creates a Scheduler for the given cron expression.
func NewScheduler(agg *Aggregator, specs []domain.QueryJobSpec, schedule string, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		agg:      agg,
		specs:    specs,
		schedule: schedule,
		logger:   logger.With("component", "report-scheduler"),
	}
}

// Start registers the schedule and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, func() { s.RunOnce(context.Background()) }); err != nil {
		return fmt.Errorf("invalid report schedule %q: %w", s.schedule, err)
	}
	s.cron.Start()
	s.logger.Info("report scheduler started", "schedule", s.schedule)
	return nil
}

// Stop stops the cron loop and waits for a running build to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("report scheduler stopped")
}

// RunOnce builds the report immediately and logs the outcome of every section.
func (s *Scheduler) RunOnce(ctx context.Context) domain.Report {
	report := s.agg.BuildReport(ctx, s.specs)
	for _, sec := range report.Sections {
		if sec.Result.OK() {
			s.logger.Info("scheduled section", "title", sec.Title, "rows", len(sec.Result.Rows))
		} else {
			s.logger.Warn("scheduled section failed", "title", sec.Title, "error", sec.Result.Err)
		}
	}
	return report
}
