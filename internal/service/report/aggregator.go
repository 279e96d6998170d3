// Package report builds the orders dashboard by running every configured
// query with bounded parallelism.
package report

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"orders-lake/internal/domain"
)

// DefaultConcurrency bounds how many queries run at once.
const DefaultConcurrency = 4

// DefaultTitle is the report heading.
const DefaultTitle = "Orders Dashboard"

// QueryRunner executes one query spec to completion.
type QueryRunner interface {
	RunQuery(ctx context.Context, spec domain.QueryJobSpec) domain.QueryJobResult
}

// Aggregator fans a list of query specs out to a QueryRunner.
type Aggregator struct {
	runner      QueryRunner
	concurrency int
	now         func() time.Time
	logger      *slog.Logger
}

// NewAggregator creates an Aggregator. concurrency < 1 uses DefaultConcurrency.
func NewAggregator(runner QueryRunner, concurrency int, logger *slog.Logger) *Aggregator {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	return &Aggregator{
		runner:      runner,
		concurrency: concurrency,
		now:         time.Now,
		logger:      logger.With("component", "report"),
	}
}

// BuildReport runs every spec and returns one section per spec, in spec order.
// A failing query yields a Failure section and never affects its siblings.
func (a *Aggregator) BuildReport(ctx context.Context, specs []domain.QueryJobSpec) domain.Report {
	start := a.now()
	sections := make([]domain.ReportSection, len(specs))

	g := new(errgroup.Group)
	g.SetLimit(a.concurrency)
	for i, spec := range specs {
		g.Go(func() error {
			sections[i] = domain.ReportSection{
				Title:  spec.Title,
				Result: a.runner.RunQuery(ctx, spec),
			}
			return nil
		})
	}
	_ = g.Wait()

	report := domain.Report{Title: DefaultTitle, GeneratedAt: start, Sections: sections}
	a.logger.Info("report built",
		"sections", len(sections),
		"failed", report.Failed(),
		"duration", a.now().Sub(start),
	)
	return report
}
