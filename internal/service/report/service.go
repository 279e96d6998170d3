package report

import (
	"context"

	"orders-lake/internal/domain"
)

// Service binds an Aggregator to the configured query set. Presenters call
// Build once per request; nothing is cached between calls.
type Service struct {
	agg   *Aggregator
	specs []domain.QueryJobSpec
}

// NewService creates a Service.
func NewService(agg *Aggregator, specs []domain.QueryJobSpec) *Service {
	return &Service{agg: agg, specs: specs}
}

// Build runs the full query set and returns a fresh report.
func (s *Service) Build(ctx context.Context) domain.Report {
	return s.agg.BuildReport(ctx, s.specs)
}

// Queries returns a copy of the configured query set.
func (s *Service) Queries() []domain.QueryJobSpec {
	return append([]domain.QueryJobSpec(nil), s.specs...)
}
