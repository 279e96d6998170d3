package report

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orders-lake/internal/domain"
	"orders-lake/internal/testutil"
)

func TestScheduler_RunOnceBuildsFreshReport(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	runner := &testutil.MockQueryRunner{
		RunQueryFn: func(_ context.Context, spec domain.QueryJobSpec) domain.QueryJobResult {
			calls.Add(1)
			if spec.Title == "1. Query" {
				return domain.NewFailure("")
			}
			return domain.NewSuccess([]string{"n"}, [][]string{{"1"}})
		},
	}
	s := NewScheduler(NewAggregator(runner, 2, discardLogger()), specs(2), "@hourly", discardLogger())

	first := s.RunOnce(context.Background())
	require.Len(t, first.Sections, 2)
	assert.False(t, first.Sections[0].Result.OK())
	assert.Equal(t, "Unknown error", first.Sections[0].Result.Err)
	assert.True(t, first.Sections[1].Result.OK())
	assert.Equal(t, 1, first.Failed())

	second := s.RunOnce(context.Background())
	require.Len(t, second.Sections, 2)
	assert.False(t, second.GeneratedAt.Before(first.GeneratedAt))
	assert.Equal(t, 4, int(calls.Load()))
}

func TestScheduler_StartStop(t *testing.T) {
	t.Parallel()

	s := NewScheduler(NewAggregator(&testutil.MockQueryRunner{}, 1, discardLogger()), nil, "@every 1h", discardLogger())
	require.NoError(t, s.Start())
	s.Stop()
}

func TestScheduler_InvalidSchedule(t *testing.T) {
	t.Parallel()

	s := NewScheduler(NewAggregator(&testutil.MockQueryRunner{}, 1, discardLogger()), nil, "every tuesday", discardLogger())
	err := s.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid report schedule")
}
