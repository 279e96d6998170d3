package query

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orders-lake/internal/domain"
	"orders-lake/internal/testutil"
)

const fixtureCSV = "\"Customer\",\"TotalAmountSpent\"\n\"Acme\",\"1500.00\"\n"

var testSpec = domain.QueryJobSpec{
	Title:             "1. Total Sales by Customer",
	Query:             `SELECT Customer, SUM(Amount) AS TotalAmountSpent FROM "filtered_orders" GROUP BY Customer`,
	Database:          "orders_db",
	ResultDestination: "s3://orders/enriched/",
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fastRunner(eng domain.QueryEngine, store domain.ObjectStore) *Runner {
	return NewRunner(eng, store, RunnerConfig{PollInterval: 5 * time.Millisecond, PollTimeout: time.Second}, discardLogger())
}

func TestRunQuery_SucceedsAfterPolling(t *testing.T) {
	t.Parallel()

	eng := &testutil.MockQueryEngine{
		SubmitFn: func(_ context.Context, query, database, dest string) (string, error) {
			assert.Equal(t, testSpec.Query, query)
			assert.Equal(t, "orders_db", database)
			assert.Equal(t, "s3://orders/enriched/", dest)
			return "job-1", nil
		},
		PollFn: testutil.ScriptedPoll("", domain.JobStateRunning, domain.JobStateRunning, domain.JobStateSucceeded),
	}
	store := &testutil.MockObjectStore{
		GetFn: func(_ context.Context, bucket, key string) ([]byte, error) {
			assert.Equal(t, "orders", bucket)
			assert.Equal(t, "enriched/job-1.csv", key)
			return []byte(fixtureCSV), nil
		},
	}

	res := fastRunner(eng, store).RunQuery(context.Background(), testSpec)

	require.True(t, res.OK(), res.Err)
	assert.Equal(t, []string{"Customer", "TotalAmountSpent"}, res.Columns)
	assert.Equal(t, [][]string{{"Acme", "1500.00"}}, res.Rows)
	assert.Equal(t, 3, eng.Polls("job-1"))
}

func TestRunQuery_UsesEngineOutputLocation(t *testing.T) {
	t.Parallel()

	eng := &testutil.MockQueryEngine{
		SubmitFn: func(context.Context, string, string, string) (string, error) { return "job-2", nil },
		PollFn: func(_ context.Context, jobID string) (domain.JobStatus, error) {
			return domain.JobStatus{JobID: jobID, State: domain.JobStateSucceeded, OutputLocation: "s3://other/results/abc.csv"}, nil
		},
	}
	store := &testutil.MockObjectStore{
		GetFn: func(_ context.Context, bucket, key string) ([]byte, error) {
			if bucket != "other" || key != "results/abc.csv" {
				return nil, domain.ErrNotFound("object %s/%s not found", bucket, key)
			}
			return []byte("n\n"), nil
		},
	}

	res := fastRunner(eng, store).RunQuery(context.Background(), testSpec)
	require.True(t, res.OK(), res.Err)
	assert.Equal(t, []string{"n"}, res.Columns)
	assert.Empty(t, res.Rows)
	assert.NotNil(t, res.Rows)
}

func TestRunQuery_Failures(t *testing.T) {
	t.Parallel()

	okSubmit := func(context.Context, string, string, string) (string, error) { return "job-x", nil }

	tests := []struct {
		name    string
		submit  func(context.Context, string, string, string) (string, error)
		poll    func(context.Context, string) (domain.JobStatus, error)
		get     func(context.Context, string, string) ([]byte, error)
		wantMsg string
	}{
		{
			name:    "engine failure with reason",
			submit:  okSubmit,
			poll:    testutil.ScriptedPoll("SYNTAX_ERROR: line 1:8", domain.JobStateRunning, domain.JobStateFailed),
			wantMsg: "Query failed: SYNTAX_ERROR: line 1:8",
		},
		{
			name:    "engine failure without reason",
			submit:  okSubmit,
			poll:    testutil.ScriptedPoll("", domain.JobStateFailed),
			wantMsg: "Query failed: Unknown error",
		},
		{
			name:    "cancelled job",
			submit:  okSubmit,
			poll:    testutil.ScriptedPoll("cancelled by operator", domain.JobStateCancelled),
			wantMsg: "Query failed: cancelled by operator",
		},
		{
			name: "submit error",
			submit: func(context.Context, string, string, string) (string, error) {
				return "", errors.New("engine unreachable")
			},
			wantMsg: "An exception occurred: submit query: engine unreachable",
		},
		{
			name:   "poll error",
			submit: okSubmit,
			poll: func(context.Context, string) (domain.JobStatus, error) {
				return domain.JobStatus{}, errors.New("throttled")
			},
			wantMsg: "An exception occurred: poll job job-x: throttled",
		},
		{
			name:   "result object missing",
			submit: okSubmit,
			poll:   testutil.ScriptedPoll("", domain.JobStateSucceeded),
			get: func(context.Context, string, string) ([]byte, error) {
				return nil, domain.ErrNotFound("object missing")
			},
			wantMsg: "An exception occurred: storage get orders/enriched/job-x.csv: object missing",
		},
		{
			name:   "ragged result",
			submit: okSubmit,
			poll:   testutil.ScriptedPoll("", domain.JobStateSucceeded),
			get: func(context.Context, string, string) ([]byte, error) {
				return []byte("a,b\n1\n"), nil
			},
			wantMsg: "An exception occurred: parse result",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			eng := &testutil.MockQueryEngine{SubmitFn: tt.submit, PollFn: tt.poll}
			store := &testutil.MockObjectStore{GetFn: tt.get}

			res := fastRunner(eng, store).RunQuery(context.Background(), testSpec)

			require.False(t, res.OK())
			assert.True(t, strings.HasPrefix(res.Err, tt.wantMsg), "got %q", res.Err)
			assert.Nil(t, res.Rows)
		})
	}
}

func TestRunQuery_TimesOutWithinBound(t *testing.T) {
	t.Parallel()

	const (
		interval = 10 * time.Millisecond
		timeout  = 60 * time.Millisecond
	)
	eng := &testutil.MockQueryEngine{
		SubmitFn: func(context.Context, string, string, string) (string, error) { return "job-slow", nil },
		PollFn:   testutil.ScriptedPoll("", domain.JobStateRunning),
	}
	r := NewRunner(eng, &testutil.MockObjectStore{}, RunnerConfig{PollInterval: interval, PollTimeout: timeout}, discardLogger())

	start := time.Now()
	res := r.RunQuery(context.Background(), testSpec)
	elapsed := time.Since(start)

	require.False(t, res.OK())
	assert.Contains(t, res.Err, "timed out")
	assert.GreaterOrEqual(t, elapsed, timeout)
	// Generous slack for slow CI schedulers; the bound under test is timeout + interval.
	assert.Less(t, elapsed, timeout+interval+200*time.Millisecond)
}

func TestRunQuery_ParentCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	eng := &testutil.MockQueryEngine{
		SubmitFn: func(context.Context, string, string, string) (string, error) { return "job-c", nil },
		PollFn: func(_ context.Context, jobID string) (domain.JobStatus, error) {
			cancel()
			return domain.JobStatus{JobID: jobID, State: domain.JobStateRunning}, nil
		},
	}

	res := fastRunner(eng, &testutil.MockObjectStore{}).RunQuery(ctx, testSpec)
	require.False(t, res.OK())
	assert.Equal(t, "An exception occurred: context canceled", res.Err)
}

func TestRunQuery_ResubmitsEveryCall(t *testing.T) {
	t.Parallel()

	eng := &testutil.MockQueryEngine{
		SubmitFn: func(context.Context, string, string, string) (string, error) { return "job-r", nil },
		PollFn:   testutil.ScriptedPoll("", domain.JobStateSucceeded),
	}
	store := &testutil.MockObjectStore{
		GetFn: func(context.Context, string, string) ([]byte, error) { return []byte(fixtureCSV), nil },
	}
	r := fastRunner(eng, store)

	r.RunQuery(context.Background(), testSpec)
	r.RunQuery(context.Background(), testSpec)
	assert.Equal(t, 2, eng.Submitted())
}

func TestNewRunner_Defaults(t *testing.T) {
	r := NewRunner(&testutil.MockQueryEngine{}, &testutil.MockObjectStore{}, RunnerConfig{}, discardLogger())
	assert.Equal(t, DefaultPollInterval, r.interval)
	assert.Equal(t, DefaultPollTimeout, r.timeout)
}
