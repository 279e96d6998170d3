// Package testutil provides shared mock implementations of domain interfaces
// for use in tests across the codebase. This follows the Go convention of a
// shared test utility package (like net/http/httptest).
package testutil

import (
	"context"
	"sync"

	"orders-lake/internal/domain"
)

// === Object Store Mock ===

// MockObjectStore implements domain.ObjectStore for testing.
// Successful Puts are collected so tests can assert on what was written.
type MockObjectStore struct {
	GetFn func(ctx context.Context, bucket, key string) ([]byte, error)
	PutFn func(ctx context.Context, bucket, key string, data []byte) error

	mu   sync.Mutex
	Puts []PutCall
}

// PutCall records one Put invocation.
type PutCall struct {
	Bucket string
	Key    string
	Data   []byte
}

var _ domain.ObjectStore = (*MockObjectStore)(nil)

// Get implements the interface method for testing.
func (m *MockObjectStore) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, bucket, key)
	}
	panic("unexpected call to MockObjectStore.Get")
}

// Put implements the interface method for testing.
func (m *MockObjectStore) Put(ctx context.Context, bucket, key string, data []byte) error {
	if m.PutFn != nil {
		if err := m.PutFn(ctx, bucket, key, data); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Puts = append(m.Puts, PutCall{Bucket: bucket, Key: key, Data: append([]byte(nil), data...)})
	return nil
}

// PutCount returns how many Puts succeeded.
func (m *MockObjectStore) PutCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Puts)
}

// === Query Engine Mock ===

// MockQueryEngine implements domain.QueryEngine for testing.
type MockQueryEngine struct {
	SubmitFn func(ctx context.Context, query, database, resultDestination string) (string, error)
	PollFn   func(ctx context.Context, jobID string) (domain.JobStatus, error)

	mu        sync.Mutex
	submitted int
	polls     map[string]int
}

var _ domain.QueryEngine = (*MockQueryEngine)(nil)

// Submit implements the interface method for testing.
func (m *MockQueryEngine) Submit(ctx context.Context, query, database, resultDestination string) (string, error) {
	m.mu.Lock()
	m.submitted++
	m.mu.Unlock()
	if m.SubmitFn != nil {
		return m.SubmitFn(ctx, query, database, resultDestination)
	}
	panic("unexpected call to MockQueryEngine.Submit")
}

// Poll implements the interface method for testing.
func (m *MockQueryEngine) Poll(ctx context.Context, jobID string) (domain.JobStatus, error) {
	m.mu.Lock()
	if m.polls == nil {
		m.polls = make(map[string]int)
	}
	m.polls[jobID]++
	m.mu.Unlock()
	if m.PollFn != nil {
		return m.PollFn(ctx, jobID)
	}
	panic("unexpected call to MockQueryEngine.Poll")
}

// Submitted returns the number of Submit calls.
func (m *MockQueryEngine) Submitted() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.submitted
}

// Polls returns the number of Poll calls made for jobID.
func (m *MockQueryEngine) Polls(jobID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.polls[jobID]
}

// ScriptedPoll returns a PollFn that walks through states in order and then
// repeats the last one. reason is reported with FAILED and CANCELLED states.
func ScriptedPoll(reason string, states ...domain.JobState) func(ctx context.Context, jobID string) (domain.JobStatus, error) {
	var mu sync.Mutex
	calls := make(map[string]int)
	return func(_ context.Context, jobID string) (domain.JobStatus, error) {
		mu.Lock()
		i := calls[jobID]
		calls[jobID]++
		mu.Unlock()
		if i >= len(states) {
			i = len(states) - 1
		}
		st := domain.JobStatus{JobID: jobID, State: states[i]}
		if st.State == domain.JobStateFailed || st.State == domain.JobStateCancelled {
			st.Reason = reason
		}
		return st, nil
	}
}

// === Query Runner Mock ===

// MockQueryRunner runs report queries for testing the aggregator and presenters.
type MockQueryRunner struct {
	RunQueryFn func(ctx context.Context, spec domain.QueryJobSpec) domain.QueryJobResult
}

// RunQuery implements the interface method for testing.
func (m *MockQueryRunner) RunQuery(ctx context.Context, spec domain.QueryJobSpec) domain.QueryJobResult {
	if m.RunQueryFn != nil {
		return m.RunQueryFn(ctx, spec)
	}
	panic("unexpected call to MockQueryRunner.RunQuery")
}
