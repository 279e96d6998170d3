package domain

import (
	"strings"
	"time"
)

// JobState is the lifecycle state of one asynchronous query execution.
type JobState string

// Query job lifecycle states as reported by the query engine.
const (
	JobStateQueued    JobState = "QUEUED"
	JobStateRunning   JobState = "RUNNING"
	JobStateSucceeded JobState = "SUCCEEDED"
	JobStateFailed    JobState = "FAILED"
	JobStateCancelled JobState = "CANCELLED"
)

// UnknownErrorReason is reported when a failed job carries no reason.
const UnknownErrorReason = "Unknown error"

// IsTerminal reports whether no further transition can occur from s.
func (s JobState) IsTerminal() bool {
	switch s {
	case JobStateSucceeded, JobStateFailed, JobStateCancelled:
		return true
	}
	return false
}

// JobStatus is the answer to a Poll call.
type JobStatus struct {
	JobID  string
	State  JobState
	Reason string
	// OutputLocation is the full URI of the result object, when the engine knows it.
	OutputLocation string
}

// QueryJobSpec describes one configured report query. Treat as immutable.
type QueryJobSpec struct {
	Title             string `yaml:"title" json:"title"`
	Query             string `yaml:"query" json:"query"`
	Database          string `yaml:"database,omitempty" json:"database,omitempty"`
	ResultDestination string `yaml:"result_destination,omitempty" json:"result_destination,omitempty"`
}

// ValidateQuerySpecs checks that every spec has a query and a unique, non-empty title.
func ValidateQuerySpecs(specs []QueryJobSpec) error {
	seen := make(map[string]struct{}, len(specs))
	for i, s := range specs {
		title := strings.TrimSpace(s.Title)
		if title == "" {
			return ErrValidation("query %d: title is required", i+1)
		}
		if strings.TrimSpace(s.Query) == "" {
			return ErrValidation("query %q: query text is required", title)
		}
		if _, dup := seen[title]; dup {
			return ErrValidation("query title %q is not unique", title)
		}
		seen[title] = struct{}{}
	}
	return nil
}

// QueryJobResult is the outcome of running one QueryJobSpec: either a table
// (Success) or a message (Failure). Build values with NewSuccess / NewFailure.
type QueryJobResult struct {
	Columns []string
	Rows    [][]string
	Err     string
	failed  bool
}

// NewSuccess builds a successful result. Rows must match len(columns).
func NewSuccess(columns []string, rows [][]string) QueryJobResult {
	if rows == nil {
		rows = [][]string{}
	}
	return QueryJobResult{Columns: columns, Rows: rows}
}

// NewFailure builds a failed result carrying message.
func NewFailure(message string) QueryJobResult {
	if message == "" {
		message = UnknownErrorReason
	}
	return QueryJobResult{Err: message, failed: true}
}

// OK reports whether the result is a Success.
func (r QueryJobResult) OK() bool {
	return !r.failed
}

// QueryJob is the engine-side durable record of one submitted query.
type QueryJob struct {
	ID                string
	Database          string
	SQLText           string
	ResultDestination string
	OutputLocation    string
	State             JobState
	RowCount          int
	ErrorMessage      *string
	CreatedAt         time.Time
	StartedAt         *time.Time
	CompletedAt       *time.Time
	UpdatedAt         time.Time
}
