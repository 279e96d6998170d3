// Package domain defines core types, interfaces, and errors for the orders pipeline.
package domain

import (
	"fmt"
	"time"
)

// NotFoundError indicates a resource was not found.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// ValidationError indicates invalid input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ConflictError indicates a conflict (e.g., duplicate resource).
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// MalformedRecordError reports a row whose date field could not be parsed.
// It is fatal for the whole filter batch.
type MalformedRecordError struct {
	Index    int    // zero-based data row index (header excluded)
	Field    string // name of the offending field
	RawValue string
	Err      error
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record %d: field %q has unparseable value %q", e.Index, e.Field, e.RawValue)
}

func (e *MalformedRecordError) Unwrap() error { return e.Err }

// StorageError wraps a read or write failure against object storage.
type StorageError struct {
	Op     string // "get" or "put"
	Bucket string
	Key    string
	Err    error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %s/%s: %v", e.Op, e.Bucket, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// SubmitError indicates the query engine rejected a submission before a job id existed.
type SubmitError struct {
	Err error
}

func (e *SubmitError) Error() string { return fmt.Sprintf("submit query: %v", e.Err) }

func (e *SubmitError) Unwrap() error { return e.Err }

// EngineJobFailure indicates a job reached FAILED or CANCELLED.
type EngineJobFailure struct {
	JobID  string
	State  JobState
	Reason string
}

func (e *EngineJobFailure) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = UnknownErrorReason
	}
	return fmt.Sprintf("Query failed: %s", reason)
}

// PollTimeoutError indicates a job did not reach a terminal state in time.
type PollTimeoutError struct {
	JobID   string
	Timeout time.Duration
}

func (e *PollTimeoutError) Error() string {
	return fmt.Sprintf("Query timed out after %s waiting for job %s", e.Timeout, e.JobID)
}

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrConflict creates a ConflictError with a formatted message.
func ErrConflict(format string, args ...interface{}) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}
