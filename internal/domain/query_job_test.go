package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobState_IsTerminal(t *testing.T) {
	assert.False(t, JobStateQueued.IsTerminal())
	assert.False(t, JobStateRunning.IsTerminal())
	assert.True(t, JobStateSucceeded.IsTerminal())
	assert.True(t, JobStateFailed.IsTerminal())
	assert.True(t, JobStateCancelled.IsTerminal())
}

func TestValidateQuerySpecs(t *testing.T) {
	tests := []struct {
		name    string
		specs   []QueryJobSpec
		wantErr string
	}{
		{name: "empty list ok", specs: nil},
		{name: "valid", specs: []QueryJobSpec{{Title: "a", Query: "SELECT 1"}, {Title: "b", Query: "SELECT 2"}}},
		{name: "missing title", specs: []QueryJobSpec{{Query: "SELECT 1"}}, wantErr: "title is required"},
		{name: "missing query", specs: []QueryJobSpec{{Title: "a", Query: "  "}}, wantErr: "query text is required"},
		{name: "duplicate title", specs: []QueryJobSpec{{Title: "a", Query: "x"}, {Title: "a", Query: "y"}}, wantErr: "not unique"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateQuerySpecs(tt.specs)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestQueryJobResult_Variants(t *testing.T) {
	ok := NewSuccess([]string{"a"}, nil)
	assert.True(t, ok.OK())
	assert.Empty(t, ok.Rows)
	assert.NotNil(t, ok.Rows)

	failed := NewFailure("")
	assert.False(t, failed.OK())
	assert.Equal(t, UnknownErrorReason, failed.Err)
}

func TestEngineJobFailure_DefaultsReason(t *testing.T) {
	err := &EngineJobFailure{JobID: "j1", State: JobStateFailed}
	assert.Equal(t, "Query failed: Unknown error", err.Error())

	err.Reason = "SYNTAX_ERROR: line 1"
	assert.Equal(t, "Query failed: SYNTAX_ERROR: line 1", err.Error())
}

func TestReport_Failed(t *testing.T) {
	r := &Report{Sections: []ReportSection{
		{Title: "a", Result: NewSuccess([]string{"x"}, nil)},
		{Title: "b", Result: NewFailure("boom")},
	}}
	assert.Equal(t, 1, r.Failed())
}
