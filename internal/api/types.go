package api

import (
	"time"

	"orders-lake/internal/domain"
	"orders-lake/internal/service/ingestion"
)

// Report is the JSON form of domain.Report.
type Report struct {
	Title       string          `json:"title"`
	GeneratedAt time.Time       `json:"generated_at"`
	Failed      int             `json:"failed"`
	Sections    []ReportSection `json:"sections"`
}

// ReportSection is one query outcome. Exactly one of Columns/Rows or Error is set.
type ReportSection struct {
	Title   string     `json:"title"`
	OK      bool       `json:"ok"`
	Columns []string   `json:"columns,omitempty"`
	Rows    [][]string `json:"rows,omitempty"`
	Error   string     `json:"error,omitempty"`
}

// UploadResult reports one processed upload.
type UploadResult struct {
	Bucket     string `json:"bucket"`
	SourceKey  string `json:"source_key"`
	DerivedKey string `json:"derived_key,omitempty"`
	Total      int    `json:"total"`
	Kept       int    `json:"kept"`
	Dropped    int    `json:"dropped"`
	Skipped    bool   `json:"skipped,omitempty"`
	Message    string `json:"message"`
}

// UploadResponse is the webhook response body.
type UploadResponse struct {
	Results []UploadResult `json:"results"`
	Error   string         `json:"error,omitempty"`
}

// QueryJob is the JSON form of an engine job record.
type QueryJob struct {
	ID                string     `json:"id"`
	Database          string     `json:"database"`
	SQL               string     `json:"sql"`
	State             string     `json:"state"`
	ResultDestination string     `json:"result_destination"`
	OutputLocation    string     `json:"output_location,omitempty"`
	RowCount          int        `json:"row_count"`
	Error             *string    `json:"error,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	StartedAt         *time.Time `json:"started_at,omitempty"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
}

// ErrorResponse is the body of every non-2xx response except the webhook's.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func reportToAPI(r domain.Report) Report {
	out := Report{
		Title:       r.Title,
		GeneratedAt: r.GeneratedAt,
		Failed:      r.Failed(),
		Sections:    make([]ReportSection, 0, len(r.Sections)),
	}
	for _, sec := range r.Sections {
		s := ReportSection{Title: sec.Title, OK: sec.Result.OK()}
		if s.OK {
			s.Columns = sec.Result.Columns
			s.Rows = sec.Result.Rows
		} else {
			s.Error = sec.Result.Err
		}
		out.Sections = append(out.Sections, s)
	}
	return out
}

func uploadResultToAPI(r ingestion.Result) UploadResult {
	return UploadResult{
		Bucket:     r.Bucket,
		SourceKey:  r.SourceKey,
		DerivedKey: r.DerivedKey,
		Total:      r.Stats.Total,
		Kept:       r.Stats.Kept,
		Dropped:    r.Stats.Dropped,
		Skipped:    r.Skipped,
		Message:    r.Message(),
	}
}

func queryJobToAPI(j domain.QueryJob) QueryJob {
	return QueryJob{
		ID:                j.ID,
		Database:          j.Database,
		SQL:               j.SQLText,
		State:             string(j.State),
		ResultDestination: j.ResultDestination,
		OutputLocation:    j.OutputLocation,
		RowCount:          j.RowCount,
		Error:             j.ErrorMessage,
		CreatedAt:         j.CreatedAt,
		StartedAt:         j.StartedAt,
		CompletedAt:       j.CompletedAt,
	}
}
