package domain

import "time"

// ReportSection is one titled entry of a Report.
type ReportSection struct {
	Title  string
	Result QueryJobResult
}

// Report is the ordered result of running the configured query set once.
// Section order matches the spec order it was built from.
type Report struct {
	Title       string
	GeneratedAt time.Time
	Sections    []ReportSection
}

// Failed returns the number of sections whose result is a Failure.
func (r *Report) Failed() int {
	n := 0
	for _, s := range r.Sections {
		if !s.Result.OK() {
			n++
		}
	}
	return n
}
