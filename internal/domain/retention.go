package domain

import (
	"strings"
	"time"
)

// Defaults for the order retention policy.
const (
	DefaultRetentionWindow = 30 * 24 * time.Hour
	DefaultDateLayout      = "2006-01-02"
)

// DefaultExcludedStatuses are the statuses whose old records are dropped.
var DefaultExcludedStatuses = []string{"pending", "cancelled"}

// RetentionPolicy decides which records survive ingestion. A record is dropped
// only when its status is excluded AND its date is at or before now - Window.
type RetentionPolicy struct {
	ExcludedStatuses []string
	Window           time.Duration
	StatusField      string
	DateField        string
	DateLayout       string
}

// DefaultRetentionPolicy returns the policy used for order uploads.
func DefaultRetentionPolicy() RetentionPolicy {
	return RetentionPolicy{
		ExcludedStatuses: append([]string(nil), DefaultExcludedStatuses...),
		Window:           DefaultRetentionWindow,
		StatusField:      FieldStatus,
		DateField:        FieldOrderDate,
		DateLayout:       DefaultDateLayout,
	}
}

// WithDefaults fills zero fields from DefaultRetentionPolicy.
func (p RetentionPolicy) WithDefaults() RetentionPolicy {
	def := DefaultRetentionPolicy()
	if p.ExcludedStatuses == nil {
		p.ExcludedStatuses = def.ExcludedStatuses
	}
	if p.Window <= 0 {
		p.Window = def.Window
	}
	if p.StatusField == "" {
		p.StatusField = def.StatusField
	}
	if p.DateField == "" {
		p.DateField = def.DateField
	}
	if p.DateLayout == "" {
		p.DateLayout = def.DateLayout
	}
	return p
}

// Cutoff returns the instant at or before which excluded records are dropped.
func (p RetentionPolicy) Cutoff(now time.Time) time.Time {
	return now.Add(-p.Window)
}

// IsExcluded reports whether status (trimmed, case-insensitive) is in the exclusion set.
func (p RetentionPolicy) IsExcluded(status string) bool {
	s := strings.ToLower(strings.TrimSpace(status))
	for _, ex := range p.ExcludedStatuses {
		if s == strings.ToLower(strings.TrimSpace(ex)) {
			return true
		}
	}
	return false
}

// Drop is the retention predicate over an already parsed record date.
func (p RetentionPolicy) Drop(status string, recordDate, now time.Time) bool {
	return p.IsExcluded(status) && !recordDate.After(p.Cutoff(now))
}
