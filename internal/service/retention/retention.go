// Package retention implements the order retention filter applied to every upload.
package retention

import (
	"time"

	"orders-lake/internal/domain"
)

// Stats summarises one Filter call.
type Stats struct {
	Total   int
	Kept    int
	Dropped int
}

// Filter returns the records of ds that survive policy at instant now, in their
// original order. The kept dataset shares ds's header.
//
// A record whose date field cannot be parsed aborts the whole batch with a
// *domain.MalformedRecordError and no partial output.
func Filter(ds *domain.Dataset, policy domain.RetentionPolicy, now time.Time) (*domain.Dataset, Stats, error) {
	if ds == nil || len(ds.Header) == 0 {
		return nil, Stats{}, domain.ErrValidation("dataset header is empty")
	}
	policy = policy.WithDefaults()
	if !ds.HasField(policy.StatusField) {
		return nil, Stats{}, domain.ErrValidation("dataset has no %q field", policy.StatusField)
	}
	if !ds.HasField(policy.DateField) {
		return nil, Stats{}, domain.ErrValidation("dataset has no %q field", policy.DateField)
	}

	kept := &domain.Dataset{
		Header:  append([]string(nil), ds.Header...),
		Records: make([]domain.Record, 0, len(ds.Records)),
	}
	stats := Stats{Total: len(ds.Records)}

	for i, rec := range ds.Records {
		raw := rec[policy.DateField]
		recordDate, err := time.ParseInLocation(policy.DateLayout, raw, now.Location())
		if err != nil {
			return nil, Stats{}, &domain.MalformedRecordError{
				Index:    i,
				Field:    policy.DateField,
				RawValue: raw,
				Err:      err,
			}
		}

		if policy.Drop(rec[policy.StatusField], recordDate, now) {
			stats.Dropped++
			continue
		}
		kept.Records = append(kept.Records, rec)
	}
	stats.Kept = len(kept.Records)

	return kept, stats, nil
}
