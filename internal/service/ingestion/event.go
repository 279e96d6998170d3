package ingestion

import (
	"context"
	"encoding/json"

	"orders-lake/internal/domain"
)

// Event is the subset of an S3 event notification the trigger reads.
type Event struct {
	Records []EventRecord `json:"Records"`
}

// EventRecord is one object notification.
type EventRecord struct {
	EventName string `json:"eventName,omitempty"`
	S3        struct {
		Bucket struct {
			Name string `json:"name"`
		} `json:"bucket"`
		Object struct {
			Key string `json:"key"`
		} `json:"object"`
	} `json:"s3"`
}

// DecodeEvent parses a notification document.
func DecodeEvent(data []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, domain.ErrValidation("malformed event notification: %v", err)
	}
	if len(ev.Records) == 0 {
		return Event{}, domain.ErrValidation("event notification has no records")
	}
	return ev, nil
}

// HandleEvent processes every record in order and stops at the first failure.
// Results for records processed before the failure are still returned.
func (t *Trigger) HandleEvent(ctx context.Context, ev Event) ([]Result, error) {
	results := make([]Result, 0, len(ev.Records))
	for _, rec := range ev.Records {
		res, err := t.OnUpload(ctx, rec.S3.Bucket.Name, rec.S3.Object.Key)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}
