// Package ingestion reacts to raw order uploads: it reads the uploaded file,
// applies the retention filter, and writes the filtered copy next to it.
package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"strings"
	"time"

	"orders-lake/internal/domain"
	"orders-lake/internal/service/retention"
	"orders-lake/internal/tabular"
)

// Key layout of derived datasets.
const (
	ProcessedPrefix = "processed/"
	FilteredPrefix  = "filtered_"
)

// Result describes one processed upload.
type Result struct {
	Bucket     string
	SourceKey  string // decoded key of the raw upload
	DerivedKey string
	Stats      retention.Stats
	Skipped    bool // the key was already a derived dataset
}

// Message is the human-readable summary returned to callers.
func (r Result) Message() string {
	if r.Skipped {
		return fmt.Sprintf("Skipped %s: already processed", r.SourceKey)
	}
	return fmt.Sprintf("Filtered %d rows and saved to %s", r.Stats.Kept, r.DerivedKey)
}

// Trigger processes uploads one at a time against an ObjectStore.
type Trigger struct {
	store  domain.ObjectStore
	policy domain.RetentionPolicy
	now    func() time.Time
	logger *slog.Logger
}

// NewTrigger creates a Trigger. now supplies the reference instant for the
// retention window and defaults to time.Now.
func NewTrigger(store domain.ObjectStore, policy domain.RetentionPolicy, now func() time.Time, logger *slog.Logger) *Trigger {
	if now == nil {
		now = time.Now
	}
	return &Trigger{
		store:  store,
		policy: policy.WithDefaults(),
		now:    now,
		logger: logger.With("component", "ingestion"),
	}
}

// DerivedKey returns the processed key for a decoded raw key.
func DerivedKey(rawKey string) string {
	return ProcessedPrefix + FilteredPrefix + path.Base(rawKey)
}

// OnUpload filters the object at bucket/rawKey and writes the kept records to
// bucket/processed/filtered_<file name>. rawKey may be percent- or
// plus-encoded as in storage event notifications. Nothing is written when
// reading or filtering fails.
func (t *Trigger) OnUpload(ctx context.Context, bucket, rawKey string) (Result, error) {
	key, err := url.QueryUnescape(rawKey)
	if err != nil {
		return Result{}, domain.ErrValidation("invalid object key %q: %v", rawKey, err)
	}
	if bucket == "" || key == "" || strings.HasSuffix(key, "/") {
		return Result{}, domain.ErrValidation("bucket and object key are required")
	}
	res := Result{Bucket: bucket, SourceKey: key}
	if strings.HasPrefix(key, ProcessedPrefix) {
		res.Skipped = true
		t.logger.Info("skipping derived object", "bucket", bucket, "key", key)
		return res, nil
	}
	res.DerivedKey = DerivedKey(key)

	data, err := t.store.Get(ctx, bucket, key)
	if err != nil {
		return Result{}, &domain.StorageError{Op: "get", Bucket: bucket, Key: key, Err: err}
	}

	ds, err := tabular.ParseDataset(data)
	if err != nil {
		return Result{}, fmt.Errorf("parse %s/%s: %w", bucket, key, err)
	}
	kept, stats, err := retention.Filter(ds, t.policy, t.now())
	if err != nil {
		return Result{}, fmt.Errorf("filter %s/%s: %w", bucket, key, err)
	}
	out, err := tabular.FormatDataset(kept)
	if err != nil {
		return Result{}, fmt.Errorf("format %s/%s: %w", bucket, res.DerivedKey, err)
	}

	if err := t.store.Put(ctx, bucket, res.DerivedKey, out); err != nil {
		return Result{}, &domain.StorageError{Op: "put", Bucket: bucket, Key: res.DerivedKey, Err: err}
	}

	res.Stats = stats
	t.logger.Info("upload filtered",
		"bucket", bucket,
		"source", key,
		"derived", res.DerivedKey,
		"total", stats.Total,
		"kept", stats.Kept,
		"dropped", stats.Dropped,
	)
	return res, nil
}
