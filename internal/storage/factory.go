package storage

import (
	"context"
	"fmt"

	"orders-lake/internal/config"
	"orders-lake/internal/domain"
)

// NewFromConfig builds the ObjectStore selected by cfg.StorageBackend.
// The returned close function releases client resources and is never nil.
func NewFromConfig(ctx context.Context, cfg *config.Config) (domain.ObjectStore, func() error, error) {
	noop := func() error { return nil }

	switch cfg.StorageBackend {
	case config.BackendS3:
		opts := S3Options{KeyID: deref(cfg.S3KeyID), Secret: deref(cfg.S3Secret), Region: deref(cfg.S3Region), URLStyle: cfg.S3URLStyle}
		opts.Endpoint = deref(cfg.S3Endpoint)
		s, err := NewS3Store(opts)
		if err != nil {
			return nil, nil, fmt.Errorf("s3 store: %w", err)
		}
		return s, noop, nil
	case config.BackendGCS:
		s, err := NewGCSStore(ctx, cfg.GCSKeyFile)
		if err != nil {
			return nil, nil, fmt.Errorf("gcs store: %w", err)
		}
		return s, s.Close, nil
	case config.BackendAzure:
		s, err := NewAzureStore(cfg.AzureAccountName, cfg.AzureAccountKey, cfg.AzureServiceURL)
		if err != nil {
			return nil, nil, fmt.Errorf("azure store: %w", err)
		}
		return s, noop, nil
	case config.BackendMemory:
		return NewMemoryStore(), noop, nil
	case config.BackendFile, "":
		return NewFileStore(cfg.FileRoot), noop, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
