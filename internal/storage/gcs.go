package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"orders-lake/internal/domain"
)

var _ domain.ObjectStore = (*GCSStore)(nil)

// GCSStore reads and writes Google Cloud Storage objects.
type GCSStore struct {
	client *storage.Client
}

// NewGCSStore creates a GCS client. With an empty keyFilePath the client uses
// application default credentials.
func NewGCSStore(ctx context.Context, keyFilePath string) (*GCSStore, error) {
	var opts []option.ClientOption
	if keyFilePath != "" {
		opts = append(opts, option.WithAuthCredentialsFile(option.ServiceAccount, keyFilePath))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create GCS client: %w", err)
	}
	return &GCSStore{client: client}, nil
}

// Get downloads bucket/key. A missing object yields *domain.NotFoundError.
func (g *GCSStore) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	r, err := g.client.Bucket(bucket).Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, domain.ErrNotFound("object gs://%s/%s not found", bucket, key)
		}
		return nil, fmt.Errorf("open object gs://%s/%s: %w", bucket, key, err)
	}
	defer r.Close() //nolint:errcheck

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read object gs://%s/%s: %w", bucket, key, err)
	}
	return data, nil
}

// Put uploads data to bucket/key. The object becomes visible on Close.
func (g *GCSStore) Put(ctx context.Context, bucket, key string, data []byte) error {
	w := g.client.Bucket(bucket).Object(key).NewWriter(ctx)
	w.ContentType = "text/csv"
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("write object gs://%s/%s: %w", bucket, key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize object gs://%s/%s: %w", bucket, key, err)
	}
	return nil
}

// Close releases the underlying client.
func (g *GCSStore) Close() error {
	return g.client.Close()
}
