package domain

import "context"

// ObjectStore is a durable blob store with get/put semantics.
// Get returns a *NotFoundError when the object does not exist.
// Implemented by storage.S3Store, storage.GCSStore, storage.AzureStore,
// storage.FileStore and storage.MemoryStore.
type ObjectStore interface {
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	Put(ctx context.Context, bucket, key string, data []byte) error
}

// QueryEngine executes opaque query strings asynchronously.
// Implemented by engine.DuckDBEngine.
type QueryEngine interface {
	Submit(ctx context.Context, query, database, resultDestination string) (jobID string, err error)
	Poll(ctx context.Context, jobID string) (JobStatus, error)
}

// QueryJobRepository stores the engine's job lifecycle.
// Implemented by repository.QueryJobRepo.
type QueryJobRepository interface {
	Create(ctx context.Context, job *QueryJob) (*QueryJob, error)
	GetByID(ctx context.Context, id string) (*QueryJob, error)
	MarkRunning(ctx context.Context, id string) error
	MarkSucceeded(ctx context.Context, id, outputLocation string, rowCount int) error
	MarkFailed(ctx context.Context, id, message string) error
	MarkCancelled(ctx context.Context, id string) error
	ListRecent(ctx context.Context, limit int) ([]QueryJob, error)
}
