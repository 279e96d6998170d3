package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"

	"orders-lake/internal/domain"
)

var _ domain.ObjectStore = (*AzureStore)(nil)

// AzureStore reads and writes Azure Blob Storage objects. Buckets map to containers.
type AzureStore struct {
	client *azblob.Client
}

// NewAzureStore creates a shared-key client for accountName. serviceURL may be
// empty, in which case the public blob endpoint for the account is used.
func NewAzureStore(accountName, accountKey, serviceURL string) (*AzureStore, error) {
	if accountName == "" || accountKey == "" {
		return nil, fmt.Errorf("Azure account name and key are required")
	}
	cred, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("create shared key credential: %w", err)
	}
	if serviceURL == "" {
		serviceURL = fmt.Sprintf("https://%s.blob.core.windows.net", accountName)
	}
	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("create Azure blob client: %w", err)
	}
	return &AzureStore{client: client}, nil
}

// Get downloads container/blob. A missing blob yields *domain.NotFoundError.
func (a *AzureStore) Get(ctx context.Context, container, blob string) ([]byte, error) {
	resp, err := a.client.DownloadStream(ctx, container, blob, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
			return nil, domain.ErrNotFound("object az://%s/%s not found", container, blob)
		}
		return nil, fmt.Errorf("download az://%s/%s: %w", container, blob, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read az://%s/%s: %w", container, blob, err)
	}
	return data, nil
}

// Put uploads data as a block blob.
func (a *AzureStore) Put(ctx context.Context, container, blob string, data []byte) error {
	if _, err := a.client.UploadBuffer(ctx, container, blob, data, nil); err != nil {
		return fmt.Errorf("upload az://%s/%s: %w", container, blob, err)
	}
	return nil
}
