package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"orders-lake/internal/domain"
)

var _ domain.ObjectStore = (*S3Store)(nil)

// S3Options configures an S3-compatible endpoint.
type S3Options struct {
	KeyID    string
	Secret   string
	Endpoint string // host[:port] or full URL; empty means AWS default endpoints
	Region   string
	URLStyle string // "path" (default) or "vhost"
}

// S3Store reads and writes objects through the AWS SDK v2 S3 client.
type S3Store struct {
	client *s3.Client
}

// NewS3Store creates an S3Store with static credentials. Path-style addressing
// is used unless URLStyle is "vhost", which keeps MinIO/Hetzner-style endpoints working.
func NewS3Store(opts S3Options) (*S3Store, error) {
	if opts.KeyID == "" || opts.Secret == "" {
		return nil, fmt.Errorf("S3 credentials are incomplete")
	}
	if opts.Region == "" {
		return nil, fmt.Errorf("S3 region is required")
	}

	s3Opts := s3.Options{
		Region: opts.Region,
		Credentials: credentials.NewStaticCredentialsProvider(
			opts.KeyID, opts.Secret, "",
		),
		UsePathStyle: opts.URLStyle != "vhost",
	}
	if opts.Endpoint != "" {
		endpoint := opts.Endpoint
		if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
			endpoint = "https://" + endpoint
		}
		s3Opts.BaseEndpoint = aws.String(endpoint)
	}

	return NewS3StoreFromClient(s3.New(s3Opts)), nil
}

// NewS3StoreFromClient wraps an existing client.
func NewS3StoreFromClient(client *s3.Client) *S3Store {
	return &S3Store{client: client}
}

// Get downloads bucket/key. A missing object yields *domain.NotFoundError.
func (s *S3Store) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, domain.ErrNotFound("object s3://%s/%s not found", bucket, key)
		}
		return nil, fmt.Errorf("get object s3://%s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read object s3://%s/%s: %w", bucket, key, err)
	}
	return data, nil
}

// Put uploads data to bucket/key.
func (s *S3Store) Put(ctx context.Context, bucket, key string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("text/csv"),
	})
	if err != nil {
		return fmt.Errorf("put object s3://%s/%s: %w", bucket, key, err)
	}
	return nil
}
