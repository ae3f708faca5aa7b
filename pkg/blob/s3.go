package blob

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Store keeps run artifacts in a single bucket on any S3-compatible
// endpoint. MinIO in development, S3 proper or a gateway in production.
type S3Store struct {
	client *minio.Client
	bucket string
	region string
}

// S3Config holds the connection settings for the artifact bucket.
type S3Config struct {
	Endpoint  string // host:port, e.g. "localhost:9000"
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// NewS3Store builds a client for the configured endpoint. The
// connection is lazy; EnsureBucket is the first real round trip.
func NewS3Store(cfg S3Config) (*S3Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 client for %s: %w", cfg.Endpoint, err)
	}

	return &S3Store{
		client: client,
		bucket: cfg.Bucket,
		region: cfg.Region,
	}, nil
}

// EnsureBucket creates the artifact bucket if it does not already
// exist. Called once at startup so writers never race bucket creation.
func (s *S3Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	return s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{
		Region: s.region,
	})
}

// Upload streams data into the bucket under key. Size is unknown up
// front because tables and exports are written as they are produced,
// so the client falls back to multipart upload.
func (s *S3Store) Upload(ctx context.Context, key string, reader io.Reader, contentType string, metadata map[string]string) (*Artifact, error) {
	opts := minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: metadata,
	}

	info, err := s.client.PutObject(ctx, s.bucket, key, reader, -1, opts)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", key, err)
	}

	return &Artifact{
		Key:          info.Key,
		Bucket:       info.Bucket,
		Size:         info.Size,
		ContentType:  contentType,
		LastModified: time.Now(),
		Metadata:     metadata,
	}, nil
}

// Download opens an artifact for reading.
func (s *S3Store) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}

	// GetObject is lazy; Stat forces the first request so a missing key
	// surfaces here as ErrNotFound rather than on first Read.
	_, err = obj.Stat()
	if err != nil {
		obj.Close()
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("download %s: %w", key, err)
	}

	return obj, nil
}

// GetPresignedURL returns a time-limited download URL for key.
func (s *S3Store) GetPresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	url, err := s.client.PresignedGetObject(ctx, s.bucket, key, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return url.String(), nil
}

// List walks the bucket recursively under prefix.
func (s *S3Store) List(ctx context.Context, prefix string) ([]*Artifact, error) {
	var artifacts []*Artifact

	opts := minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}

	for obj := range s.client.ListObjects(ctx, s.bucket, opts) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list %s: %w", prefix, obj.Err)
		}

		artifacts = append(artifacts, &Artifact{
			Key:          obj.Key,
			Bucket:       s.bucket,
			Size:         obj.Size,
			ContentType:  obj.ContentType,
			LastModified: obj.LastModified,
		})
	}

	return artifacts, nil
}

// DeletePrefix removes every object under prefix, walking the listing
// and removing one object at a time.
func (s *S3Store) DeletePrefix(ctx context.Context, prefix string) error {
	opts := minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}

	for obj := range s.client.ListObjects(ctx, s.bucket, opts) {
		if obj.Err != nil {
			return fmt.Errorf("list %s: %w", prefix, obj.Err)
		}
		if err := s.client.RemoveObject(ctx, s.bucket, obj.Key, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("remove %s: %w", obj.Key, err)
		}
	}

	return nil
}

// Ensure S3Store implements Store.
var _ Store = (*S3Store)(nil)
