package blob

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemStore is an in-memory Store implementation. It backs tests and
// single-process deployments that run without an S3 endpoint. Presigned
// URLs use a mem:// scheme and are retrievable only in-process.
type MemStore struct {
	bucket string

	mu      sync.RWMutex
	objects map[string]memObject
}

type memObject struct {
	data         []byte
	contentType  string
	metadata     map[string]string
	lastModified time.Time
}

// NewMemStore creates an empty in-memory store for the given bucket name.
func NewMemStore(bucket string) *MemStore {
	return &MemStore{
		bucket:  bucket,
		objects: make(map[string]memObject),
	}
}

// EnsureBucket is a no-op for the in-memory store.
func (s *MemStore) EnsureBucket(ctx context.Context) error {
	return nil
}

// Upload stores data under key, replacing any previous object.
func (s *MemStore) Upload(ctx context.Context, key string, reader io.Reader, contentType string, metadata map[string]string) (*Artifact, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	s.mu.Lock()
	s.objects[key] = memObject{
		data:         data,
		contentType:  contentType,
		metadata:     metadata,
		lastModified: now,
	}
	s.mu.Unlock()

	return &Artifact{
		Key:          key,
		Bucket:       s.bucket,
		Size:         int64(len(data)),
		ContentType:  contentType,
		LastModified: now,
		Metadata:     metadata,
	}, nil
}

// Download retrieves an object by key.
func (s *MemStore) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	s.mu.RLock()
	obj, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

// GetPresignedURL returns a mem:// URL identifying the object.
func (s *MemStore) GetPresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return "mem://" + s.bucket + "/" + key, nil
}

// List lists all objects with the given prefix, sorted by key.
func (s *MemStore) List(ctx context.Context, prefix string) ([]*Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var artifacts []*Artifact
	for key, obj := range s.objects {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		artifacts = append(artifacts, &Artifact{
			Key:          key,
			Bucket:       s.bucket,
			Size:         int64(len(obj.data)),
			ContentType:  obj.contentType,
			LastModified: obj.lastModified,
		})
	}

	sort.Slice(artifacts, func(i, j int) bool {
		return artifacts[i].Key < artifacts[j].Key
	})
	return artifacts, nil
}

// DeletePrefix removes all objects with the given prefix.
func (s *MemStore) DeletePrefix(ctx context.Context, prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.objects {
		if strings.HasPrefix(key, prefix) {
			delete(s.objects, key)
		}
	}
	return nil
}

// Ensure MemStore implements Store.
var _ Store = (*MemStore)(nil)
