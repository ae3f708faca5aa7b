package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ValkeyStore keeps job metadata in Valkey/Redis, typically the same
// instance that backs the run queue.
type ValkeyStore struct {
	client *redis.Client
}

// ValkeyConfig holds the connection settings for Valkey.
type ValkeyConfig struct {
	Addr     string // host:port
	Password string // optional
	DB       int    // database number
}

// NewValkeyStore connects to Valkey and verifies the connection with a
// ping before returning.
func NewValkeyStore(cfg ValkeyConfig) (*ValkeyStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping %s: %w", cfg.Addr, err)
	}

	return &ValkeyStore{client: client}, nil
}

// Set stores a value under key. A ttl of 0 means no expiry.
func (s *ValkeyStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

// Get retrieves a value by key, mapping redis.Nil to ErrNotFound.
func (s *ValkeyStore) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return val, nil
}

// Delete removes a key. Deleting a missing key is not an error.
func (s *ValkeyStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

// SetNX stores a value only if the key is not already present, so two
// writers racing on the same key cannot clobber each other.
func (s *ValkeyStore) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, key, value, ttl).Result()
}

// Close closes the client connection.
func (s *ValkeyStore) Close() error {
	return s.client.Close()
}

// Ensure ValkeyStore implements Store.
var _ Store = (*ValkeyStore)(nil)
