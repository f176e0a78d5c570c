package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "offerbot:blob:"

// RedisBlobs stores blobs as plain Redis strings without expiry.
type RedisBlobs struct {
	client *redis.Client
	prefix string
}

// NewRedisBlobs creates a Redis-backed BlobStore.
func NewRedisBlobs(client *redis.Client) *RedisBlobs {
	return &RedisBlobs{
		client: client,
		prefix: defaultRedisPrefix,
	}
}

// Get returns the blob stored under name.
func (s *RedisBlobs) Get(ctx context.Context, name string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.prefix+name).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrBlobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %q: %w", name, err)
	}
	return data, nil
}

// Put overwrites the blob stored under name.
func (s *RedisBlobs) Put(ctx context.Context, name string, data []byte) error {
	if err := s.client.Set(ctx, s.prefix+name, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", name, err)
	}
	return nil
}
