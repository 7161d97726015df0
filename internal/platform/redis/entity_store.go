package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/phrazzld/taskflow/internal/store"
)

// EntityStore implements store.EntityStore on top of a Redis client.
// Values are stored without expiry; lifecycle is managed by the callers
// (markers and reminders are deleted explicitly).
type EntityStore struct {
	client *redis.Client
}

// NewEntityStore creates an EntityStore backed by the given client.
func NewEntityStore(client *redis.Client) *EntityStore {
	return &EntityStore{client: client}
}

// Get retrieves the value stored under key.
// Returns store.ErrNotFound if the key does not exist; any other error
// indicates the read itself failed.
func (s *EntityStore) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", store.ErrNotFound, key)
		}
		return nil, store.NewStoreError(key, "get", "redis read failed", err)
	}
	return value, nil
}

// Put stores value under key, overwriting any existing value.
func (s *EntityStore) Put(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return store.NewStoreError(key, "put", "redis write failed", err)
	}
	return nil
}

// Delete removes the value stored under key. Deleting an absent key is a no-op.
func (s *EntityStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return store.NewStoreError(key, "delete", "redis delete failed", err)
	}
	return nil
}
