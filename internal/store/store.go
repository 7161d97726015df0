package store

import "context"

// EntityStore is the point-access key/value persistence contract.
// Implementations must distinguish "absent" from "failed": Get returns
// ErrNotFound (possibly wrapped) when the key does not exist, and any
// other error means the read itself failed and says nothing about
// existence. No read-after-write consistency is guaranteed.
type EntityStore interface {
	// Get retrieves the value stored under key.
	// Returns ErrNotFound if the key does not exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores value under key, overwriting any existing value.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes the value stored under key. Deleting an absent
	// key is not an error.
	Delete(ctx context.Context, key string) error
}
