// Package index maintains secondary indexes on top of the entity store.
// The store has no query capability, so discovery ("all reminders for a
// user", "all reminders for a task") is emulated with explicit member
// lists stored as entities under derived keys.
//
// Updates are read-modify-write with no compare-and-swap: two concurrent
// inserts to the same index key can both read the pre-update list and
// each write a list missing the other's member. This lost-update race is
// an accepted limitation; a missing member only means the entity is not
// discoverable through the index, the entity itself is unaffected.
// Updates to different index keys never interfere.
package index

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/phrazzld/taskflow/internal/store"
)

// Manager maintains ordered-insertion, duplicate-free lists of entity
// keys under derived index keys.
type Manager struct {
	store  store.EntityStore
	logger *slog.Logger
}

// NewManager creates an index manager over the given entity store.
func NewManager(entityStore store.EntityStore, logger *slog.Logger) *Manager {
	return &Manager{
		store:  entityStore,
		logger: logger.With("component", "index_manager"),
	}
}

// Add inserts memberKey into the index at indexKey. Insertion order is
// preserved; adding a member already present is a no-op. The index is
// created lazily on first insertion.
func (m *Manager) Add(ctx context.Context, indexKey, memberKey string) error {
	members, err := m.List(ctx, indexKey)
	if err != nil {
		return err
	}

	for _, existing := range members {
		if existing == memberKey {
			return nil
		}
	}

	members = append(members, memberKey)
	return m.write(ctx, indexKey, members)
}

// Remove deletes memberKey from the index at indexKey. Removing a member
// that is absent, or from an index that does not exist, is a no-op. The
// index entity itself is never deleted; it may become empty.
func (m *Manager) Remove(ctx context.Context, indexKey, memberKey string) error {
	members, err := m.List(ctx, indexKey)
	if err != nil {
		return err
	}

	filtered := members[:0]
	found := false
	for _, existing := range members {
		if existing == memberKey {
			found = true
			continue
		}
		filtered = append(filtered, existing)
	}

	if !found {
		return nil
	}

	return m.write(ctx, indexKey, filtered)
}

// List returns the current members of the index at indexKey in insertion
// order. An absent index reads as an empty list. Each call is a fresh
// read, not a live cursor.
func (m *Manager) List(ctx context.Context, indexKey string) ([]string, error) {
	data, err := m.store.Get(ctx, indexKey)
	if err != nil {
		if store.IsNotFoundError(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read index %s: %w", indexKey, err)
	}

	var members []string
	if err := json.Unmarshal(data, &members); err != nil {
		return nil, fmt.Errorf("failed to decode index %s: %w", indexKey, err)
	}
	return members, nil
}

func (m *Manager) write(ctx context.Context, indexKey string, members []string) error {
	data, err := json.Marshal(members)
	if err != nil {
		return fmt.Errorf("failed to encode index %s: %w", indexKey, err)
	}

	if err := m.store.Put(ctx, indexKey, data); err != nil {
		return fmt.Errorf("failed to write index %s: %w", indexKey, err)
	}

	m.logger.Debug("index updated", "index_key", indexKey, "member_count", len(members))
	return nil
}
