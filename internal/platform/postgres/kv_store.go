package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver

	"github.com/phrazzld/taskflow/internal/store"
)

// EntityStore implements store.EntityStore using a PostgreSQL key/value
// table. Put is an upsert; no transactions span multiple keys, matching
// the contract of the other backends.
type EntityStore struct {
	db *sql.DB
}

// Open connects to PostgreSQL using the pgx stdlib driver and verifies
// connectivity.
func Open(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return db, nil
}

// NewEntityStore creates an EntityStore backed by the given database handle.
func NewEntityStore(db *sql.DB) *EntityStore {
	return &EntityStore{db: db}
}

// Get retrieves the value stored under key.
// Returns store.ErrNotFound if the key does not exist; any other error
// indicates the read itself failed.
func (s *EntityStore) Get(ctx context.Context, key string) ([]byte, error) {
	query := `SELECT value FROM kv_entries WHERE key = $1`

	var value []byte
	err := s.db.QueryRowContext(ctx, query, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrNotFound, key)
		}
		return nil, store.NewStoreError(key, "get", "postgres read failed", err)
	}
	return value, nil
}

// Put stores value under key, overwriting any existing value.
func (s *EntityStore) Put(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO kv_entries (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = NOW()
	`

	if _, err := s.db.ExecContext(ctx, query, key, value); err != nil {
		return store.NewStoreError(key, "put", "postgres write failed", err)
	}
	return nil
}

// Delete removes the value stored under key. Deleting an absent key is a no-op.
func (s *EntityStore) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM kv_entries WHERE key = $1`

	if _, err := s.db.ExecContext(ctx, query, key); err != nil {
		return store.NewStoreError(key, "delete", "postgres delete failed", err)
	}
	return nil
}
