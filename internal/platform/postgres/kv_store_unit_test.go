package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/taskflow/internal/store"
)

func TestEntityStore_Get(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(`SELECT value FROM kv_entries WHERE key = \$1`).
		WithArgs("reminder_u_1_x").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow([]byte(`{"notified":true}`)))

	s := NewEntityStore(db)
	value, err := s.Get(context.Background(), "reminder_u_1_x")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"notified":true}`), value)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEntityStore_Get_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(`SELECT value FROM kv_entries WHERE key = \$1`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"value"}))

	s := NewEntityStore(db)
	_, err = s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEntityStore_Get_QueryFailureIsNotNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	queryErr := errors.New("connection refused")
	mock.ExpectQuery(`SELECT value FROM kv_entries WHERE key = \$1`).
		WithArgs("k").
		WillReturnError(queryErr)

	s := NewEntityStore(db)
	_, err = s.Get(context.Background(), "k")
	require.Error(t, err)

	// A failed read must never be interpreted as "does not exist".
	assert.False(t, store.IsNotFoundError(err))
	assert.ErrorIs(t, err, queryErr)

	var storeErr *store.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "get", storeErr.Operation)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEntityStore_Put(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec(`INSERT INTO kv_entries`).
		WithArgs("k", []byte("v")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	s := NewEntityStore(db)
	require.NoError(t, s.Put(context.Background(), "k", []byte("v")))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEntityStore_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec(`DELETE FROM kv_entries WHERE key = \$1`).
		WithArgs("k").
		WillReturnResult(sqlmock.NewResult(0, 0))

	s := NewEntityStore(db)

	// Deleting an absent key succeeds.
	require.NoError(t, s.Delete(context.Background(), "k"))

	assert.NoError(t, mock.ExpectationsWereMet())
}
