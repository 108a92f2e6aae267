package userstore

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	store, err := New(db)
	require.NoError(t, err)
	return store, mock
}

func TestStore_Create(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec("INSERT INTO users").
		WithArgs("a@b.com", "Alice").
		WillReturnResult(sqlmock.NewResult(1, 1))

	id, err := store.Create(context.Background(), "a@b.com", "Alice")
	require.NoError(t, err)
	assert.Equal(t, "1", id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Count(t *testing.T) {
	store, mock := newMockStore(t)
	rows := sqlmock.NewRows([]string{"count"}).AddRow(2)
	mock.ExpectQuery("SELECT COUNT").WillReturnRows(rows)

	n, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_HandleCreateThenCountBatchScenario(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec("INSERT INTO users").
		WithArgs("a@b.com", "Alice").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO users").
		WithArgs("b@b.com", "Bob").
		WillReturnResult(sqlmock.NewResult(2, 1))
	rows := sqlmock.NewRows([]string{"count"}).AddRow(2)
	mock.ExpectQuery("SELECT COUNT").WillReturnRows(rows)

	handlers := store.Handlers()

	r1, err := handlers["create"]([]any{map[string]any{"email": "a@b.com", "name": "Alice"}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"status": "ok", "userId": "1"}, r1)

	r2, err := handlers["create"]([]any{map[string]any{"email": "b@b.com", "name": "Bob"}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"status": "ok", "userId": "2"}, r2)

	r3, err := handlers["countUsers"](nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"status": "ok", "count": 2}, r3)

	require.NoError(t, mock.ExpectationsWereMet())
}
