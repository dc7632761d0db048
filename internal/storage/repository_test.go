package storage_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budget/internal/storage"
	"budget/internal/storage/storagetest"
)

func newSQLite(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "budget.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteRepositoryContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Store {
		return newSQLite(t)
	})
}

func TestSQLiteRepositoryPing(t *testing.T) {
	repo := newSQLite(t)
	assert.NoError(t, repo.Ping(context.Background()))
}

func TestMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.db")

	v, dirty, err := storage.MigrationVersion(path)
	require.NoError(t, err)
	assert.Zero(t, v)
	assert.False(t, dirty)

	require.NoError(t, storage.RunMigrations(path))
	require.NoError(t, storage.RunMigrations(path), "second run is a no-op")

	v, dirty, err = storage.MigrationVersion(path)
	require.NoError(t, err)
	assert.Equal(t, uint(1), v)
	assert.False(t, dirty)

	require.NoError(t, storage.RollbackMigrations(path, 1))
	v, _, err = storage.MigrationVersion(path)
	require.NoError(t, err)
	assert.Zero(t, v)

	assert.Error(t, storage.RollbackMigrations(path, 0))
}
