package kv

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// setupDB instantiates and returns a Store instance backed by a temporary
// directory that is removed when the test completes.
func setupDB(t testing.TB) *Store {
	db, err := NewKVStore(t.TempDir(), &Config{})
	require.NoError(t, err, "failed to instantiate database")
	t.Cleanup(func() {
		require.NoError(t, db.Close(), "failed to close database")
	})
	return db
}

func TestStore_DatabasePath(t *testing.T) {
	db := setupDB(t)
	require.Contains(t, db.DatabasePath(), databaseFileName)
}

func TestStore_ClearDB(t *testing.T) {
	dirPath := t.TempDir()
	db, err := NewKVStore(dirPath, &Config{})
	require.NoError(t, err)
	require.NoError(t, db.Close())
	require.NoError(t, db.ClearDB())
	// Clearing an already-removed database file is a no-op.
	require.NoError(t, db.ClearDB())
}
