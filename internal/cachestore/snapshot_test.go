package cachestore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})
	return db
}

func TestSnapshotStore_GetMissing(t *testing.T) {
	store := NewSnapshotStore(openTestDB(t))

	snap, err := store.Get("random_pool")
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestSnapshotStore_PutAndGet(t *testing.T) {
	store := NewSnapshotStore(openTestDB(t))

	require.NoError(t, store.Put("random_pool", `[{"name_cn":"test"}]`))

	snap, err := store.Get("random_pool")
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, "random_pool", snap.SourceKey)
	assert.Equal(t, `[{"name_cn":"test"}]`, snap.Payload)
	assert.WithinDuration(t, time.Now().UTC(), snap.UpdatedAt, time.Minute)
}

func TestSnapshotStore_PutOverwrites(t *testing.T) {
	store := NewSnapshotStore(openTestDB(t))

	require.NoError(t, store.Put("random_pool", "first"))
	require.NoError(t, store.Put("random_pool", "second"))

	snap, err := store.Get("random_pool")
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, "second", snap.Payload)
}
