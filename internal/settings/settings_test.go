package settings

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hhlyyng/animesub/internal/cachestore"
	"github.com/hhlyyng/animesub/internal/config"
	"github.com/hhlyyng/animesub/internal/testutil"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := cachestore.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})
	return NewStore(db)
}

func TestStore_GetUnset(t *testing.T) {
	store := openTestStore(t)

	value, err := store.Get("missing")
	require.NoError(t, err)
	assert.Empty(t, value)
}

func TestStore_SetAndGet(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Set(KeyTMDBToken, "token-1"))
	require.NoError(t, store.Set(KeyTMDBToken, "token-2"))

	value, err := store.Get(KeyTMDBToken)
	require.NoError(t, err)
	assert.Equal(t, "token-2", value)
}

func TestEnrichmentToken_PrefersStoredToken(t *testing.T) {
	store := openTestStore(t)

	testutil.ResetConfig(t)
	config.TMDBAPIKey = "config-key"

	token, err := store.EnrichmentToken()
	require.NoError(t, err)
	assert.Equal(t, "config-key", token)

	require.NoError(t, store.Set(KeyTMDBToken, "stored-token"))

	token, err = store.EnrichmentToken()
	require.NoError(t, err)
	assert.Equal(t, "stored-token", token)
}
