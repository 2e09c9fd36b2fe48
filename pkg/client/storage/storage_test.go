package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStores_RoundTrip(t *testing.T) {
	sqliteStore, err := OpenSQLite(filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqliteStore.Close() })

	stores := map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sqliteStore,
	}

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			_, err := store.Get(KeyAuth)
			assert.ErrorIs(t, err, ErrKeyNotFound)

			require.NoError(t, store.Set(KeyAuth, `{"access_token":"a","refresh_token":"r"}`))
			value, err := store.Get(KeyAuth)
			require.NoError(t, err)
			assert.Equal(t, `{"access_token":"a","refresh_token":"r"}`, value)

			// Overwrite replaces, no duplicate rows.
			require.NoError(t, store.Set(KeyAuth, "updated"))
			value, err = store.Get(KeyAuth)
			require.NoError(t, err)
			assert.Equal(t, "updated", value)

			require.NoError(t, store.Delete(KeyAuth))
			_, err = store.Get(KeyAuth)
			assert.ErrorIs(t, err, ErrKeyNotFound)

			// Deleting a missing key is not an error.
			assert.NoError(t, store.Delete("anatomy-game.unknown"))
		})
	}
}

func TestDarkModeFlag(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Set(KeyDarkMode, "true"))
	value, err := store.Get(KeyDarkMode)
	require.NoError(t, err)
	assert.Equal(t, "true", value)
}
