package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_SetGetRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "console", "storage.yaml")

	store, err := OpenFileStore(path)
	require.NoError(t, err)

	_, ok := store.Get(KeyAccessToken)
	assert.False(t, ok)

	require.NoError(t, store.Set(KeyAccessToken, "abc"))
	require.NoError(t, store.Set(KeyExpirationDate, "2026-01-01T00:00:00Z"))

	value, ok := store.Get(KeyAccessToken)
	assert.True(t, ok)
	assert.Equal(t, "abc", value)

	require.NoError(t, store.Remove(KeyAccessToken, KeyExpirationDate))

	_, ok = store.Get(KeyAccessToken)
	assert.False(t, ok)
	_, ok = store.Get(KeyExpirationDate)
	assert.False(t, ok)
}

func TestFileStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.yaml")

	store, err := OpenFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Set(KeyAccessToken, "persisted"))

	reopened, err := OpenFileStore(path)
	require.NoError(t, err)

	value, ok := reopened.Get(KeyAccessToken)
	assert.True(t, ok)
	assert.Equal(t, "persisted", value)
}

func TestFileStore_OwnerOnlyPermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.yaml")

	store, err := OpenFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Set(KeyAccessToken, "abc"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestFileStore_CorruptFileReinitializes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.yaml")
	require.NoError(t, os.WriteFile(path, []byte("values: [not: a map"), 0600))

	store, err := OpenFileStore(path)
	require.NoError(t, err)

	_, ok := store.Get(KeyAccessToken)
	assert.False(t, ok)

	require.NoError(t, store.Set(KeyAccessToken, "fresh"))
	value, _ := store.Get(KeyAccessToken)
	assert.Equal(t, "fresh", value)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()

	require.NoError(t, store.Set("a", "1"))
	require.NoError(t, store.Set("b", "2"))
	require.NoError(t, store.Remove("a", "missing"))

	_, ok := store.Get("a")
	assert.False(t, ok)

	value, ok := store.Get("b")
	assert.True(t, ok)
	assert.Equal(t, "2", value)
}

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		storeType   string
		expectError bool
	}{
		{name: "memory", storeType: TypeMemory},
		{name: "file", storeType: TypeFile},
		{name: "default is file", storeType: ""},
		{name: "unknown type", storeType: "redis", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := New(tt.storeType, filepath.Join(t.TempDir(), "storage.yaml"))
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, store)
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	expanded, err := ExpandPath("~/.config/console/storage.yaml")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config/console/storage.yaml"), expanded)

	unchanged, err := ExpandPath("/tmp/storage.yaml")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/storage.yaml", unchanged)
}
