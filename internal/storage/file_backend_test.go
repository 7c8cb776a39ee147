package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileBackend_SetGet(t *testing.T) {
	backend := NewFileBackend(t.TempDir())

	_, found := backend.Get(KeyConversations)
	assert.False(t, found)

	require.NoError(t, backend.Set(KeyConversations, []byte(`[{"id":"1"}]`)))

	data, found := backend.Get(KeyConversations)
	require.True(t, found)
	assert.Equal(t, `[{"id":"1"}]`, string(data))
}

func TestFileBackend_KeysMapToJSONFiles(t *testing.T) {
	dir := t.TempDir()
	backend := NewFileBackend(dir)

	require.NoError(t, backend.Set(KeyUser, []byte(`{"name":"Ada"}`)))

	raw, err := os.ReadFile(filepath.Join(dir, KeyUser+".json"))
	require.NoError(t, err)
	assert.Equal(t, `{"name":"Ada"}`, string(raw))
}

func TestFileBackend_CreatesDirectoryLazily(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "store")
	backend := NewFileBackend(dir)

	_, err := os.Stat(dir)
	require.True(t, os.IsNotExist(err))

	require.NoError(t, backend.Set(KeyGuestActive, FlagSet))

	_, err = os.Stat(dir)
	assert.NoError(t, err)
}

func TestFileBackend_DeleteIsIdempotent(t *testing.T) {
	backend := NewFileBackend(t.TempDir())

	require.NoError(t, backend.Set(KeyUser, []byte("{}")))
	backend.Delete(KeyUser)
	_, found := backend.Get(KeyUser)
	assert.False(t, found)

	backend.Delete(KeyUser)
}

func TestFileBackend_OverwriteReplacesValue(t *testing.T) {
	backend := NewFileBackend(t.TempDir())

	require.NoError(t, backend.Set(KeyConversations, []byte("old")))
	require.NoError(t, backend.Set(KeyConversations, []byte("new")))

	data, found := backend.Get(KeyConversations)
	require.True(t, found)
	assert.Equal(t, "new", string(data))
}
