package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionBackend_SetGetDelete(t *testing.T) {
	backend := NewSessionBackend()

	_, found := backend.Get(KeySessionConversations)
	assert.False(t, found)

	require.NoError(t, backend.Set(KeySessionConversations, []byte("[]")))

	data, found := backend.Get(KeySessionConversations)
	require.True(t, found)
	assert.Equal(t, "[]", string(data))

	backend.Delete(KeySessionConversations)
	_, found = backend.Get(KeySessionConversations)
	assert.False(t, found)
}

func TestSessionBackend_Reset_DropsEverything(t *testing.T) {
	backend := NewSessionBackend()

	require.NoError(t, backend.Set(KeyGuestActive, FlagSet))
	require.NoError(t, backend.Set(KeyRestoreNoticeShown, FlagSet))

	backend.Reset()

	_, found := backend.Get(KeyGuestActive)
	assert.False(t, found)
	_, found = backend.Get(KeyRestoreNoticeShown)
	assert.False(t, found)
}
