package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPebbleBackend_FlushAndLoad(t *testing.T) {
	dir := t.TempDir()

	backend, err := NewPebbleBackend(dir)
	require.NoError(t, err)

	cols := Collections{
		Users:    []User{{Id: 1, Username: "alice"}},
		Chats:    []Chat{{Id: 2, Kind: ChatGroup, Name: "team", Participants: []int64{1}}},
		Messages: []Message{{Id: 3, ChatId: 2, SenderId: 1, Text: "hi", Status: StatusSent}},
	}
	require.NoError(t, backend.Flush(cols))
	require.NoError(t, backend.Close())

	// reopen and confirm the batch survived
	backend, err = NewPebbleBackend(dir)
	require.NoError(t, err)
	defer backend.Close()

	got, err := backend.Load()
	assert.NoError(t, err)
	assert.Equal(t, cols.Users, got.Users)
	assert.Equal(t, cols.Chats, got.Chats)
	assert.Equal(t, cols.Messages, got.Messages)
}

func TestPebbleBackend_LoadEmpty(t *testing.T) {
	backend, err := NewPebbleBackend(t.TempDir())
	require.NoError(t, err)
	defer backend.Close()

	cols, err := backend.Load()
	assert.NoError(t, err)
	assert.Empty(t, cols.Users)
	assert.Empty(t, cols.Chats)
	assert.Empty(t, cols.Messages)
}

func TestPebbleBackend_Ping(t *testing.T) {
	backend, err := NewPebbleBackend(t.TempDir())
	require.NoError(t, err)
	assert.NoError(t, backend.Ping())

	require.NoError(t, backend.Close())
	assert.Error(t, backend.Ping(), "expected ping to fail after close")
}
