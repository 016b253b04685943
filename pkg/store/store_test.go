package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKeys(t *testing.T) {
	keys := NewKeys("team-a")
	assert.Equal(t, "team-a:chat-history", keys.ChatHistory)
	assert.Equal(t, "team-a:context-selection", keys.ContextSelection)
	assert.NotEqual(t, keys.ChatHistory, keys.ContextSelection)

	assert.Equal(t, "workspace:chat-history", NewKeys("  ").ChatHistory)
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()

	_, ok, err := s.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set("k", "v1"))
	require.NoError(t, s.Set("k", "v2"))

	v, ok, err := s.Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v2", v)
}

func TestFileStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.gob")

	s, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Set("history", `[{"id":"1"}]`))
	require.NoError(t, s.Set("selection", `[3,1]`))

	_, err = os.Stat(path)
	require.NoError(t, err)

	reopened, err := NewFileStore(path)
	require.NoError(t, err)

	v, ok, err := reopened.Get("history")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":"1"}]`, v)

	v, ok, err = reopened.Get("selection")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[3,1]`, v)
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.gob")
	require.NoError(t, os.WriteFile(path, []byte("not gob"), 0o600))

	_, err := NewFileStore(path)
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	kv, err := Open(Options{Driver: DriverMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, kv)

	kv, err = Open(Options{Driver: DriverFile, Path: filepath.Join(t.TempDir(), "s.gob")})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, kv)

	_, err = Open(Options{Driver: "etcd"})
	assert.Error(t, err)
}

func TestRedisStore(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("Skipping integration test: REDIS_URL not set")
	}

	s, err := NewRedisStore(url)
	require.NoError(t, err)
	defer s.Close()

	key := "workspace-test:" + t.Name()
	require.NoError(t, s.Set(key, "value"))

	v, ok, err := s.Get(key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "value", v)

	_, ok, err = s.Get(key + ":missing")
	require.NoError(t, err)
	assert.False(t, ok)
}
