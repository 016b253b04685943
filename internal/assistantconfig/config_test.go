package assistantconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assistant.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  url: http://workspace.internal:8080
storage:
  driver: memory
  namespace: team-a
display:
  typing_delay: 0s
`), 0o600))

	t.Setenv("WORKSPACE_STORAGE_NAMESPACE", "team-b")
	t.Setenv("WORKSPACE_DISPLAY_NO_COLOR", "true")

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, "http://workspace.internal:8080", cfg.Server.URL)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, "team-b", cfg.Storage.Namespace)
	assert.Equal(t, time.Duration(0), cfg.Display.TypingDelay)
	assert.True(t, cfg.Display.NoColor)
	// Untouched keys keep their defaults.
	assert.Equal(t, Defaults().LogFile, cfg.LogFile)

	keys := cfg.Keys()
	assert.Equal(t, "team-b:chat-history", keys.ChatHistory)
	assert.Equal(t, "team-b:session", keys.Session)
}

func TestLoad_BrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unterminated"), 0o600))

	_, err := Load(viper.New(), path)
	assert.Error(t, err)
}
