package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.Backend.BaseURL)
	assert.Equal(t, 30, cfg.Backend.TimeoutSec)
	assert.Equal(t, "session", cfg.Backend.SessionCookie)
	assert.Equal(t, 1024, cfg.AI.MaxTokens)
	assert.Equal(t, "default", cfg.Display.Theme)
	assert.Equal(t, 120, cfg.Display.RefreshIntervalSec)
}

func TestLoadConfigReadsFileAndFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `backend:
  base_url: https://mail.example.com
  session_cookie: sid
display:
  refresh_interval_sec: 30
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://mail.example.com", cfg.Backend.BaseURL)
	assert.Equal(t, "sid", cfg.Backend.SessionCookie)
	assert.Equal(t, 30, cfg.Display.RefreshIntervalSec)

	// Keys absent from the file keep their defaults.
	assert.Equal(t, 30, cfg.Backend.TimeoutSec)
	assert.Equal(t, "claude-sonnet-4-20250514", cfg.AI.Model)
	assert.Equal(t, 1024, cfg.AI.MaxTokens)
}

func TestLoadConfigRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend: [not: closed"), 0o600))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestSaveConfigCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "maildash", "config.yaml")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	cfg.Backend.BaseURL = "https://backend.internal:9443"
	cfg.Display.RefreshIntervalSec = 45

	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "https://backend.internal:9443", loaded.Backend.BaseURL)
	assert.Equal(t, 45, loaded.Display.RefreshIntervalSec)
}
