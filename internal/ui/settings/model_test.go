package settings

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mail-dashboard/internal/model"
)

func testConfig() *model.AppConfig {
	cfg, err := model.LoadConfig(filepath.Join("does", "not", "exist.yaml"))
	if err != nil {
		panic(err)
	}
	return cfg
}

func TestApplyBindingsMapsFields(t *testing.T) {
	fb := formBindings{
		baseURL:       "https://mail.example.com/",
		sessionCookie: "sid",
		timeoutSec:    "45",
		refreshSec:    "0",
		themeName:     "",
		aiModel:       "claude-sonnet-4-20250514",
		maxTokens:     "2048",
	}

	cfg, err := applyBindings(*testConfig(), fb)
	require.NoError(t, err)

	assert.Equal(t, "https://mail.example.com", cfg.Backend.BaseURL,
		"trailing slash should be trimmed")
	assert.Equal(t, "sid", cfg.Backend.SessionCookie)
	assert.Equal(t, 45, cfg.Backend.TimeoutSec)
	assert.Equal(t, 0, cfg.Display.RefreshIntervalSec)
	assert.Equal(t, "default", cfg.Display.Theme,
		"empty theme should fall back to default")
	assert.Equal(t, 2048, cfg.AI.MaxTokens)
}

func TestApplyBindingsRejectsNonNumericValues(t *testing.T) {
	fb := formBindings{
		baseURL:       "https://mail.example.com",
		sessionCookie: "session",
		timeoutSec:    "soon",
		refreshSec:    "120",
		maxTokens:     "1024",
	}

	_, err := applyBindings(*testConfig(), fb)
	assert.ErrorContains(t, err, "timeout")
}

func TestSaveCmdRoundTripsThroughConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	m := New(testConfig(), path, 80, 24)
	_ = m.Start()
	m.fb.baseURL = "https://mail.example.com"
	m.fb.refreshSec = "30"

	msg := m.saveCmd()()
	res, ok := msg.(saveResultMsg)
	require.True(t, ok, "saveCmd should produce a saveResultMsg")
	require.NoError(t, res.err)

	loaded, err := model.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "https://mail.example.com", loaded.Backend.BaseURL)
	assert.Equal(t, 30, loaded.Display.RefreshIntervalSec)
	assert.Equal(t, "session", loaded.Backend.SessionCookie,
		"untouched fields should keep their values")
}

func TestValidateNumber(t *testing.T) {
	check := validateNumber("Timeout")

	assert.NoError(t, check("30"))
	assert.NoError(t, check("0"))
	assert.Error(t, check(""))
	assert.Error(t, check("30s"))
	assert.Error(t, check("-5"))
}
