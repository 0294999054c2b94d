package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))

	assert.Equal(t, 64, cfg.Pipeline.EventBuffer)
	assert.Equal(t, 600, cfg.Pipeline.RunTimeoutSeconds)
	assert.InDelta(t, 0.2, cfg.Pipeline.SafetyMargin, 1e-9)
	assert.False(t, cfg.Pipeline.Evaluation)
	assert.Equal(t, "http://localhost:11434", cfg.Inference.BaseURL)
	assert.Equal(t, 5, cfg.Retrieval.MaxSnippets)
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultServerPort, cfg.ServerPort())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "replenix.toml")
	content := `
[server]
port = 9000

[pipeline]
safety_margin = 0.3
evaluation = true

[inference]
model = "mistral"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.ServerPort())
	assert.InDelta(t, 0.3, cfg.Pipeline.SafetyMargin, 1e-9)
	assert.True(t, cfg.Pipeline.Evaluation)
	assert.Equal(t, "mistral", cfg.Inference.Model)
	// Untouched sections keep defaults
	assert.Equal(t, "http://localhost:11434", cfg.Inference.BaseURL)
}

func TestValidateRejectsBadValues(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))

	zero := 0
	cfg.Server.Port = &zero
	assert.Error(t, cfg.Validate(), "port 0 must be rejected")

	cfg.Server.Port = nil
	cfg.Pipeline.SafetyMargin = -0.1
	assert.Error(t, cfg.Validate(), "negative safety margin must be rejected")

	cfg.Pipeline.SafetyMargin = 0
	assert.NoError(t, cfg.Validate(), "zero safety margin is a valid policy")
}

func TestUpdateSettingMarksOwnWrite(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := UserConfigPath()
	require.NotEmpty(t, path)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0750))
	require.NoError(t, os.WriteFile(path, []byte(""), 0644))

	watcher, err := NewConfigWatcher(path)
	require.NoError(t, err)
	defer watcher.Stop()

	SetGlobalWatcher(watcher)
	defer SetGlobalWatcher(nil)

	require.NoError(t, UpdateSetting("pipeline", "safety_margin", 0.3))

	// The watcher must treat the persisted write as its own so a running
	// server does not reload a change it made itself
	assert.True(t, watcher.checkOwnWrite())

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.InDelta(t, 0.3, cfg.Pipeline.SafetyMargin, 1e-9)
}
