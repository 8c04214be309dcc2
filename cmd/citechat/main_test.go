// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestLoadConfig_Defaults(t *testing.T) {
	resetViper(t)
	setDefaults()

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", cfg.Client.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Client.Timeout)
	assert.Equal(t, 5, cfg.Client.TopK)
	assert.Equal(t, 80, cfg.Render.Width)
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, ".citechat", cfg.History.Dir)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	resetViper(t)
	t.Setenv("CITECHAT_BASE_URL", "http://backend:9000")
	t.Setenv("CITECHAT_TIMEOUT", "5s")
	t.Setenv("CITECHAT_RENDER_WIDTH", "120")
	t.Setenv("CITECHAT_HISTORY_ENABLED", "false")
	setDefaults()
	bindEnv()

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "http://backend:9000", cfg.Client.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Client.Timeout)
	assert.Equal(t, 120, cfg.Render.Width)
	assert.False(t, cfg.History.Enabled)
}

func TestLoadConfig_File(t *testing.T) {
	resetViper(t)
	path := filepath.Join(t.TempDir(), "citechat.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
base_url: https://qa.example.com
top_k: 8
requests_per_second: 2.5
render:
  style: dark
history:
  dir: /tmp/citechat-history
`), 0o644))

	setDefaults()
	viper.SetConfigFile(path)
	require.NoError(t, viper.ReadInConfig())

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "https://qa.example.com", cfg.Client.BaseURL)
	assert.Equal(t, 8, cfg.Client.TopK)
	assert.InDelta(t, 2.5, cfg.Client.RequestsPerSecond, 1e-9)
	assert.Equal(t, "dark", cfg.Render.Style)
	assert.Equal(t, 80, cfg.Render.Width)
	assert.Equal(t, "/tmp/citechat-history", cfg.History.Dir)
}
