package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
remote:
  base_url: "https://drop.example.com"
  api_key: "secret"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://drop.example.com", cfg.Remote.BaseURL)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, 128*1024, cfg.Download.BufferSize)
	assert.Equal(t, "./games", cfg.Download.InstallDir)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("DROPD_PORT", "9191")

	path := writeConfig(t, `
remote:
  api_key: "secret"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9191", cfg.Port)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	path := writeConfig(t, `
store:
  driver: "mongodb"
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown store driver")
}

func TestLoadPostgresRequiresDSN(t *testing.T) {
	path := writeConfig(t, `
store:
  driver: "postgres"
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres_dsn")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadRejectsNegativeRateLimit(t *testing.T) {
	path := writeConfig(t, `
download:
  rate_limit: -5
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate_limit")
}
