package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:5000/api", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Notifications.DefaultDuration)
	assert.Equal(t, 7*time.Second, cfg.Notifications.ErrorDuration)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.NotEmpty(t, cfg.Storage.SQLitePath)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portal.yaml")
	content := `
api:
  base_url: https://api.example.org
  timeout: 5s
storage:
  driver: memory
notifications:
  default_duration: 3s
  error_duration: 9s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("PORTAL_API_URL", "https://override.example.org")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://override.example.org", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, 3*time.Second, cfg.Notifications.DefaultDuration)
	assert.Equal(t, 9*time.Second, cfg.Notifications.ErrorDuration)
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("PORTAL_STORAGE_DRIVER", "localstorage")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown storage driver")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestAddrHelpers(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "localhost:6379", cfg.Redis.RedisAddr())
	assert.Equal(t, "0.0.0.0:5000", cfg.Server.Addr())
}
