package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{"PORT", "DATA_DIR", "TEMP_DIR", "EXTRACT_DIR", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}
}

func TestLoadConfig_CreatesDefault(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultFileName)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.FileExists(t, path)

	assert.Equal(t, 8089, cfg.Server.Port)
	assert.Equal(t, "extracted", cfg.Extraction.Directory)
	assert.Equal(t, filepath.Join(dir, "data", "uploads"), cfg.GetUploadDir())
	assert.Equal(t, 30*time.Minute, cfg.SessionTimeout())
	assert.Equal(t, 5*time.Minute, cfg.CleanupInterval())
	assert.Equal(t, "0.0.0.0:8089", cfg.GetServerAddr())
}

func TestLoadConfig_ReadsFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")

	content := `server:
  port: 9000
storage:
  temp_directory: /var/tmp/inspector
sessions:
  max_sessions: 3
dashboard:
  page_title: Custom
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "/var/tmp/inspector", cfg.Storage.TempDirectory)
	assert.Equal(t, 3, cfg.Sessions.MaxSessions)
	assert.Equal(t, "Custom", cfg.Dashboard.PageTitle)

	// Unset keys keep their defaults.
	assert.Equal(t, 30, cfg.Sessions.TimeoutMinutes)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadConfig_ClampsSessionSettings(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "zero.yaml")
	content := `sessions:
  timeout_minutes: 0
  cleanup_interval_minutes: 0
  max_sessions: -1
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 5*time.Minute, cfg.CleanupInterval())
	assert.Equal(t, 30*time.Minute, cfg.SessionTimeout())
	assert.Equal(t, 10, cfg.Sessions.MaxSessions)
	assert.NotPanics(t, func() { time.NewTicker(cfg.CleanupInterval()).Stop() })
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	dataDir := t.TempDir()
	t.Setenv("PORT", "7001")
	t.Setenv("DATA_DIR", dataDir)
	t.Setenv("EXTRACT_DIR", "out")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), DefaultFileName))
	require.NoError(t, err)

	assert.Equal(t, 7001, cfg.Server.Port)
	assert.Equal(t, dataDir, cfg.Storage.DataDirectory)
	assert.Equal(t, filepath.Join(dataDir, "uploads"), cfg.Storage.UploadsDirectory)
	assert.Equal(t, filepath.Join(dataDir, "temp"), cfg.Storage.TempDirectory)
	assert.Equal(t, "out", cfg.Extraction.Directory)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultFileName)

	cfg := DefaultConfig()
	cfg.Sessions.MaxSessions = 42
	require.NoError(t, cfg.Save(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 42, loaded.Sessions.MaxSessions)
	assert.Equal(t, cfg.Dashboard, loaded.Dashboard)
}

func TestEnsureDirectories(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	cfg, err := LoadConfig(filepath.Join(dir, DefaultFileName))
	require.NoError(t, err)

	require.NoError(t, cfg.EnsureDirectories())
	assert.DirExists(t, cfg.Storage.UploadsDirectory)
	assert.DirExists(t, cfg.Storage.TempDirectory)
}

func TestLoadEnvFile(t *testing.T) {
	assert.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("FILE_INSPECTOR_TEST_KEY=from-file\n"), 0644))
	t.Setenv("FILE_INSPECTOR_TEST_KEY", "")
	os.Unsetenv("FILE_INSPECTOR_TEST_KEY")

	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "from-file", os.Getenv("FILE_INSPECTOR_TEST_KEY"))
}
