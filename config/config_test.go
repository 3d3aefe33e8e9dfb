// ABOUTME: Tests for configuration loading and overrides
// ABOUTME: Writes YAML to temp dirs and sets OUTREACH_* with t.Setenv
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, 5*time.Second, cfg.Storage.Timeout)
	assert.Equal(t, 720*time.Hour, cfg.Pipeline.PendingRetention)
	assert.False(t, cfg.Pipeline.StrictTransitions)
	assert.Equal(t, 20, cfg.Pipeline.PageSize)
	assert.Equal(t, time.Hour, cfg.Sweeper.InitialDelay)
	assert.Equal(t, 24*time.Hour, cfg.Sweeper.Interval)
	assert.Equal(t, "127.0.0.1:8787", cfg.Server.Addr)
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
storage:
  driver: redis
  redis_addr: cache:6379
  timeout: 2s
pipeline:
  strict_transitions: true
  pending_retention: 240h
sweeper:
  interval: 12h
log:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DriverRedis, cfg.Storage.Driver)
	assert.Equal(t, "cache:6379", cfg.Storage.RedisAddr)
	assert.Equal(t, 2*time.Second, cfg.Storage.Timeout)
	assert.True(t, cfg.Pipeline.StrictTransitions)
	assert.Equal(t, 240*time.Hour, cfg.Pipeline.PendingRetention)
	assert.Equal(t, 12*time.Hour, cfg.Sweeper.Interval)
	assert.Equal(t, time.Hour, cfg.Sweeper.InitialDelay)
	assert.Equal(t, 20, cfg.Pipeline.PageSize)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "storage:\n  driver: local\n")
	t.Setenv("OUTREACH_STORAGE_DRIVER", "sqlite")
	t.Setenv("OUTREACH_STORAGE_PATH", "/tmp/x.db")
	t.Setenv("OUTREACH_PAGE_SIZE", "50")
	t.Setenv("OUTREACH_STRICT_TRANSITIONS", "true")
	t.Setenv("OUTREACH_SWEEP_INITIAL_DELAY", "5m")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, "/tmp/x.db", cfg.Storage.Path)
	assert.Equal(t, 50, cfg.Pipeline.PageSize)
	assert.True(t, cfg.Pipeline.StrictTransitions)
	assert.Equal(t, 5*time.Minute, cfg.Sweeper.InitialDelay)
}

func TestAllowedOrigins(t *testing.T) {
	assert.Empty(t, Default().Server.AllowedOrigins)

	cfg, err := Load(writeConfig(t, "server:\n  allowed_origins:\n    - chrome-extension://abc\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"chrome-extension://abc"}, cfg.Server.AllowedOrigins)

	_, err = Load(writeConfig(t, "server:\n  allowed_origins:\n    - \"\"\n"))
	assert.Error(t, err)

	t.Setenv("OUTREACH_ALLOWED_ORIGINS", "chrome-extension://def, http://localhost:*")
	cfg, err = Load(writeConfig(t, "server:\n  allowed_origins:\n    - chrome-extension://abc\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"chrome-extension://def", "http://localhost:*"}, cfg.Server.AllowedOrigins)
}

func TestInvalidEnvValue(t *testing.T) {
	t.Setenv("OUTREACH_SWEEP_INTERVAL", "daily")
	_, err := Load(writeConfig(t, ""))
	assert.Error(t, err)
}

func TestUnknownDriverRejected(t *testing.T) {
	_, err := Load(writeConfig(t, "storage:\n  driver: mongo\n"))
	assert.Error(t, err)
}

func TestExplicitMissingFileIsAnError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	logger, err := LogConfig{Level: "warn"}.NewLogger(false)
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))

	logger, err = LogConfig{Level: "warn"}.NewLogger(true)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	_, err = LogConfig{Level: "loud"}.NewLogger(false)
	assert.Error(t, err)
}
