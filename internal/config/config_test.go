package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Queue.Concurrency)
	assert.Equal(t, 3, cfg.Queue.MaxRetries)
	assert.Equal(t, 50, cfg.Queue.BatchCapacity)
	assert.Equal(t, 500, cfg.Cache.Capacity)
}

func TestLoadOptionsOverrideDefaults(t *testing.T) {
	cfg, err := Load(WithConcurrency(5), WithCacheCapacity(10))
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Queue.Concurrency)
	assert.Equal(t, 10, cfg.Cache.Capacity)
}

func TestConflictingBaseDirEnvVarsFailValidation(t *testing.T) {
	t.Setenv("SPECFORGE_BASE_DIR", "a")
	t.Setenv("SPECFORGED_BASE_DIR", "b")
	_, err := Load()
	require.Error(t, err, "disagreeing base-dir env vars should be a startup error")
}

func TestInvalidConcurrencyFailsValidation(t *testing.T) {
	_, err := Load(WithConcurrency(0))
	require.Error(t, err)
}

func TestRedisURLEnvVarIsPickedUp(t *testing.T) {
	t.Setenv("SPECFORGE_REDIS_URL", "redis://localhost:6379/0")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
}

func TestOTelEnabledEnvVarIsPickedUp(t *testing.T) {
	t.Setenv("SPECFORGE_OTEL_ENABLED", "true")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Telemetry.Enabled)
}

func TestYAMLConfigFileIsAppliedBelowEnvVars(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/specforge.yaml"
	contents := "queue:\n  concurrency: 7\n  max_retries: 9\ncache:\n  capacity: 42\nlog_level: debug\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	t.Setenv("SPECFORGE_CONFIG_FILE", path)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Queue.Concurrency)
	assert.Equal(t, 9, cfg.Queue.MaxRetries)
	assert.Equal(t, 42, cfg.Cache.Capacity)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestYAMLConfigFileEnvVarsStillWinOverFile(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/specforge.yaml"
	require.NoError(t, os.WriteFile(path, []byte("redis_url: redis://from-file:6379/0\n"), 0o644))

	t.Setenv("SPECFORGE_CONFIG_FILE", path)
	t.Setenv("SPECFORGE_REDIS_URL", "redis://from-env:6379/0")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "redis://from-env:6379/0", cfg.RedisURL)
}

func TestMissingYAMLConfigFileIsNotAnError(t *testing.T) {
	t.Setenv("SPECFORGE_CONFIG_FILE", "/does/not/exist/specforge.yaml")
	_, err := Load()
	require.NoError(t, err)
}
