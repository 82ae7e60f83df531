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
	t.Helper()
	for _, key := range []string{EnvConfigPath, EnvDatabaseURL, EnvLogLevel, EnvMetricsListen} {
		t.Setenv(key, "")
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 10, cfg.Database.MaxOpenConns)
	assert.Equal(t, 5, cfg.Database.MaxIdleConns)
	assert.Equal(t, 10*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.Zero(t, cfg.Database.StatementTimeout)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, time.Hour, cfg.Worker.DeactivateInterval)
	assert.Empty(t, cfg.Metrics.Listen)
	assert.Equal(t, "boxoffice", cfg.Metrics.Namespace)
	assert.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	t.Run("no file yields defaults", func(t *testing.T) {
		clearEnv(t)
		chdir(t, t.TempDir())

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("explicit file", func(t *testing.T) {
		clearEnv(t)
		dir := t.TempDir()
		chdir(t, dir)

		path := filepath.Join(dir, "custom.yaml")
		content := `
database:
  url: postgres://localhost/boxoffice
  max_open_conns: 20
  statement_timeout: 30s
log:
  level: debug
  format: json
worker:
  deactivate_interval: 5m
metrics:
  listen: ":9100"
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "postgres://localhost/boxoffice", cfg.Database.URL)
		assert.Equal(t, 20, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.Equal(t, 30*time.Second, cfg.Database.StatementTimeout)
		assert.Equal(t, "debug", cfg.Log.Level)
		assert.Equal(t, "json", cfg.Log.Format)
		assert.Equal(t, 5*time.Minute, cfg.Worker.DeactivateInterval)
		assert.Equal(t, ":9100", cfg.Metrics.Listen)
	})

	t.Run("search locations", func(t *testing.T) {
		clearEnv(t)
		dir := t.TempDir()
		chdir(t, dir)

		require.NoError(t, os.WriteFile(filepath.Join(dir, ".boxoffice.yml"), []byte("log:\n  level: error\n"), 0644))

		assert.Equal(t, ".boxoffice.yml", Path())
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "error", cfg.Log.Level)
	})

	t.Run("environment overrides the file", func(t *testing.T) {
		clearEnv(t)
		dir := t.TempDir()
		chdir(t, dir)

		require.NoError(t, os.WriteFile(filepath.Join(dir, "boxoffice.yaml"), []byte("database:\n  url: postgres://file/db\n"), 0644))
		t.Setenv(EnvDatabaseURL, "postgres://env/db")
		t.Setenv(EnvLogLevel, "info")
		t.Setenv(EnvMetricsListen, ":9200")

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "postgres://env/db", cfg.Database.URL)
		assert.Equal(t, "info", cfg.Log.Level)
		assert.Equal(t, ":9200", cfg.Metrics.Listen)
	})

	t.Run("dotenv file", func(t *testing.T) {
		clearEnv(t)
		dir := t.TempDir()
		chdir(t, dir)

		require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("BOXOFFICE_METRICS_LISTEN=:9300\n"), 0644))
		// godotenv never overrides variables that are already set
		require.NoError(t, os.Unsetenv(EnvMetricsListen))

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, ":9300", cfg.Metrics.Listen)
	})

	t.Run("config path from environment", func(t *testing.T) {
		clearEnv(t)
		dir := t.TempDir()
		chdir(t, dir)

		path := filepath.Join(dir, "elsewhere.yaml")
		require.NoError(t, os.WriteFile(path, []byte("metrics:\n  namespace: tickets\n"), 0644))
		t.Setenv(EnvConfigPath, path)

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "tickets", cfg.Metrics.Namespace)
	})

	t.Run("missing explicit file", func(t *testing.T) {
		clearEnv(t)
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("malformed file", func(t *testing.T) {
		clearEnv(t)
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("database: [\n"), 0644))

		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse config file")
	})
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Worker.DeactivateInterval = time.Millisecond
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Database.StatementTimeout = -time.Second
	assert.Error(t, cfg.Validate())
}
