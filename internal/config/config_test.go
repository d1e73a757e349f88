package config

import (
	"os"
	"path/filepath"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EngineBrowser, cfg.Fetcher.Engine)
	assert.Equal(t, "https://www.partselect.com", cfg.Fetcher.BaseURL)
	assert.Equal(t, 1000, cfg.Fetcher.MinContentLength)
	assert.Equal(t, 30, cfg.Cache.TTLMinutes)
	assert.Equal(t, 30, cfg.Fetcher.CircuitBreakerMinutes)
	assert.True(t, cfg.Browser.Headless)
	assert.False(t, cfg.Redis.Enabled)
	assert.Empty(t, cfg.Metrics.Addr())
}

func TestLoad_EnvOverride(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Chdir(t.TempDir())
	t.Setenv("FETCHER_ENGINE", "http")
	t.Setenv("METRICS_ENABLED", "true")
	t.Setenv("METRICS_PORT", "9191")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EngineHTTP, cfg.Fetcher.Engine)
	assert.Equal(t, ":9191", cfg.Metrics.Addr())
}

func TestLoad_RejectsUnknownEngine(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Chdir(t.TempDir())
	t.Setenv("FETCHER_ENGINE", "selenium")

	_, err := Load()
	assert.ErrorContains(t, err, "unknown fetcher engine")
}

func TestLoad_RejectsNonPositiveCacheTTL(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Chdir(t.TempDir())
	t.Setenv("CACHE_TTL_MINUTES", "0")

	_, err := Load()
	assert.ErrorContains(t, err, "cache.ttl_minutes")
}

func TestLoad_ConfigFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	dir := t.TempDir()
	t.Chdir(dir)
	yaml := "fetcher:\n  max_workers: 4\n  proxies:\n    - http://10.0.0.1:8080\ndatabase:\n  enabled: true\n  max_age_minutes: 60\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Fetcher.MaxWorkers)
	assert.Equal(t, []string{"http://10.0.0.1:8080"}, cfg.Fetcher.Proxies)
	assert.True(t, cfg.Database.Enabled)
	assert.Equal(t, 60, cfg.Database.MaxAgeMinutes)
}

func TestConfigureLogging(t *testing.T) {
	t.Cleanup(func() { log.SetLevel(log.InfoLevel) })

	require.NoError(t, ConfigureLogging(LogConfig{Level: "debug", Format: "json"}))
	assert.Equal(t, log.DebugLevel, log.GetLevel())

	assert.Error(t, ConfigureLogging(LogConfig{Level: "loud"}))
	assert.Error(t, ConfigureLogging(LogConfig{Level: "info", Format: "xml"}))
}
