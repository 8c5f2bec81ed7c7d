package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chtemp(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chtemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.Registry.TimeoutSecs)
	assert.Zero(t, cfg.Registry.OffsetLat)
	assert.Zero(t, cfg.Registry.OffsetLng)
	assert.Equal(t, 30, cfg.Cadastral.TimeoutSecs)
	assert.Equal(t, 10, cfg.Geocoder.TimeoutSecs)
	assert.InDelta(t, 2.0, cfg.Geocoder.RateLimitPerSec, 0.001)
	assert.InDelta(t, 0.75, cfg.Geocoder.HighConfidence, 0.001)
	assert.InDelta(t, 0.001, cfg.Geocoder.AgreementEpsilon, 0.0001)
	assert.Equal(t, 1000, cfg.Cache.MaxEntries)
	assert.Equal(t, 3600, cfg.Cache.TTLSecs)
	assert.Equal(t, 4, cfg.Batch.Concurrency)
	assert.Equal(t, 10, cfg.Batch.ThrottleThreshold)
	assert.Equal(t, 500, cfg.Batch.ThrottleDelayMs)
	assert.Equal(t, "parcel-history.db", cfg.Store.Path)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	chtemp(t)

	yaml := `
registry:
  url: https://gis.example.test/query
  offset_lat: 0.0005
log:
  level: debug
  format: console
server:
  port: 9090
batch:
  concurrency: 8
`
	dir, _ := os.Getwd()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://gis.example.test/query", cfg.Registry.URL)
	assert.InDelta(t, 0.0005, cfg.Registry.OffsetLat, 1e-9)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 8, cfg.Batch.Concurrency)
	// Defaults still apply for unset values
	assert.Equal(t, 1000, cfg.Cache.MaxEntries)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	chtemp(t)

	yaml := `
log:
  level: debug
store:
  path: file.db
`
	dir, _ := os.Getwd()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("PARCEL_LOG_LEVEL", "warn")
	t.Setenv("PARCEL_STORE_PATH", "env.db")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "env.db", cfg.Store.Path)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chtemp(t)

	t.Setenv("PARCEL_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestRegistryOffset(t *testing.T) {
	c := RegistryConfig{OffsetLat: 0.001, OffsetLng: -0.002}
	offset := c.Offset()
	assert.InDelta(t, 0.001, offset.Lat, 1e-9)
	assert.InDelta(t, -0.002, offset.Lng, 1e-9)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}
