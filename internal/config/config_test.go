package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(origDir) })
	return dir
}

func TestFromEnvDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.ListenAddr)
	assert.Equal(t, "http://localhost:8000", cfg.BackendOrigin)
	assert.Equal(t, "http://localhost:3000", cfg.ProxyOrigin)
	assert.Equal(t, "http://localhost:8000", cfg.ProxyTarget)
	assert.Equal(t, 10*time.Second, cfg.PrimaryTimeout)
	assert.True(t, cfg.AutoFetch)
	assert.InDelta(t, 2.0, cfg.Fetch.RatePerSec, 0.001)
	assert.Equal(t, 4, cfg.Fetch.Burst)
	assert.Equal(t, 960, cfg.Chart.Width)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestFromEnvOverrides(t *testing.T) {
	chdirTemp(t)
	t.Setenv("DASHBOARD_BACKEND_ORIGIN", "http://backend:9000/")
	t.Setenv("DASHBOARD_PRIMARY_TIMEOUT", "2500ms")
	t.Setenv("DASHBOARD_AUTO_FETCH", "false")
	t.Setenv("DASHBOARD_LOG_LEVEL", "debug")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "http://backend:9000", cfg.BackendOrigin)
	assert.Equal(t, 2500*time.Millisecond, cfg.PrimaryTimeout)
	assert.False(t, cfg.AutoFetch)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestFromEnvReadsYAML(t *testing.T) {
	dir := chdirTemp(t)
	yaml := `
listen_addr: ":4000"
chart:
  width: 640
log:
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dashboard.yaml"), []byte(yaml), 0o644))
	t.Setenv("DASHBOARD_LISTEN_ADDR", ":5000")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":5000", cfg.ListenAddr, "env overrides file")
	assert.Equal(t, 640, cfg.Chart.Width)
	assert.Equal(t, 480, cfg.Chart.Height)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	dir := chdirTemp(t)

	_, err := Load(filepath.Join(dir, "nope.yaml"))
	assert.Error(t, err)
}

func TestFromEnvRejectsInvalid(t *testing.T) {
	chdirTemp(t)
	t.Setenv("DASHBOARD_PROXY_ORIGIN", "/relative")

	_, err := FromEnv()
	assert.ErrorContains(t, err, "proxy_origin")
}

func TestValidate(t *testing.T) {
	valid := Config{
		ListenAddr:     ":3000",
		BackendOrigin:  "http://localhost:8000",
		ProxyOrigin:    "http://localhost:3000",
		ProxyTarget:    "http://localhost:8000",
		PrimaryTimeout: time.Second,
		Fetch:          FetchConfig{RatePerSec: 1, Burst: 1},
		Chart:          ChartConfig{Width: 1, Height: 1},
	}
	require.NoError(t, valid.Validate())

	noTimeout := valid
	noTimeout.PrimaryTimeout = 0
	assert.Error(t, noTimeout.Validate())

	noBurst := valid
	noBurst.Fetch.Burst = 0
	assert.Error(t, noBurst.Validate())
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.NotNil(t, zap.L())

	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))
	assert.Error(t, InitLogger(LogConfig{Level: "loud", Format: "json"}))
}
