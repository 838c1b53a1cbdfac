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
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, DefaultFingertipsBaseURL, cfg.FingertipsBaseURL)
	assert.Equal(t, DefaultBoundariesURL, cfg.BoundariesURL)
	assert.Equal(t, "ICB23CD", cfg.BoundaryCodeProperty)
	assert.Equal(t, "ICB23NM", cfg.BoundaryNameProperty)
	assert.Zero(t, cfg.UpstreamTimeout)
	assert.Empty(t, cfg.DataDir)
	assert.True(t, cfg.BreakerEnabled)
	assert.Equal(t, uint32(5), cfg.BreakerMaxFailures)
	assert.Equal(t, 30*time.Second, cfg.BreakerOpenTimeout)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Zero(t, cfg.RateLimitRequests)
	assert.Equal(t, time.Minute, cfg.RateLimitWindow)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("FINGERTIPS_BASE_URL", "http://localhost:9000/api")
	t.Setenv("BOUNDARIES_URL", "http://localhost:9001/icb.geojson")
	t.Setenv("BOUNDARY_CODE_PROPERTY", "ICB22CD")
	t.Setenv("UPSTREAM_TIMEOUT", "45s")
	t.Setenv("BREAKER_ENABLED", "false")
	t.Setenv("BREAKER_MAX_FAILURES", "3")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("RATE_LIMIT_REQUESTS", "60")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "http://localhost:9000/api", cfg.FingertipsBaseURL)
	assert.Equal(t, "http://localhost:9001/icb.geojson", cfg.BoundariesURL)
	assert.Equal(t, "ICB22CD", cfg.BoundaryCodeProperty)
	assert.Equal(t, 45*time.Second, cfg.UpstreamTimeout)
	assert.False(t, cfg.BreakerEnabled)
	assert.Equal(t, uint32(3), cfg.BreakerMaxFailures)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 60, cfg.RateLimitRequests)
	assert.Equal(t, 30*time.Second, cfg.RateLimitWindow)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http_addr: \":7070\"\ndata_dir: /srv/snapshots\nlog_format: text\n"), 0o600))
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.HTTPAddr)
	assert.Equal(t, "/srv/snapshots", cfg.DataDir)
	assert.Equal(t, "json", cfg.LogFormat, "environment overrides the file")
}

func TestLoad_MissingConfigFile(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shutdown_timeout")
}

func TestLoad_NegativeShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "-1s")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidLogFormat(t *testing.T) {
	t.Setenv("LOG_FORMAT", "xml")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOG_FORMAT")
}

func TestLoad_InvalidUpstreamURL(t *testing.T) {
	t.Setenv("FINGERTIPS_BASE_URL", "not a url")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FINGERTIPS_BASE_URL")
}

func TestLoad_DataDirSkipsURLCheck(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("BOUNDARIES_URL", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.DataDir)
}

func TestLoad_InvalidBreakerSettings(t *testing.T) {
	t.Setenv("BREAKER_MAX_FAILURES", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BREAKER_MAX_FAILURES")
}

func TestLoad_NegativeRateLimit(t *testing.T) {
	t.Setenv("RATE_LIMIT_REQUESTS", "-5")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RATE_LIMIT_REQUESTS")
}

func TestConfig_WriteTimeout(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Zero(t, cfg.WriteTimeout(), "no upstream timeout means no response deadline")

	t.Setenv("UPSTREAM_TIMEOUT", "45s")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, cfg.WriteTimeout())
}
