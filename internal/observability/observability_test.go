package observability

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "info", "json")

	logger.Debug("hidden")
	logger.Info("fetched indicator", "indicator_id", 94146)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"fetched indicator"`)
	assert.Contains(t, out, `"indicator_id":94146`)
}

func TestNewLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "debug", "text")

	logger.Debug("cache miss", "key", "boundaries")

	assert.Contains(t, buf.String(), "cache miss")
	assert.Contains(t, buf.String(), "boundaries")
}

func TestNewMetricsForTesting(t *testing.T) {
	m := NewMetricsForTesting()
	require.NotNil(t, m)

	m.CacheLookups.WithLabelValues("indicator", "hit").Inc()
	m.CacheEntries.Set(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("indicator", "hit")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.CacheEntries))
}
