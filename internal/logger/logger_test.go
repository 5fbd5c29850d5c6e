package logger

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	loc := time.FixedZone("UTC+7", 7*3600)
	log := New(WithWriter(&buf), WithLocation(loc), WithFields(map[string]any{"service": "eegweb", "": "skipped"}))

	log.Info("pipeline_done", zap.Int("files", 2))
	require.NoError(t, log.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "pipeline_done", entry["msg"])
	assert.Equal(t, "eegweb", entry["service"])
	assert.Equal(t, float64(2), entry["files"])
	assert.NotContains(t, entry, "")

	ts, err := time.Parse(time.RFC3339Nano, entry["ts"].(string))
	require.NoError(t, err)
	_, offset := ts.Zone()
	assert.Equal(t, 7*3600, offset)
}

func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log := New(WithWriter(&buf), WithLevel("warn"))
	log.Info("hidden")
	assert.Zero(t, buf.Len())
	log.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel(" error "))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("verbose"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel(""))
}
