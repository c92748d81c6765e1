package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{"debug", zapcore.DebugLevel, false},
		{"", zapcore.InfoLevel, false},
		{"INFO", zapcore.InfoLevel, false},
		{"warning", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"verbose", zapcore.InfoLevel, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew(t *testing.T) {
	t.Run("stdout", func(t *testing.T) {
		log, err := New(&Config{Level: "info", Format: "console", Output: "stdout"})
		require.NoError(t, err)
		assert.NotNil(t, log)
	})

	t.Run("bad level", func(t *testing.T) {
		_, err := New(&Config{Level: "loud"})
		assert.ErrorContains(t, err, "unknown log level")
	})

	t.Run("file output", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "dairy.log")
		log, err := New(&Config{Level: "info", Format: "json", Output: path})
		require.NoError(t, err)
		log.Info("batch received", zap.String("batch_number", "LOT-A"))
		require.NoError(t, Sync(log))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"batch_number":"LOT-A"`)
	})

	t.Run("unwritable file", func(t *testing.T) {
		_, err := New(&Config{Output: filepath.Join(t.TempDir(), "missing", "dairy.log")})
		assert.ErrorContains(t, err, "open log output")
	})
}

func TestNewWithWriterStampsServiceAndEnv(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithWriter(&Config{Level: "debug", Format: "json", Service: "dairy-backend", Env: "test"}, &buf)
	require.NoError(t, err)

	log.Debug("load created", zap.String("truck", "TRK-01"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "load created", entry["msg"])
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "dairy-backend", entry["service"])
	assert.Equal(t, "test", entry["env"])
	assert.Equal(t, "TRK-01", entry["truck"])
	assert.Contains(t, entry["caller"], "logger_test.go")
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithWriter(&Config{Level: "warn", Format: "json"}, &buf)
	require.NoError(t, err)

	log.Info("quiet")
	log.Warn("loud")
	assert.False(t, strings.Contains(buf.String(), "quiet"))
	assert.True(t, strings.Contains(buf.String(), "loud"))
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithWriter(&Config{Format: "console", TimeFormat: "15:04"}, &buf)
	require.NoError(t, err)

	log.Info("reconciliation finalized")
	assert.Contains(t, buf.String(), "INFO")
	assert.Contains(t, buf.String(), "reconciliation finalized")
	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}
