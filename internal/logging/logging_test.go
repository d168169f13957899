package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xvierd/tally/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
		ok   bool
	}{
		{"", slog.LevelWarn, true},
		{"debug", slog.LevelDebug, true},
		{"INFO", slog.LevelInfo, true},
		{" error ", slog.LevelError, true},
		{"loud", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(config.LoggingConfig{Level: "info", Format: "json"}, &buf)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("task started", "task_id", 7)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "task started", rec["msg"])
	assert.Equal(t, float64(7), rec["task_id"])

	_, err = New(config.LoggingConfig{Format: "xml"}, &buf)
	assert.Error(t, err)
}

func TestOpen_WritesFile(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Storage.DataDir = t.TempDir()
	cfg.Logging.Level = "info"
	cfg.Logging.File = true

	var console bytes.Buffer
	logger, closer, err := Open(cfg, &console)
	require.NoError(t, err)

	logger.With("op", "stop").Info("task done")
	require.NoError(t, closer.Close())

	assert.Contains(t, console.String(), "task done")
	data, err := os.ReadFile(config.GetLogPath(cfg))
	require.NoError(t, err)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &rec))
	assert.Equal(t, "stop", rec["op"])
}

func TestOpen_ConsoleOnly(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Storage.DataDir = t.TempDir()

	var console bytes.Buffer
	logger, closer, err := Open(cfg, &console)
	require.NoError(t, err)
	defer closer.Close()

	logger.Info("below warn")
	logger.Warn("idle measurement failed")
	assert.NotContains(t, console.String(), "below warn")
	assert.Contains(t, console.String(), "idle measurement failed")
	assert.NoFileExists(t, config.GetLogPath(cfg))
}
