package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.input))
		})
	}
}

func TestValidLevel(t *testing.T) {
	assert.True(t, ValidLevel("Warn"))
	assert.False(t, ValidLevel("trace"))
}

func TestSetup_JSONToStderr(t *testing.T) {
	// Given: default config writing to a buffer
	var buf bytes.Buffer
	logger, cleanup, err := setup(DefaultConfig(), &buf)
	require.NoError(t, err)
	defer cleanup()

	// When: logging
	logger.Info("fused", slog.Int("documents", 3))
	logger.Debug("hidden")

	// Then: one JSON line at info
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "fused", entry["msg"])
	assert.Equal(t, float64(3), entry["documents"])
}

func TestSetup_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Format = FormatText
	cfg.Level = "debug"

	logger, cleanup, err := setup(cfg, &buf)
	require.NoError(t, err)
	defer cleanup()
	logger.Debug("normalizing", slog.String("technique", "l2"))

	assert.Contains(t, buf.String(), "msg=normalizing technique=l2")
}

func TestSetup_UnknownFormat(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Format = "xml"

	_, _, err := setup(cfg, &bytes.Buffer{})

	assert.Error(t, err)
}

func TestSetup_FileOnly(t *testing.T) {
	// Given: a file path with stderr disabled
	var stderr bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "scorefusion.log")
	cfg := Config{Level: "info", FilePath: path}

	// When: logging
	logger, cleanup, err := setup(cfg, &stderr)
	require.NoError(t, err)
	logger.Info("to file")
	cleanup()

	// Then: the entry is in the file only
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
	assert.Empty(t, stderr.String())
}

func TestRotatingWriter_Rotates(t *testing.T) {
	// Given: a writer with a 1MB cap and two kept files
	path := filepath.Join(t.TempDir(), "app.log")
	w, err := NewRotatingWriter(path, 1, 2)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	chunk := bytes.Repeat([]byte("x"), 600*1024)

	// When: writing past the cap three times
	for i := 0; i < 4; i++ {
		_, err := w.Write(chunk)
		require.NoError(t, err)
	}

	// Then: the current file and two rotated files exist, nothing older
	for _, p := range []string{path, path + ".1", path + ".2"} {
		_, err := os.Stat(p)
		assert.NoError(t, err, p)
	}
	_, err = os.Stat(path + ".3")
	assert.True(t, os.IsNotExist(err))
}

func TestRotatingWriter_CloseTwice(t *testing.T) {
	w, err := NewRotatingWriter(filepath.Join(t.TempDir(), "a.log"), 1, 1)
	require.NoError(t, err)

	assert.NoError(t, w.Close())
	assert.NoError(t, w.Close())
	assert.NoError(t, w.Sync())
}
