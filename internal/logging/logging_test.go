package logging

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

	"github.com/ajitpratap0/conceptgraph/internal/config"
)

func TestNew_JSONConsoleRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter(config.LoggingConfig{Level: "warn", Format: "json"}, zapcore.AddSync(&buf))
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("flush retry", zap.String("document_id", "d1"), zap.Int("step", 3))
	require.NoError(t, logger.Sync())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "flush retry", entry["msg"])
	assert.Equal(t, "d1", entry["document_id"])
	assert.Equal(t, "conceptgraph", entry["logger"])
}

func TestNew_FileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conceptgraph.log")
	var console bytes.Buffer
	logger, err := NewWithWriter(config.LoggingConfig{Level: "info", Format: "console", File: path, MaxSizeMB: 1}, zapcore.AddSync(&console))
	require.NoError(t, err)

	logger.Info("document ingested", zap.String("document_id", "d1"))
	require.NoError(t, logger.Sync())

	assert.Contains(t, console.String(), "document ingested")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"document_id":"d1"`)
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := NewWithWriter(config.LoggingConfig{Level: "loud"}, zapcore.AddSync(&bytes.Buffer{}))
	assert.Error(t, err)
}
