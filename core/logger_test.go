package core

import (
	"os"
	"path/filepath"
	"testing"

	"export-tracking-service/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_WritesToLogsDirectory(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewLogger(config.Config{LogsDirectory: dir, LogLevel: "debug"})
	require.NoError(t, err)

	logger.Info("hello")
	_ = logger.Sync()

	files, err := filepath.Glob(filepath.Join(dir, "export-tracking-service-*.log"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	raw, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(raw), "hello")
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	_, err := NewLogger(config.Config{LogLevel: "loud"})
	assert.Error(t, err)
}
