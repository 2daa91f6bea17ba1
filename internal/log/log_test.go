package log

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil)).With(slog.String("run", "test"))

	ctx := ContextWithLogger(context.Background(), logger)
	LoggerFromContext(ctx).Info("hello")

	assert.Contains(t, buf.String(), "run=test")
	assert.Contains(t, buf.String(), "msg=hello")
}

func TestLoggerFromContextFallsBackToDefault(t *testing.T) {
	assert.Equal(t, slog.Default(), LoggerFromContext(context.Background()))
}

func TestInitializeDefaultLoggerWithFile(t *testing.T) {
	previous := slog.Default()
	defer slog.SetDefault(previous)

	logFile := filepath.Join(t.TempDir(), "harvest.log")
	closeLog, err := InitializeDefaultLogger(logFile)
	require.NoError(t, err)

	slog.Info("written to file")
	require.NoError(t, closeLog())

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), "written to file")
}

func TestInitializeDefaultLoggerBadPath(t *testing.T) {
	_, err := InitializeDefaultLogger(filepath.Join(t.TempDir(), "missing", "dir", "x.log"))
	assert.Error(t, err)
}
