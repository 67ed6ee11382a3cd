package logx

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelFromFlags(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, LevelFromFlags(true, false, false))
	assert.Equal(t, slog.LevelDebug, LevelFromFlags(true, true, true))
	assert.Equal(t, slog.LevelInfo, LevelFromFlags(false, true, true))
	assert.Equal(t, slog.LevelError, LevelFromFlags(false, false, true))
	assert.Equal(t, slog.LevelWarn, LevelFromFlags(false, false, false))
}

func TestNew_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(slog.LevelWarn, &buf)

	logger.Info("swapchain rebuilt", "generation", 3)
	assert.Empty(t, buf.String())

	logger.Warn("discarding pipeline cache", "path", "cache.bin")
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "path=cache.bin")
}
