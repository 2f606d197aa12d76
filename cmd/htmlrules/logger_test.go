package main

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	t.Run("plain", func(t *testing.T) {
		assert := require.New(t)
		var buf bytes.Buffer
		logger := newLogger(&buf, slog.LevelInfo, false)
		logger.Debug("hidden")
		logger.Info("shown", slog.String("config", "default"))

		assert.NotContains(buf.String(), "hidden")
		assert.Contains(buf.String(), "shown")
		assert.Contains(buf.String(), "config=default")
		assert.NotContains(buf.String(), "\x1b[")
	})

	t.Run("dev", func(t *testing.T) {
		assert := require.New(t)
		var buf bytes.Buffer
		newLogger(&buf, slog.LevelDebug, true).Debug("colored")
		assert.Contains(buf.String(), "colored")
		assert.Contains(buf.String(), "\x1b[")
	})
}

func TestPaletteLevel(t *testing.T) {
	assert := require.New(t)
	p := newPalette()
	assert.Equal(p.LevelError(), p.Level(slog.LevelError+4))
	assert.Equal(p.LevelWarn(), p.Level(slog.LevelWarn))
	assert.Equal(p.LevelInfo(), p.Level(slog.LevelInfo+1))
	assert.Equal(p.LevelDebug(), p.Level(slog.LevelDebug-4))
	assert.Empty(palette{}.Level(slog.LevelError))
}
