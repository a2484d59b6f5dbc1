package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"trace", LevelTrace},
		{"DEBUG", slog.LevelDebug},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestForModuleWritesModuleAttr(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Init(Options{Level: "debug", Writer: &buf}))
	t.Cleanup(func() { _ = Close() })

	ForModule("poller").Debug("tick", "n", 1)

	out := buf.String()
	assert.Contains(t, out, "module=poller")
	assert.Contains(t, out, "msg=tick")
}

func TestTraceLevelName(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Init(Options{Level: "trace", Writer: &buf}))
	t.Cleanup(func() { _ = Close() })

	Trace(ForModule("x"), "deep")

	assert.Contains(t, buf.String(), "level=TRACE")
}

func TestLevelFiltersOutput(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Init(Options{Level: "warn", Writer: &buf}))
	t.Cleanup(func() { _ = Close() })

	ForModule("x").Info("hidden")
	ForModule("x").Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "webmon.log")
	require.NoError(t, Init(Options{Level: "info", File: path}))

	ForModule("file").Info("to disk")
	require.NoError(t, Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to disk")
}
