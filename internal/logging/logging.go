// Package logging configures the slog loggers used across webmon.
//
// The dashboard owns the terminal, so by default everything is written to a
// rotated log file; headless commands log to stderr instead.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	LevelTrace = slog.Level(-8)
	LevelFatal = slog.Level(12)
)

var levelNames = map[slog.Leveler]string{
	LevelTrace: "TRACE",
	LevelFatal: "FATAL",
}

var (
	mu       sync.RWMutex
	base     = slog.New(slog.NewTextHandler(io.Discard, nil))
	closer   io.Closer
	levelVar = new(slog.LevelVar)
)

// Options selects where log output goes.
type Options struct {
	Level      string // trace, debug, info, warn, error
	File       string // empty means Writer is used
	Writer     io.Writer
	MaxSizeMB  int
	MaxBackups int
	JSON       bool
}

// Init installs the process-wide base logger. Calling Init again replaces the
// previous configuration and closes the previous log file.
func Init(opts Options) error {
	levelVar.Set(ParseLevel(opts.Level))

	var out io.Writer = opts.Writer
	var newCloser io.Closer
	if opts.File != "" {
		if dir := filepath.Dir(opts.File); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create log directory %s: %w", dir, err)
			}
		}
		maxSize := opts.MaxSizeMB
		if maxSize <= 0 {
			maxSize = 10
		}
		lj := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    maxSize,
			MaxBackups: opts.MaxBackups,
			Compress:   false,
		}
		out = lj
		newCloser = lj
	}
	if out == nil {
		out = os.Stderr
	}

	handlerOpts := &slog.HandlerOptions{
		Level:       levelVar,
		ReplaceAttr: replaceLevelName,
	}
	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(out, handlerOpts)
	} else {
		handler = slog.NewTextHandler(out, handlerOpts)
	}

	mu.Lock()
	prev := closer
	base = slog.New(handler)
	closer = newCloser
	mu.Unlock()

	slog.SetDefault(base)
	if prev != nil {
		return prev.Close()
	}
	return nil
}

// Close flushes and closes the log file, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if closer == nil {
		return nil
	}
	err := closer.Close()
	closer = nil
	return err
}

// ForModule returns a logger tagged with module=<name>.
func ForModule(name string) *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base.With("module", name)
}

// Trace logs at the custom trace level.
func Trace(l *slog.Logger, msg string, args ...any) {
	l.Log(context.Background(), LevelTrace, msg, args...)
}

// ParseLevel maps a level name to a slog level. Unknown names map to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func replaceLevelName(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey {
		level, ok := a.Value.Any().(slog.Level)
		if !ok {
			return a
		}
		label, exists := levelNames[level]
		if !exists {
			label = level.String()
		}
		a.Value = slog.StringValue(label)
	}
	return a
}
