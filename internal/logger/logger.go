package logger

import (
	"io"
	"log/slog"
	"sync/atomic"
)

var (
	// Debug flag to control debug logging
	debugEnabled atomic.Bool
	// The logger instance; discards until Init is called
	current atomic.Pointer[slog.Logger]
)

func init() {
	current.Store(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// Init initializes the logger. Output goes to w as logfmt-style text.
func Init(w io.Writer, debug bool) {
	debugEnabled.Store(debug)
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	current.Store(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))

	if debug {
		Debug("Debug logging enabled")
	}
}

// Debug logs a debug message if debug mode is enabled
func Debug(msg string, args ...any) {
	current.Load().Debug(msg, args...)
}

// Info logs an info message
func Info(msg string, args ...any) {
	current.Load().Info(msg, args...)
}

// Error logs an error message
func Error(msg string, args ...any) {
	current.Load().Error(msg, args...)
}

// IsDebugEnabled returns whether debug logging is enabled
func IsDebugEnabled() bool {
	return debugEnabled.Load()
}
