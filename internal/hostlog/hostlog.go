// Package hostlog provides logging for the parts of the repository that run
// hosted: the boringctl inspection tool and its monitor. The freestanding
// kernel has its own allocation-free formatter (kernel/kfmt); this package
// wraps log/slog for code that has a real OS underneath it.
package hostlog

import (
	"io"
	"log/slog"
	"os"
)

// LogLevel is a variable holding the log level. It can be changed at
// runtime.
var LogLevel = &slog.LevelVar{}

// Type aliases re-exported so callers need only this package.
type (
	Attr   = slog.Attr
	Level  = slog.Level
	Logger = slog.Logger
)

// DefaultLogger returns a logger writing human-readable output to stderr.
// Components call it once during startup and cache the result.
func DefaultLogger() *Logger {
	return NewLogger(os.Stderr)
}

// NewLogger returns a logger that formats records as text and writes them
// to out, honouring LogLevel.
func NewLogger(out io.Writer) *Logger {
	handler := slog.NewTextHandler(out, &slog.HandlerOptions{Level: LogLevel})
	return slog.New(handler)
}

var (
	String = slog.String
	Any    = slog.Any
)

const (
	Debug = slog.LevelDebug
	Info  = slog.LevelInfo
	Warn  = slog.LevelWarn
	Error = slog.LevelError
)
