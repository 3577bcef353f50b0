// Package debug provides logging and profiling for hosts and plugins.
package debug

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// LogLevel represents the severity of a log message.
type LogLevel int

const (
	// LogLevelDebug is for detailed debugging information.
	LogLevelDebug LogLevel = iota
	// LogLevelInfo is for general informational messages.
	LogLevelInfo
	// LogLevelWarn is for warning messages.
	LogLevelWarn
	// LogLevelError is for error messages.
	LogLevelError
	// LogLevelOff disables all logging.
	LogLevelOff
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	case LogLevelOff:
		return "OFF"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel reads a level name, case-insensitively.
func ParseLevel(s string) (LogLevel, error) {
	for l := LogLevelDebug; l <= LogLevelOff; l++ {
		if strings.EqualFold(s, l.String()) {
			return l, nil
		}
	}
	return LogLevelInfo, fmt.Errorf("unknown log level %q", s)
}

func (l LogLevel) slog() slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	case LogLevelOff:
		return slog.LevelError + 4
	default:
		return slog.LevelInfo
	}
}

// Format selects the handler output.
type Format int

const (
	// FormatText writes logfmt-style lines.
	FormatText Format = iota
	// FormatJSON writes one JSON object per line.
	FormatJSON
)

// Logger is a leveled logger that can be switched off.
// Loggers derived with With share their parent's level and switch.
type Logger struct {
	sl      *slog.Logger
	level   *slog.LevelVar
	enabled *atomic.Bool
}

var defaultLogger = New(os.Stderr, FormatText, "")

// New creates a logger writing to output. A non-empty prefix is attached
// to every record as the "component" attribute.
func New(output io.Writer, format Format, prefix string) *Logger {
	level := new(slog.LevelVar)
	level.Set(slog.LevelInfo)
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if format == FormatJSON {
		h = slog.NewJSONHandler(output, opts)
	} else {
		h = slog.NewTextHandler(output, opts)
	}
	sl := slog.New(h)
	if prefix != "" {
		sl = sl.With("component", prefix)
	}

	enabled := new(atomic.Bool)
	enabled.Store(true)
	return &Logger{sl: sl, level: level, enabled: enabled}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	l := New(io.Discard, FormatText, "")
	l.SetEnabled(false)
	return l
}

// With returns a logger that adds attrs to every record.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{sl: l.sl.With(args...), level: l.level, enabled: l.enabled}
}

// SetLevel sets the minimum log level.
func (l *Logger) SetLevel(level LogLevel) {
	l.level.Set(level.slog())
}

// SetEnabled enables or disables the logger.
func (l *Logger) SetEnabled(enabled bool) {
	l.enabled.Store(enabled)
}

// IsEnabled returns whether the logger is enabled.
func (l *Logger) IsEnabled() bool {
	return l.enabled.Load()
}

// Slog returns the underlying structured logger.
func (l *Logger) Slog() *slog.Logger { return l.sl }

func (l *Logger) log(level slog.Level, msg string, args ...any) {
	if !l.enabled.Load() {
		return
	}
	l.sl.Log(context.Background(), level, msg, args...)
}

// Debug logs a debug message with key/value attributes.
func (l *Logger) Debug(msg string, args ...any) { l.log(slog.LevelDebug, msg, args...) }

// Info logs an informational message.
func (l *Logger) Info(msg string, args ...any) { l.log(slog.LevelInfo, msg, args...) }

// Warn logs a warning message.
func (l *Logger) Warn(msg string, args ...any) { l.log(slog.LevelWarn, msg, args...) }

// Error logs an error message.
func (l *Logger) Error(msg string, args ...any) { l.log(slog.LevelError, msg, args...) }

// Default returns the process-wide logger. Library code takes a *Logger
// instead of calling this.
func Default() *Logger {
	return defaultLogger
}

// SetDefault replaces the process-wide logger.
func SetDefault(l *Logger) {
	defaultLogger = l
}

// WarnIf logs a warning if the condition is true.
func (l *Logger) WarnIf(condition bool, msg string, args ...any) {
	if condition {
		l.Warn(msg, args...)
	}
}
