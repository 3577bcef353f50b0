package debug

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestLogger(t *testing.T) {
	t.Run("BasicLogging", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(&buf, FormatText, "TEST")

		logger.Info("hello", "who", "world")

		output := buf.String()
		if !strings.Contains(output, "level=INFO") {
			t.Error("Missing log level")
		}
		if !strings.Contains(output, "component=TEST") {
			t.Error("Missing prefix")
		}
		if !strings.Contains(output, "who=world") {
			t.Error("Missing attribute")
		}
	})

	t.Run("LogLevels", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(&buf, FormatText, "")
		logger.SetLevel(LogLevelWarn)

		logger.Debug("debug message")
		logger.Info("info message")
		logger.Warn("warn message")
		logger.Error("error message")

		output := buf.String()
		if strings.Contains(output, "debug message") {
			t.Error("Debug message should not be logged")
		}
		if strings.Contains(output, "info message") {
			t.Error("Info message should not be logged")
		}
		if !strings.Contains(output, "warn message") {
			t.Error("Warn message should be logged")
		}
		if !strings.Contains(output, "error message") {
			t.Error("Error message should be logged")
		}
	})

	t.Run("Disabled", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(&buf, FormatText, "")
		logger.SetEnabled(false)

		logger.Info("should not appear")

		if buf.Len() > 0 {
			t.Error("Disabled logger should not write")
		}
	})

	t.Run("WithSharesSwitches", func(t *testing.T) {
		var buf bytes.Buffer
		parent := New(&buf, FormatJSON, "")
		child := parent.With("instance", "abc")

		child.Info("frame")
		var rec map[string]any
		if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
			t.Fatalf("not JSON: %v", err)
		}
		if rec["instance"] != "abc" {
			t.Errorf("instance = %v", rec["instance"])
		}

		buf.Reset()
		parent.SetLevel(LogLevelOff)
		child.Error("hidden")
		if buf.Len() > 0 {
			t.Error("child should follow the parent's level")
		}
	})

	t.Run("ConditionalLogging", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(&buf, FormatText, "")

		logger.WarnIf(true, "should appear")
		logger.WarnIf(false, "should not appear")

		output := buf.String()
		if !strings.Contains(output, "should appear") {
			t.Error("Conditional true message missing")
		}
		if strings.Contains(output, "should not appear") {
			t.Error("Conditional false message should not appear")
		}
	})
}

func TestLogLevel(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LogLevelDebug, "DEBUG"},
		{LogLevelInfo, "INFO"},
		{LogLevelWarn, "WARN"},
		{LogLevelError, "ERROR"},
		{LogLevelOff, "OFF"},
		{LogLevel(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.level.String(); got != tt.expected {
			t.Errorf("LogLevel.String() = %v, want %v", got, tt.expected)
		}
	}
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("warn")
	if err != nil || l != LogLevelWarn {
		t.Errorf("ParseLevel(warn) = %v, %v", l, err)
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("ParseLevel(loud) should fail")
	}
}

func BenchmarkLogger(b *testing.B) {
	logger := New(bytes.NewBuffer(nil), FormatText, "BENCH")

	b.Run("Enabled", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			logger.Info("benchmark message", "i", i)
		}
	})

	b.Run("Disabled", func(b *testing.B) {
		logger.SetEnabled(false)
		for i := 0; i < b.N; i++ {
			logger.Info("benchmark message", "i", i)
		}
	})

	b.Run("BelowLevel", func(b *testing.B) {
		logger.SetEnabled(true)
		logger.SetLevel(LogLevelError)
		for i := 0; i < b.N; i++ {
			logger.Info("benchmark message", "i", i)
		}
	})
}
