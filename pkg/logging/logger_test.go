package logging

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"
)

func TestLogLevelString(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{DEBUG, "DEBUG"},
		{INFO, "INFO"},
		{WARN, "WARN"},
		{ERROR, "ERROR"},
		{FATAL, "FATAL"},
		{LogLevel(999), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.level.String(); got != tt.expected {
				t.Errorf("LogLevel.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func newTestLogger(t *testing.T, format LogFormat, minLevel LogLevel) (*Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger, err := NewLogger(LoggerConfig{
		MinLevel: minLevel,
		Format:   format,
		Outputs:  []io.Writer{&buf},
	})
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	t.Cleanup(func() { logger.Close() })
	return logger, &buf
}

func TestInfoWritesTextLine(t *testing.T) {
	logger, buf := newTestLogger(t, TextFormat, DEBUG)
	logger.Info("starting run")
	logger.Sync()

	out := buf.String()
	if !strings.Contains(out, "[INFO]") || !strings.Contains(out, "starting run") {
		t.Errorf("log output = %q, want it to contain [INFO] and the message", out)
	}
}

func TestMinLevelFiltersLowerSeverity(t *testing.T) {
	logger, buf := newTestLogger(t, TextFormat, WARN)
	logger.Debug("too quiet to matter")
	logger.Info("also filtered")
	logger.Warn("this one counts")
	logger.Sync()

	out := buf.String()
	if strings.Contains(out, "too quiet") || strings.Contains(out, "also filtered") {
		t.Errorf("log output = %q, want DEBUG/INFO suppressed below WARN", out)
	}
	if !strings.Contains(out, "this one counts") {
		t.Errorf("log output = %q, want the WARN message present", out)
	}
}

func TestJSONFormatEmitsValidJSONPerLine(t *testing.T) {
	logger, buf := newTestLogger(t, JSONFormat, DEBUG)
	logger.InfoWithFields("compiled program", map[string]interface{}{"instructions": 42})
	logger.Sync()

	line := strings.TrimSpace(buf.String())
	var entry LogEntry
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("json.Unmarshal(%q) error = %v", line, err)
	}
	if entry.Level != "INFO" || entry.Message != "compiled program" {
		t.Errorf("entry = %+v, want Level=INFO Message=%q", entry, "compiled program")
	}
	if entry.Fields["instructions"] != float64(42) {
		t.Errorf("entry.Fields[instructions] = %v, want 42", entry.Fields["instructions"])
	}
}

func TestWithRunIDTagsEntries(t *testing.T) {
	logger, buf := newTestLogger(t, TextFormat, DEBUG)
	runLogger := logger.WithRunID("run-123")
	runLogger.Info("vm started")
	logger.Sync()

	if !strings.Contains(buf.String(), "run-123") {
		t.Errorf("log output = %q, want the run ID present", buf.String())
	}
}

func TestWithFieldIsImmutableAcrossCalls(t *testing.T) {
	base := (&ContextLogger{logger: &Logger{}, fields: map[string]interface{}{"a": 1}})
	derived := base.WithField("b", 2)

	if _, ok := base.fields["b"]; ok {
		t.Error("WithField mutated the original ContextLogger's fields")
	}
	if derived.fields["a"] != 1 || derived.fields["b"] != 2 {
		t.Errorf("derived.fields = %v, want both a and b present", derived.fields)
	}
}

func TestNewRunIDReturnsDistinctValues(t *testing.T) {
	a := NewRunID()
	b := NewRunID()
	if a == "" || b == "" {
		t.Fatal("NewRunID() returned an empty string")
	}
	if a == b {
		t.Error("NewRunID() returned the same value twice")
	}
}
