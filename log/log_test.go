package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"slices"
	"strings"
	"testing"
)

func TestLogger_Make_DefaultConfiguration(t *testing.T) {
	var buf bytes.Buffer
	logger := Make(&buf)

	if logger.Level() != LevelInfo {
		t.Errorf("expected default level Info, got %v", logger.Level())
	}

	if logger.caller {
		t.Error("expected caller disabled by default")
	}

	if logger.Format() != FormatText {
		t.Errorf("expected default format text, got %v", logger.Format())
	}
}

func TestLogger_ZeroValue_Discards(t *testing.T) {
	var logger Logger

	logger.Trace("trace")
	logger.Error("error", slog.String("k", "v"))

	if logger.Level() != DefaultLevel || logger.Format() != DefaultFormat {
		t.Errorf("zero logger reports %v/%v", logger.Level(), logger.Format())
	}

	if w := logger.With(slog.String("k", "v")); w.Logger != nil {
		t.Error("With on the zero logger returned a live logger")
	}
}

func TestLogger_WithLevel_FiltersMessages(t *testing.T) {
	var buf bytes.Buffer
	logger := Make(&buf, WithLevel(LevelDebug))

	logger.Trace("trace message")
	logger.Debug("debug message")

	if strings.Contains(buf.String(), "trace message") {
		t.Error("trace message logged at Debug level")
	}

	if !strings.Contains(buf.String(), "debug message") {
		t.Error("debug message not logged after setting level to Debug")
	}

	buf.Reset()

	logger = logger.Wrap(WithLevel(LevelError))
	logger.Info("info message")

	if buf.Len() > 0 {
		t.Error("info message logged when level is Error")
	}
}

func TestLogger_Trace_LevelName(t *testing.T) {
	var buf bytes.Buffer
	logger := Make(&buf, WithLevel(LevelTrace), WithFormat(FormatJSON), WithTimeLayout("none"))

	logger.Trace("push document", slog.String("document", "main"))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}

	if rec["level"] != "TRACE" || rec["document"] != "main" {
		t.Errorf("record = %v", rec)
	}

	if _, ok := rec["time"]; ok {
		t.Errorf("time present with layout none: %v", rec)
	}
}

func TestLogger_WithCaller(t *testing.T) {
	var buf bytes.Buffer
	logger := Make(&buf, WithCaller(true), WithFormat(FormatJSON))

	logger.Info("test message")

	if !strings.Contains(buf.String(), "log_test.go") {
		t.Errorf("caller missing from output: %s", buf.String())
	}
}

func TestLogger_With_Attributes(t *testing.T) {
	var buf bytes.Buffer
	logger := Make(&buf).With(slog.String("run", "r1"))

	logger.Info("resolve done")

	if !strings.Contains(buf.String(), "run=r1") {
		t.Errorf("attribute missing from output: %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"trace", LevelTrace},
		{"TRACE", LevelTrace},
		{"debug", LevelDebug},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"bogus", DefaultLevel},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if got := slices.Collect(Levels()); !slices.Equal(got, []string{"trace", "debug", "info", "warn", "error"}) {
		t.Errorf("Levels() = %v", got)
	}
}

func TestParseFormat(t *testing.T) {
	if ParseFormat(" JSON ") != FormatJSON || ParseFormat("text") != FormatText || ParseFormat("xml") != DefaultFormat {
		t.Error("ParseFormat mismatch")
	}

	if got := slices.Collect(Formats()); !slices.Equal(got, []string{"text", "json"}) {
		t.Errorf("Formats() = %v", got)
	}
}

func TestConfig_Default(t *testing.T) {
	var buf bytes.Buffer

	before := Default()
	t.Cleanup(func() {
		defaultMu.Lock()
		defaultLog = before
		defaultMu.Unlock()
	})

	Config(WithOutput(&buf), WithLevel(LevelWarn))

	Info("hidden")
	Warn("shown")

	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("output = %s", buf.String())
	}
}

func TestLogger_Log_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := Make(&buf, WithLevel(LevelWarn))

	if logger.Enabled(t.Context(), LevelInfo) || !logger.Enabled(t.Context(), LevelError) {
		t.Error("Enabled does not follow the configured level")
	}

	logger.Log(t.Context(), LevelInfo, "dropped")
	logger.Log(t.Context(), LevelError, "kept")

	if strings.Contains(buf.String(), "dropped") || !strings.Contains(buf.String(), "level=ERROR") {
		t.Errorf("output = %s", buf.String())
	}

	var zero Logger
	if zero.Enabled(t.Context(), LevelError) {
		t.Error("zero logger reports enabled")
	}
}
