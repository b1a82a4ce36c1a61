package log

import (
	"strings"
	"testing"
	"time"
)

func TestConfig_Options(t *testing.T) {
	tests := []struct {
		name  string
		opt   Option
		check func(config) bool
	}{
		{"level", WithLevel(LevelTrace), func(c config) bool { return c.level == LevelTrace }},
		{"format", WithFormat(FormatJSON), func(c config) bool { return c.format == FormatJSON }},
		{"caller", WithCaller(true), func(c config) bool { return c.caller }},
		{"pretty", WithPretty(true), func(c config) bool { return c.pretty }},
		{"nil output", WithOutput(nil), func(c config) bool { return c.output != nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if c := tt.opt(config{}); !tt.check(c) {
				t.Errorf("option not applied: %+v", c)
			}
		})
	}
}

func TestConfig_WithDefaults(t *testing.T) {
	c := makeConfig(nil)

	if c.level != DefaultLevel || c.format != DefaultFormat || c.pretty != DefaultPretty || c.caller {
		t.Errorf("defaults = %+v", c)
	}

	if c.output == nil {
		t.Error("nil writer not replaced")
	}

	c = makeConfig(nil, WithPretty(true), WithLevel(LevelError))
	if !c.pretty || c.level != LevelError {
		t.Errorf("options not applied over defaults: %+v", c)
	}
}

func TestConfig_Handler_Pretty(t *testing.T) {
	for _, f := range []Format{FormatText, FormatJSON} {
		h, ok := makeConfig(nil, WithPretty(true), WithFormat(f)).handler().(*prettyHandler)
		if !ok {
			t.Fatalf("%v: pretty handler not selected", f)
		}

		if h.json != (f == FormatJSON) {
			t.Errorf("%v: json = %v", f, h.json)
		}
	}

	if _, ok := makeConfig(nil).handler().(*prettyHandler); ok {
		t.Error("pretty handler selected by default")
	}
}

func TestConfig_formatTime(t *testing.T) {
	now := time.Date(2023, 10, 15, 14, 30, 45, 123456789, time.UTC)

	tests := []struct {
		name        string
		layout      string
		contains    string
		notContains string
	}{
		{"rfc3339", "RFC3339", "2023-10-15T14:30:45Z", ".123"},
		{"rfc3339 nano", "rfc3339-nano", "2023-10-15T14:30:45.123456789Z", ""},
		{"kitchen", "Kitchen", "2:30PM", "2023"},
		{"millis shorthand", "ms", "14:30:45.123", ".123456"},
		{"custom", "2006/01/02", "2023/10/15", ":"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := makeFormatTimeFunc(tt.layout)(now)

			if !strings.Contains(got, tt.contains) {
				t.Errorf("%q does not contain %q", got, tt.contains)
			}

			if tt.notContains != "" && strings.Contains(got, tt.notContains) {
				t.Errorf("%q contains %q", got, tt.notContains)
			}
		})
	}
}

func TestConfig_formatTime_Disabled(t *testing.T) {
	now := time.Now()

	for _, layout := range []string{"", "   \t  ", "none", "NONE"} {
		if got := makeFormatTimeFunc(layout)(now); got != "" {
			t.Errorf("layout %q: got %q, want no timestamp", layout, got)
		}
	}
}

func BenchmarkConfig_formatTime(b *testing.B) {
	format := makeFormatTimeFunc("RFC3339Nano")
	now := time.Now()

	for b.Loop() {
		_ = format(now)
	}
}
