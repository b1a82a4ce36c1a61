package profile

import "testing"

func TestNew(t *testing.T) {
	mode, path, quiet := New(
		WithMode("cpu"),
		WithPath("/tmp/prof"),
		WithQuiet(true),
		WithMode("heap"),
	)()

	if mode != "heap" || path != "/tmp/prof" || !quiet {
		t.Errorf("New() = %q, %q, %v", mode, path, quiet)
	}
}

func TestStart_NoMode(t *testing.T) {
	p := New(WithPath(t.TempDir())).Start()
	if _, ok := p.(ignore); !ok {
		t.Errorf("Start() = %T, want a no-op", p)
	}

	p.Stop()
}
