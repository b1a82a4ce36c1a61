package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/google/go-cmp/cmp"

	"github.com/ardnew/ftdr/cli/cmd"
)

func flag(name string) *kong.Flag {
	return &kong.Flag{Value: &kong.Value{Name: name}}
}

func TestLoadYAML_Resolve(t *testing.T) {
	config := `
log_level: debug
log-format: json
timeout: 10
path:
  - /a
  - /b
check:
  warnings: false
`

	resolver, err := loadYAML(strings.NewReader(config))
	if err != nil {
		t.Fatalf("loadYAML failed: %v", err)
	}

	for name, want := range map[string]any{
		"log-level":      "debug",
		"log-format":     "json",
		"timeout":        "10",
		"path":           []any{"/a", "/b"},
		"check.warnings": false,
		"missing":        nil,
	} {
		got, err := resolver.Resolve(nil, nil, flag(name))
		if err != nil {
			t.Fatalf("Resolve(%s) failed: %v", name, err)
		}

		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Resolve(%s) mismatch (-want +got):\n%s", name, diff)
		}
	}
}

func TestLoadYAML_Invalid(t *testing.T) {
	for _, config := range []string{"", ":\n  - : [", "- just\n- a list\n"} {
		resolver, err := loadYAML(strings.NewReader(config))
		if err != nil {
			t.Fatalf("loadYAML(%q) failed: %v", config, err)
		}

		got, err := resolver.Resolve(nil, nil, flag("log-level"))
		if err != nil || got != nil {
			t.Errorf("Resolve on %q = %v, %v", config, got, err)
		}
	}
}

func TestLoadYAML_Kong(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.yaml")

	config := `
path: [/srv/modules]
timeout: 5s
var:
  - dark-mode=true
check:
  warnings: false
`
	if err := os.WriteFile(file, []byte(config), 0o600); err != nil {
		t.Fatal(err)
	}

	var cli struct {
		Globals cmd.Globals `embed:""`
		Check   cmd.Check   `cmd:""`
	}

	parser, err := kong.New(&cli,
		kong.Configuration(loadYAML, file),
		kong.Writers(&bytes.Buffer{}, &bytes.Buffer{}),
	)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := parser.Parse([]string{"check", "--timeout", "1m", "page.ftd"}); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cli.Globals.Timeout != time.Minute {
		t.Errorf("timeout = %v, want command-line value", cli.Globals.Timeout)
	}

	if diff := cmp.Diff([]string{"/srv/modules"}, cli.Globals.Path); diff != "" {
		t.Errorf("path mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"dark-mode=true"}, cli.Globals.Var); diff != "" {
		t.Errorf("var mismatch (-want +got):\n%s", diff)
	}

	if cli.Check.Warnings {
		t.Error("check.warnings from config not applied")
	}
}

func TestLogConfigScan(t *testing.T) {
	var f logConfig

	f.scan([]string{"resolve", "--log-level", "debug", "--log-format=json", "--no-log-caller=false", "--no-log-pretty", "page.ftd"})

	if f.Level != "debug" || f.Format != "json" || !f.Caller || f.Pretty {
		t.Errorf("scan = %+v", f)
	}

	f.scan([]string{"--log-pretty=true"})

	if !f.Pretty {
		t.Errorf("scan --log-pretty=true = %+v", f)
	}

	t.Cleanup(func() { (&logConfig{Level: "info", Format: "text", TimeLayout: "RFC3339"}).start(t.Context()) })
}
