package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"
	"github.com/google/go-cmp/cmp"

	"github.com/ardnew/ftdr/driver"
	"github.com/ardnew/ftdr/pkg"
)

type testCLI struct {
	Globals Globals `embed:""`

	Resolve Resolve `cmd:""`
	Check   Check   `cmd:""`
}

// run parses args and runs the selected command, returning what it wrote
// to stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var (
		cli testCLI
		out bytes.Buffer
	)

	ctx := t.Context()

	parser, err := kong.New(&cli,
		kong.Writers(&out, &out),
		kong.Exit(func(int) { t.Fatal("unexpected exit") }),
		kong.BindSingletonProvider(func() context.Context { return ctx }),
	)
	if err != nil {
		t.Fatal(err)
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		t.Fatalf("parse %v: %v", args, err)
	}

	ctx = WithContext(ctx, ktx)
	err = ktx.Run(&cli.Globals)

	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(name, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	return name
}

func TestGlobalsVariables(t *testing.T) {
	g := Globals{Var: []string{"dark-mode=true", " user = {name: Ada}", "empty="}}

	got, err := g.Variables()
	if err != nil {
		t.Fatalf("Variables: %v", err)
	}

	want := driver.Variables{
		"dark-mode": "true",
		"user":      " {name: Ada}",
		"empty":     "",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("variables mismatch (-want +got):\n%s", diff)
	}

	for _, bad := range []string{"novalue", "=x"} {
		g := Globals{Var: []string{bad}}
		if _, err := g.Variables(); !errors.Is(err, pkg.ErrInvalidVariable) {
			t.Errorf("Variables(%q) = %v, want %v", bad, err, pkg.ErrInvalidVariable)
		}
	}
}

func TestReadSource(t *testing.T) {
	file := writeFile(t, filepath.Join(t.TempDir(), "page.ftd"), "-- ftd.text: Hi\n")

	name, content, err := readSource(file)
	if err != nil {
		t.Fatalf("readSource: %v", err)
	}

	if name != "page" || content != "-- ftd.text: Hi\n" {
		t.Errorf("readSource = %q, %q", name, content)
	}

	if _, _, err := readSource(filepath.Join(t.TempDir(), "missing.ftd")); !errors.Is(err, pkg.ErrReadInput) {
		t.Errorf("err = %v, want %v", err, pkg.ErrReadInput)
	}
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "lib.ftd"), "-- string greeting: Hi\n")
	page := writeFile(t, filepath.Join(dir, "page.ftd"),
		"-- import: lib\n\n-- ftd.text: $lib.greeting\ncolor if { dark }: white\n")

	t.Setenv(pkg.PathEnv, "")

	out, err := run(t, "resolve", "--var", "dark=true", page)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	var doc struct {
		Name    string
		Bag     map[string]any
		Content []map[string]any
	}

	if err := yaml.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("output is not YAML: %v\n%s", err, out)
	}

	if doc.Name != "page" {
		t.Errorf("name = %q", doc.Name)
	}

	if _, ok := doc.Bag["lib#greeting"]; !ok {
		t.Errorf("bag = %v", doc.Bag)
	}

	if len(doc.Content) != 1 {
		t.Errorf("content = %v", doc.Content)
	}
}

func TestResolve_JSON(t *testing.T) {
	page := writeFile(t, filepath.Join(t.TempDir(), "page.ftd"), "-- ftd.text: Hi\n")

	out, err := run(t, "resolve", "--format", "json", "--indent", "0", page)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if !strings.HasPrefix(out, "{") || !strings.Contains(out, `"Name":"page"`) {
		t.Errorf("output = %s", out)
	}
}

func TestResolve_Errors(t *testing.T) {
	page := writeFile(t, filepath.Join(t.TempDir(), "page.ftd"), "-- foo.bar:\n\n-- ftd.text: Hi\n")

	out, err := run(t, "resolve", page)
	if !errors.Is(err, pkg.ErrDiagnostics) {
		t.Fatalf("err = %v, want %v", err, pkg.ErrDiagnostics)
	}

	if !strings.Contains(out, "ftd.text") {
		t.Errorf("compiled document not printed: %s", out)
	}
}

func TestResolve_MissingSource(t *testing.T) {
	_, err := run(t, "resolve", filepath.Join(t.TempDir(), "missing.ftd"))
	if !errors.Is(err, ErrResolve) || !errors.Is(err, pkg.ErrReadInput) {
		t.Errorf("err = %v", err)
	}
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()

	clean := writeFile(t, filepath.Join(dir, "clean.ftd"), "-- ftd.text: Hi\n")

	out, err := run(t, "check", clean)
	if err != nil {
		t.Fatalf("check: %v", err)
	}

	if strings.TrimSpace(out) != "ok" {
		t.Errorf("output = %q", out)
	}

	broken := writeFile(t, filepath.Join(dir, "broken.ftd"), "-- foo.bar:\n")

	out, err = run(t, "check", broken)
	if !errors.Is(err, pkg.ErrDiagnostics) {
		t.Fatalf("err = %v, want %v", err, pkg.ErrDiagnostics)
	}

	for _, want := range []string{"broken:1", "error", "[unresolved-symbol]", "foo#bar", "1 error(s)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestErrorIs(t *testing.T) {
	err := ErrWriteConfig.With().Wrap(ErrFileExists.With())

	if !errors.Is(err, ErrWriteConfig) || !errors.Is(err, ErrFileExists) {
		t.Errorf("errors.Is failed for %v", err)
	}

	if errors.Is(err, ErrResolve) {
		t.Errorf("%v matched %v", err, ErrResolve)
	}

	if got := err.Error(); got != "write configuration file: file exists (use --force to overwrite)" {
		t.Errorf("Error() = %q", got)
	}
}
