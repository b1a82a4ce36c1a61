package cmd

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/alecthomas/kong"

	"github.com/ardnew/ftdr/driver"
	"github.com/ardnew/ftdr/log"
	"github.com/ardnew/ftdr/pkg"
)

// ContextKey is used to store a [kong.Context] value in [context.Context].
type contextKey struct{}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

// stdout returns the writer commands print results to.
func stdout(ctx context.Context) io.Writer {
	if ktx := kongContextFrom(ctx); ktx != nil && ktx.Stdout != nil {
		return ktx.Stdout
	}

	return os.Stdout
}

// stdinSource is the special source indicator for reading from stdin.
const stdinSource = "-"

// stdinName is the document name of a source read from stdin.
const stdinName = "main"

// Globals are the flags shared by every command. They configure the
// driver that answers the resolver's requests.
type Globals struct {
	Path    []string      `help:"Module search root; repeatable, searched before FTDR_PATH." placeholder:"DIR" short:"I" type:"path"`
	Var     []string      `help:"Foreign variable as name=value (YAML), before FTDR_VAR_*." placeholder:"NAME=VALUE" sep:"none"`
	Timeout time.Duration `default:"30s" help:"Time limit for answering one batch of requests."`
}

// Variables parses the --var assignments.
func (g *Globals) Variables() (driver.Variables, error) {
	vars := make(driver.Variables, len(g.Var))

	for _, a := range g.Var {
		name, value, ok := strings.Cut(a, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, pkg.ErrInvalidVariable.Wrapf("%q", a)
		}

		vars[strings.TrimSpace(name)] = value
	}

	return vars, nil
}

// options returns the driver options for resolving the document read
// from source. The directory of source is searched after the --path
// roots.
func (g *Globals) options(source string) ([]driver.Option, error) {
	vars, err := g.Variables()
	if err != nil {
		return nil, err
	}

	roots := slices.Clone(g.Path)
	if source != stdinSource {
		roots = append(roots, filepath.Dir(source))
	}

	return []driver.Option{
		driver.WithLoader(driver.NewFS(roots...)),
		driver.WithProvider(driver.Chain{vars, driver.Environ(pkg.VarEnvPrefix)}),
		driver.WithTimeout(g.Timeout),
		driver.WithLogger(log.Default()),
	}, nil
}

// readSource returns the document name and content of source.
func readSource(source string) (name, content string, err error) {
	if source == stdinSource {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", "", pkg.ErrReadInput.Wrap(err)
		}

		return stdinName, string(data), nil
	}

	content, err = driver.ReadFile(source)
	if err != nil {
		return "", "", pkg.ErrReadInput.Wrap(err)
	}

	return strings.TrimSuffix(filepath.Base(source), driver.Ext), content, nil
}
