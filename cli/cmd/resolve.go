package cmd

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/ftdr/driver"
	"github.com/ardnew/ftdr/log"
	"github.com/ardnew/ftdr/pkg"
	"github.com/ardnew/ftdr/resolve"
)

// Resolve resolves a document and prints the compiled result.
type Resolve struct {
	Format string `default:"yaml" enum:"yaml,json" help:"Output format (${enum})." short:"o"`
	Indent int    `default:"2"                     help:"Indent width of the output." short:"i"`

	Source string `arg:"" default:"-" help:"Source document or '-' for stdin." name:"source"`
}

// Run executes the resolve command. Diagnostics go to the log; the
// command fails if any of them is an error.
func (r *Resolve) Run(ctx context.Context, g *Globals) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	out, err := resolveSource(ctx, g, r.Source)
	if err != nil {
		return err
	}

	for _, d := range out.Diagnostics {
		logDiagnostic(ctx, d)
	}

	if out.Document != nil {
		if err := r.write(ctx, stdout(ctx), out.Document); err != nil {
			return err
		}
	}

	return failOnErrors(out.Diagnostics)
}

func (r *Resolve) write(ctx context.Context, w io.Writer, doc *resolve.Compiled) error {
	switch r.Format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", strings.Repeat(" ", r.Indent))

		if err := enc.Encode(doc); err != nil {
			return ErrWriteOutput.With(slog.String("format", r.Format)).
				Wrap(pkg.ErrJSONMarshal.Wrap(err))
		}

	default:
		opts := []yaml.EncodeOption{yaml.Indent(r.Indent)}

		if err := yaml.NewEncoder(w, opts...).EncodeContext(ctx, doc); err != nil {
			return ErrWriteOutput.With(slog.String("format", r.Format)).
				Wrap(pkg.ErrYAMLMarshal.Wrap(err))
		}
	}

	return nil
}

// resolveSource reads source and resolves it with the driver configured
// by g.
func resolveSource(ctx context.Context, g *Globals, source string) (*resolve.Output, error) {
	name, content, err := readSource(source)
	if err != nil {
		return nil, ErrResolve.With(slog.String("source", source)).Wrap(err)
	}

	opts, err := g.options(source)
	if err != nil {
		return nil, ErrResolve.With(slog.String("source", source)).Wrap(err)
	}

	log.DebugContext(ctx, "resolve",
		slog.String("source", source),
		slog.String("document", name))

	out, err := driver.Run(ctx, name, content, opts...)
	if err != nil {
		return nil, ErrResolve.With(
			slog.String("source", source),
			slog.String("document", name),
		).Wrap(err)
	}

	return out, nil
}

func logDiagnostic(ctx context.Context, d resolve.Diagnostic) {
	level := log.LevelError
	if d.Severity == resolve.SeverityWarning {
		level = log.LevelWarn
	}

	log.Log(ctx, level, d.Message, slog.Any("diagnostic", d))
}

func failOnErrors(ds resolve.Diagnostics) error {
	if n := len(ds.Errors()); n > 0 {
		return pkg.ErrDiagnostics.Wrapf("%d error(s)", n)
	}

	return nil
}
