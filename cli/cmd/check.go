package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"

	"github.com/ardnew/ftdr/resolve"
)

// Check resolves a document and prints its diagnostics.
type Check struct {
	Warnings bool `default:"true" help:"Include warnings." negatable:""`

	Source string `arg:"" default:"-" help:"Source document or '-' for stdin." name:"source"`
}

// Run executes the check command.
func (c *Check) Run(ctx context.Context, g *Globals) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	out, err := resolveSource(ctx, g, c.Source)
	if err != nil {
		return err
	}

	ds := out.Diagnostics
	if !c.Warnings {
		ds = ds.Errors()
	}

	if err := newPrinter(stdout(ctx)).print(ds); err != nil {
		return ErrWriteOutput.Wrap(err)
	}

	return failOnErrors(out.Diagnostics)
}

// printer renders diagnostics with styles suited to its writer.
type printer struct {
	w io.Writer

	location lipgloss.Style
	err      lipgloss.Style
	warning  lipgloss.Style
	code     lipgloss.Style
	symbol   lipgloss.Style
	hint     lipgloss.Style
	ok       lipgloss.Style
}

func newPrinter(w io.Writer) *printer {
	r := lipgloss.NewRenderer(w)

	return &printer{
		w:        w,
		location: r.NewStyle().Bold(true),
		err:      r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		warning:  r.NewStyle().Foreground(lipgloss.Color("3")).Bold(true),
		code:     r.NewStyle().Foreground(lipgloss.Color("8")),
		symbol:   r.NewStyle().Foreground(lipgloss.Color("6")),
		hint:     r.NewStyle().Foreground(lipgloss.Color("4")).PaddingLeft(2),
		ok:       r.NewStyle().Foreground(lipgloss.Color("2")),
	}
}

func (p *printer) print(ds resolve.Diagnostics) error {
	var errs, warns int

	for _, d := range ds {
		sev := p.err
		if d.Severity == resolve.SeverityWarning {
			sev = p.warning
			warns++
		} else {
			errs++
		}

		line := p.location.Render(d.Document+":"+strconv.Itoa(d.Line)) + " " +
			sev.Render(d.Severity.String()) + " " +
			p.code.Render("["+string(d.Code)+"]") + " " +
			d.Message

		if d.Symbol != "" {
			line += " " + p.symbol.Render(d.Symbol)
		}

		if _, err := fmt.Fprintln(p.w, line); err != nil {
			return err
		}

		if d.Hint != "" {
			if _, err := fmt.Fprintln(p.w, p.hint.Render(d.Hint)); err != nil {
				return err
			}
		}
	}

	var summary string

	switch {
	case errs == 0 && warns == 0:
		summary = p.ok.Render("ok")
	case errs > 0:
		summary = p.err.Render(fmt.Sprintf("%d error(s), %d warning(s)", errs, warns))
	default:
		summary = p.warning.Render(fmt.Sprintf("%d warning(s)", warns))
	}

	_, err := fmt.Fprintln(p.w, summary)

	return err
}
