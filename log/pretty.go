package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// palette holds the styles used by [prettyHandler]. The renderer is bound to
// the output writer, so colors are dropped when it is not a terminal.
type palette struct {
	key, str, num, dur, when, null lipgloss.Style
	yes, no                        lipgloss.Style
	trace, debug, info, warn, err  lipgloss.Style
}

func makePalette(w io.Writer) palette {
	r := lipgloss.NewRenderer(w)
	fg := func(c string) lipgloss.Style {
		return r.NewStyle().Foreground(lipgloss.Color(c))
	}

	return palette{
		key:   fg("8"),
		str:   fg("6"),
		num:   fg("3"),
		dur:   fg("5"),
		when:  fg("4"),
		null:  fg("8"),
		yes:   fg("2"),
		no:    fg("1"),
		trace: fg("8"),
		debug: fg("4"),
		info:  fg("2"),
		warn:  fg("3").Bold(true),
		err:   fg("1").Bold(true),
	}
}

func (p palette) level(l slog.Level) lipgloss.Style {
	switch {
	case l >= slog.LevelError:
		return p.err
	case l >= slog.LevelWarn:
		return p.warn
	case l >= slog.LevelInfo:
		return p.info
	case l >= slog.LevelDebug:
		return p.debug
	default:
		return p.trace
	}
}

// field is one rendered key/value pair of a record.
type field struct {
	key, val string
}

// prettyHandler writes colorized records: one line of unquoted key=value
// pairs for text, or an indented object for JSON.
type prettyHandler struct {
	opts   slog.HandlerOptions
	json   bool
	mu     *sync.Mutex
	w      io.Writer
	style  palette
	attrs  []field
	prefix string
}

func newPrettyHandler(
	w io.Writer,
	opts *slog.HandlerOptions,
	json bool,
) *prettyHandler {
	return &prettyHandler{
		opts:  *opts,
		json:  json,
		mu:    &sync.Mutex{},
		w:     w,
		style: makePalette(w),
	}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	minimum := slog.LevelInfo
	if h.opts.Level != nil {
		minimum = h.opts.Level.Level()
	}

	return level >= minimum
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	fields := make([]field, 0, 4+len(h.attrs)+r.NumAttrs())

	if !r.Time.IsZero() {
		fields = h.builtin(fields, slog.Time(slog.TimeKey, r.Time), h.style.when)
	}

	fields = h.builtin(fields, slog.Any(slog.LevelKey, r.Level), h.style.level(r.Level))

	if h.opts.AddSource {
		if src := r.Source(); src != nil {
			loc := slog.String(slog.SourceKey, fmt.Sprintf("%s:%d", src.File, src.Line))
			fields = h.builtin(fields, loc, h.style.str)
		}
	}

	fields = h.builtin(fields, slog.String(slog.MessageKey, r.Message), h.style.str)
	fields = append(fields, h.attrs...)

	r.Attrs(func(a slog.Attr) bool {
		fields = h.flatten(fields, h.prefix, a)

		return true
	})

	var buf bytes.Buffer

	if h.json {
		buf.WriteString("{\n")

		for i, f := range fields {
			if i > 0 {
				buf.WriteString(",\n")
			}

			buf.WriteString("  " + h.style.key.Render(f.key) + ": " + f.val)
		}

		buf.WriteString("\n}\n")
	} else {
		for i, f := range fields {
			if i > 0 {
				buf.WriteByte(' ')
			}

			buf.WriteString(h.style.key.Render(f.key) + "=" + f.val)
		}

		buf.WriteByte('\n')
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.w.Write(buf.Bytes())

	return err
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = h.attrs[:len(h.attrs):len(h.attrs)]

	for _, a := range attrs {
		c.attrs = h.flatten(c.attrs, h.prefix, a)
	}

	return &c
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	c := *h
	c.prefix = h.prefix + name + "."

	return &c
}

// builtin renders one of the record's own fields after ReplaceAttr. The
// level keeps its color even when ReplaceAttr renames it.
func (h *prettyHandler) builtin(fields []field, a slog.Attr, style lipgloss.Style) []field {
	if h.opts.ReplaceAttr != nil {
		a = h.opts.ReplaceAttr(nil, a)
	}

	if a.Key == "" {
		return fields
	}

	val := a.Value.Resolve()

	switch val.Kind() {
	case slog.KindTime:
		return append(fields, field{a.Key, style.Render(val.Time().Format(time.RFC3339))})
	case slog.KindAny:
		if l, ok := val.Any().(slog.Level); ok {
			return append(fields, field{a.Key, style.Render(l.String())})
		}
	}

	return append(fields, field{a.Key, style.Render(val.String())})
}

// flatten appends a to fields, qualifying keys with the group prefix.
func (h *prettyHandler) flatten(fields []field, prefix string, a slog.Attr) []field {
	val := a.Value.Resolve()

	if val.Kind() == slog.KindGroup {
		group := val.Group()
		if len(group) == 0 {
			return fields
		}

		if a.Key != "" {
			prefix += a.Key + "."
		}

		for _, g := range group {
			fields = h.flatten(fields, prefix, g)
		}

		return fields
	}

	if a.Key == "" {
		return fields
	}

	return append(fields, field{prefix + a.Key, h.value(val)})
}

func (h *prettyHandler) value(v slog.Value) string {
	p := h.style

	switch v.Kind() {
	case slog.KindString:
		return p.str.Render(v.String())
	case slog.KindInt64:
		return p.num.Render(strconv.FormatInt(v.Int64(), 10))
	case slog.KindUint64:
		return p.num.Render(strconv.FormatUint(v.Uint64(), 10))
	case slog.KindFloat64:
		return p.num.Render(strconv.FormatFloat(v.Float64(), 'g', -1, 64))
	case slog.KindBool:
		if v.Bool() {
			return p.yes.Render("true")
		}

		return p.no.Render("false")
	case slog.KindDuration:
		return p.dur.Render(v.Duration().String())
	case slog.KindTime:
		return p.when.Render(v.Time().Format(time.RFC3339))
	default:
		switch a := v.Any().(type) {
		case nil:
			return p.null.Render("null")
		case error:
			return p.err.Render(a.Error())
		default:
			return p.str.Render(v.String())
		}
	}
}
