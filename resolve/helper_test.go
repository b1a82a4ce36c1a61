package resolve

import (
	"testing"

	"github.com/ardnew/ftdr/ir"
)

// host answers the requests of a run from static tables. A name missing
// from a table is answered as not found.
type host struct {
	modules    map[string]string
	processors map[string]string
	failing    map[string]string
	foreign    map[string]string

	calls    []ProcessorCall
	requests []ForeignRequest
	imports  []ImportRequest
	rounds   int
}

func ptr(s string) *string { return &s }

func (h *host) run(t *testing.T, st *State) *Output {
	t.Helper()

	res, err := Continue(st)

	for err == nil && !res.Done() {
		h.rounds++
		if h.rounds > 100 {
			t.Fatalf("no progress after %d rounds", h.rounds)
		}

		switch res.Status {
		case StatusStuckOnImport:
			var answers []ModuleSource

			for _, r := range res.Imports() {
				h.imports = append(h.imports, r)

				a := ModuleSource{Module: r.Module}
				if src, ok := h.modules[r.Module]; ok {
					a.Source = ptr(src)
				}

				answers = append(answers, a)
			}

			res, err = ContinueAfter(st, answers)

		case StatusStuckOnProcessor:
			var answers []ProcessorResult

			for _, c := range res.Processors() {
				h.calls = append(h.calls, c)

				a := ProcessorResult{ID: c.ID}
				if msg, ok := h.failing[c.Processor]; ok {
					a.Err = msg
				} else if v, ok := h.processors[c.Processor]; ok {
					a.Value = ptr(v)
				}

				answers = append(answers, a)
			}

			res, err = ContinueAfter(st, answers)

		case StatusStuckOnForeignVariable:
			var answers []ForeignValue

			for _, r := range res.Foreign() {
				h.requests = append(h.requests, r)

				a := ForeignValue{Variable: r.Variable}
				if v, ok := h.foreign[r.Variable]; ok {
					a.Value = ptr(v)
				}

				answers = append(answers, a)
			}

			res, err = ContinueAfter(st, answers)
		}
	}

	if err != nil {
		t.Fatalf("run: %v", err)
	}

	return res.Output
}

func resolveDoc(t *testing.T, h *host, name, src string, opts ...Option) *Output {
	t.Helper()

	if h == nil {
		h = &host{}
	}

	return h.run(t, New(name, src, opts...))
}

func wantNoErrors(t *testing.T, out *Output) {
	t.Helper()

	if out.Diagnostics.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", out.Diagnostics.Errors())
	}
}

func wantDocument(t *testing.T, out *Output) *Compiled {
	t.Helper()

	if out.Document == nil {
		t.Fatalf("no compiled document; diagnostics: %v", out.Diagnostics)
	}

	return out.Document
}

func thing[T ir.Thing](t *testing.T, c *Compiled, name string) T {
	t.Helper()

	th, ok := c.Bag[name]
	if !ok {
		t.Fatalf("bag has no %s; have %v", name, keys(c.Bag))
	}

	v, ok := th.(T)
	if !ok {
		t.Fatalf("%s is %T", name, th)
	}

	return v
}

func property(t *testing.T, inv *ir.Invocation, name string) ir.Property {
	t.Helper()

	p, ok := inv.Property(name)
	if !ok {
		t.Fatalf("%s has no property %s; have %v", inv.Name, name, inv.Properties)
	}

	return p
}

func literal(t *testing.T, pv ir.PropertyValue) any {
	t.Helper()

	if pv.Value == nil {
		t.Fatalf("value %s is not a literal", pv)
	}

	return pv.Value.Data
}
