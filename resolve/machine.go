package resolve

import (
	"log/slog"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/ftdr/ast"
	"github.com/ardnew/ftdr/cont"
	"github.com/ardnew/ftdr/eval"
	"github.com/ardnew/ftdr/ir"
)

type (
	importNeed    = cont.Pending[ImportRequest, ModuleSource]
	processorNeed = cont.Pending[ProcessorCall, ProcessorResult]
	foreignNeed   = cont.Pending[ForeignRequest, ForeignValue]
)

// Continue advances st until it is done or needs input. Calling Continue on
// a state that is waiting for answers returns the same suspension again.
func Continue(st *State) (Result, error) {
	if st.finished {
		return Result{}, ErrStaleState
	}

	if st.pending != nil {
		return st.stuck(), nil
	}

	for len(st.stack) > 0 {
		f := st.stack[len(st.stack)-1]

		need, err := st.step(f)
		if err != nil {
			return Result{}, err
		}

		if need != nil {
			st.pending = need
			res := st.stuck()

			st.logger.Trace("suspend",
				slog.String("document", f.doc.Name),
				slog.String("status", res.Status.String()))

			return res, nil
		}
	}

	st.finished = true

	return Result{
		Status: StatusDone,
		State:  st,
		Output: &Output{Document: st.compiled, Diagnostics: st.diags},
	}, nil
}

// ContinueAfter supplies the answers to the requests of the last
// suspension and continues. The answers must match the requests one to one
// by key; otherwise [cont.ErrShapeMismatch] is returned and the state is
// left unchanged.
func ContinueAfter[A cont.Keyed](st *State, answers []A) (Result, error) {
	if st.finished {
		return Result{}, ErrStaleState
	}

	if st.pending == nil {
		return Result{}, ErrNoPendingNeed
	}

	supplier, ok := st.pending.(cont.Supplier[A])
	if !ok {
		return Result{}, cont.ErrShapeMismatch.With(
			slog.String("status", st.stuck().Status.String()),
		)
	}

	if err := supplier.Supply(answers); err != nil {
		return Result{}, err
	}

	st.pending = nil

	st.logger.Trace("resume", slog.Int("answers", len(answers)))

	return Continue(st)
}

func (st *State) stuck() Result {
	res := Result{State: st}

	switch st.pending.(type) {
	case *importNeed:
		res.Status = StatusStuckOnImport
	case *processorNeed:
		res.Status = StatusStuckOnProcessor
	case *foreignNeed:
		res.Status = StatusStuckOnForeignVariable
	}

	return res
}

// step advances the top frame by one phase transition, returning a
// suspension if the frame cannot proceed without input.
func (st *State) step(f *frame) (any, error) {
	switch f.phase {
	case phaseImports:
		return st.imports(f)

	case phaseDefinitions:
		return st.definitions(f), nil

	case phaseContent:
		return st.content(f), nil

	case phaseDone:
		if st.stack[len(st.stack)-1] != f {
			return nil, ErrStackCorrupt.With(slog.String("document", f.doc.Name))
		}

		st.pop()

		return nil, nil

	default:
		return nil, ErrStackCorrupt.With(slog.String("document", f.doc.Name))
	}
}

// suspend turns the needs collected by a phase into a suspension. Processor
// calls are raised before foreign variables; needs not raised now are
// rediscovered when the waiting units run again.
func (st *State) suspend(f *frame) any {
	n := f.needs
	f.needs = needs{}
	f.stalled = 0

	switch {
	case len(n.processors) > 0:
		return cont.New(n.processors, func(answers map[string]ProcessorResult) error {
			for id, a := range answers {
				st.processed[id] = decodeProcessor(a)
			}

			return nil
		})

	case len(n.foreign) > 0:
		return cont.New(n.foreign, func(answers map[string]ForeignValue) error {
			for name, a := range answers {
				st.foreign[name] = decodeForeign(a.Value)
			}

			return nil
		})

	default:
		return nil
	}
}

func (st *State) importNeed(requests []ImportRequest) any {
	return cont.New(requests, func(answers map[string]ModuleSource) error {
		for module, a := range answers {
			if a.Source == nil {
				st.missing[module] = true

				continue
			}

			st.sources[module] = st.cache.Parse(module, *a.Source)
		}

		return nil
	})
}

func decodeProcessor(a ProcessorResult) processorOutcome {
	if a.Err != "" {
		return processorOutcome{err: a.Err}
	}

	if a.Value == nil {
		return processorOutcome{err: "processor returned no value"}
	}

	var native any
	if err := yaml.Unmarshal([]byte(*a.Value), &native); err != nil {
		return processorOutcome{err: err.Error()}
	}

	v, err := eval.FromNative(native)
	if err != nil {
		return processorOutcome{err: err.Error()}
	}

	return processorOutcome{value: &v}
}

// decodeForeign returns nil for a missing value. A value that is not
// valid YAML is taken as a plain string.
func decodeForeign(src *string) *ir.Value {
	if src == nil {
		return nil
	}

	var native any
	if err := yaml.Unmarshal([]byte(*src), &native); err != nil {
		v := ir.StringValue(*src)

		return &v
	}

	v, err := eval.FromNative(native)
	if err != nil {
		v = ir.StringValue(*src)
	}

	return &v
}

type phase uint8

const (
	phaseImports phase = iota
	phaseDefinitions
	phaseContent
	phaseDone
)

// frame is one document being resolved.
type frame struct {
	doc   *ast.Document
	phase phase

	cursor  int
	aliases map[string]*alias
	exposed map[string]string

	queue   []string
	stalled int
	waits   map[string]string
	defined map[string]ir.ID
	failed  map[string]bool

	content  []*ir.Invocation
	resolved []bool
	needs    needs
}

type alias struct {
	module   string
	imp      *ast.Import
	poisoned bool
}

type needs struct {
	processors []ProcessorCall
	foreign    []ForeignRequest
}

func (n *needs) empty() bool { return len(n.processors) == 0 && len(n.foreign) == 0 }

func (n *needs) processor(call ProcessorCall) {
	for _, c := range n.processors {
		if c.ID == call.ID {
			return
		}
	}

	n.processors = append(n.processors, call)
}

func (n *needs) variable(req ForeignRequest) {
	for _, r := range n.foreign {
		if r.Variable == req.Variable {
			return
		}
	}

	n.foreign = append(n.foreign, req)
}

func newFrame(doc *ast.Document) *frame {
	return &frame{
		doc:      doc,
		aliases:  map[string]*alias{builtinModule: {module: builtinModule}},
		exposed:  make(map[string]string),
		waits:    make(map[string]string),
		defined:  make(map[string]ir.ID),
		failed:   make(map[string]bool),
		content:  make([]*ir.Invocation, len(doc.Content)),
		resolved: make([]bool, len(doc.Content)),
	}
}
