package resolve

import (
	"log/slog"

	"github.com/ardnew/ftdr/ast"
	"github.com/ardnew/ftdr/ir"
	"github.com/ardnew/ftdr/log"
)

// Predefined errors (sentinel values). They indicate a driver bug and end
// the run.
var (
	ErrStaleState    = ir.NewError("state already finished")
	ErrNoPendingNeed = ir.NewError("state is not waiting for input")
	ErrStackCorrupt  = ir.NewError("document stack corrupt")
)

// Status is the outcome of one call to [Continue] or [ContinueAfter].
type Status uint8

const (
	StatusDone Status = iota
	StatusStuckOnImport
	StatusStuckOnProcessor
	StatusStuckOnForeignVariable
)

var statusNames = [...]string{
	StatusDone:                   "done",
	StatusStuckOnImport:          "stuck on import",
	StatusStuckOnProcessor:       "stuck on processor",
	StatusStuckOnForeignVariable: "stuck on foreign variable",
}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}

	return "unknown"
}

// Result is either done with an Output, or stuck with a State that expects
// the answers to the requests it lists.
type Result struct {
	Status Status
	State  *State
	Output *Output
}

// Done reports whether resolution finished.
func (r Result) Done() bool { return r.Status == StatusDone }

// pending is nil for results returned with an error, which carry no State.
func (r Result) pending() any {
	if r.State == nil {
		return nil
	}

	return r.State.pending
}

// Imports returns the outstanding module requests.
func (r Result) Imports() []ImportRequest {
	if p, ok := r.pending().(*importNeed); ok {
		return p.Requests()
	}

	return nil
}

// Processors returns the outstanding processor calls.
func (r Result) Processors() []ProcessorCall {
	if p, ok := r.pending().(*processorNeed); ok {
		return p.Requests()
	}

	return nil
}

// Foreign returns the outstanding foreign variable requests.
func (r Result) Foreign() []ForeignRequest {
	if p, ok := r.pending().(*foreignNeed); ok {
		return p.Requests()
	}

	return nil
}

// Output is the final product of a run.
type Output struct {
	// Document is nil when the root document was abandoned.
	Document    *Compiled
	Diagnostics Diagnostics
}

// Compiled is a resolved document.
type Compiled struct {
	Name string
	Doc  string `yaml:",omitempty" json:",omitempty"`
	// Bag holds the Things the document defines or uses, by qualified name.
	Bag     map[string]ir.Thing
	Content []*ir.Invocation
}

// Option configures a [State].
type Option func(*State)

// WithLogger sets the logger for trace events.
func WithLogger(logger log.Logger) Option {
	return func(st *State) { st.logger = logger }
}

// WithSource makes the source of a module available up front, so that
// importing it does not suspend.
func WithSource(module, source string) Option {
	return func(st *State) { st.preload[module] = source }
}

// WithCache shares a parse cache between runs.
func WithCache(cache *ast.Cache) Option {
	return func(st *State) { st.cache = cache }
}

// State is the resumable state of one run: the document stack, the Bag,
// and the answers received so far. It is not safe for concurrent use.
type State struct {
	root    string
	bag     *ir.Bag
	cache   *ast.Cache
	logger  log.Logger
	preload map[string]string

	stack     []*frame
	sources   map[string]*ast.Document
	missing   map[string]bool
	modules   map[string]*module
	abandoned map[string]bool

	foreign   map[string]*ir.Value
	processed map[string]processorOutcome
	funcs     map[ir.ID]*compiledFunc

	pending  any
	diags    Diagnostics
	compiled *Compiled
	finished bool
}

type processorOutcome struct {
	value *ir.Value
	err   string
}

// module is a document whose resolution has completed.
type module struct {
	name    string
	defined map[string]ir.ID
	failed  map[string]bool
}

// New returns the initial state for resolving the root document.
func New(name, source string, opts ...Option) *State {
	st := &State{
		root:      name,
		bag:       ir.NewBag(),
		preload:   make(map[string]string),
		sources:   make(map[string]*ast.Document),
		missing:   make(map[string]bool),
		modules:   make(map[string]*module),
		abandoned: make(map[string]bool),
		foreign:   make(map[string]*ir.Value),
		processed: make(map[string]processorOutcome),
		funcs:     make(map[ir.ID]*compiledFunc),
	}

	for _, opt := range opts {
		opt(st)
	}

	if st.cache == nil {
		st.cache = ast.NewCache()
	}

	for module, src := range st.preload {
		st.sources[module] = st.cache.Parse(module, src)
	}

	st.installBuiltins()
	st.push(st.cache.Parse(name, source))

	return st
}

// Bag returns the symbol table of the run.
func (st *State) Bag() *ir.Bag { return st.bag }

// Diagnostics returns the diagnostics committed so far.
func (st *State) Diagnostics() Diagnostics { return st.diags }

// Depth returns the number of documents on the stack.
func (st *State) Depth() int { return len(st.stack) }

func (st *State) push(doc *ast.Document) {
	f := newFrame(doc)
	st.stack = append(st.stack, f)

	for _, p := range doc.Errors {
		code := CodeSyntax
		if p.Kind == ast.ProblemDuplicate {
			code = CodeDuplicateDefinition
		}

		st.report(Diagnostic{
			Code:     code,
			Document: doc.Name,
			Line:     p.Line,
			Message:  p.Msg,
			Symbol:   qualify(doc.Name, p.Name),
		})
	}

	for _, p := range doc.Warnings {
		st.report(Diagnostic{
			Code:     CodeSyntax,
			Severity: SeverityWarning,
			Document: doc.Name,
			Line:     p.Line,
			Message:  p.Msg,
		})
	}

	st.logger.Trace("push document",
		slog.String("document", doc.Name),
		slog.Int("depth", len(st.stack)))
}

func (st *State) pop() {
	f := st.stack[len(st.stack)-1]
	st.stack = st.stack[:len(st.stack)-1]

	st.modules[f.doc.Name] = &module{
		name:    f.doc.Name,
		defined: f.defined,
		failed:  f.failed,
	}

	if len(st.stack) == 0 && f.doc.Name == st.root {
		st.compiled = st.compile(f)
	}

	st.logger.Trace("pop document",
		slog.String("document", f.doc.Name),
		slog.Int("depth", len(st.stack)))
}

func (st *State) report(d Diagnostic) {
	st.diags = append(st.diags, d)
}

func (st *State) onStack(name string) int {
	for i, f := range st.stack {
		if f.doc.Name == name {
			return i
		}
	}

	return -1
}

func qualify(doc, name string) string {
	if name == "" {
		return ""
	}

	return doc + "#" + name
}
