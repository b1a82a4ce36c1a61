package resolve

import (
	"errors"
	"maps"
	"slices"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/ardnew/ftdr/ast"
	"github.com/ardnew/ftdr/ir"
)

var (
	// errNeed aborts a unit that is waiting for a processor result or a
	// foreign variable; the need is recorded on the frame.
	errNeed = errors.New("waiting for input")
	// errReported aborts a unit or property whose diagnostic has been
	// recorded on the unit.
	errReported = errors.New("reported")
	// errNotFound means a name matches nothing visible from the document.
	errNotFound = errors.New("not found")
)

// blockedError aborts a unit that refers to a definition of the same
// document that is not resolved yet.
type blockedError struct{ on string }

func (e blockedError) Error() string { return "blocked on " + e.on }

// aborts reports whether err must stop the whole unit rather than a single
// property.
func aborts(err error) bool {
	var blocked blockedError

	return errors.Is(err, errNeed) || errors.As(err, &blocked)
}

// unit is one definition or content item being resolved. Its diagnostics
// are committed only if it completes, so re-running an interrupted unit
// does not repeat them.
type unit struct {
	st    *State
	f     *frame
	def   string
	self  *selfComponent
	diags Diagnostics
	depth int
}

type selfComponent struct {
	name string
	id   ir.ID
	args []ir.Field
}

func (st *State) unit(f *frame, def string) *unit {
	return &unit{st: st, f: f, def: def}
}

func (u *unit) doc() *ast.Document { return u.f.doc }

func (u *unit) commit() { u.st.diags = append(u.st.diags, u.diags...) }

// fail records a diagnostic and returns errReported.
func (u *unit) fail(d Diagnostic) error {
	d.Document = u.doc().Name
	u.diags = append(u.diags, d)

	return errReported
}

func (u *unit) warn(d Diagnostic) {
	d.Document = u.doc().Name
	d.Severity = SeverityWarning
	u.diags = append(u.diags, d)
}

func (u *unit) derived(symbol string, line int) error {
	return u.fail(Diagnostic{
		Code:    CodeUnresolvedSymbol,
		Line:    line,
		Message: "depends on failed symbol " + symbol,
		Symbol:  symbol,
		Derived: true,
	})
}

func (u *unit) unresolved(written string, line int) error {
	return u.fail(Diagnostic{
		Code:    CodeUnresolvedSymbol,
		Line:    line,
		Message: "cannot resolve " + written,
		Symbol:  u.guess(written),
		Hint:    suggest(written, u.candidates(written)),
	})
}

func (u *unit) mismatch(line int, symbol, msg string) error {
	return u.fail(Diagnostic{
		Code:    CodeKindMismatch,
		Line:    line,
		Message: msg,
		Symbol:  symbol,
	})
}

// guess returns the qualified name an unresolvable name would have had.
func (u *unit) guess(written string) string {
	if head, rest, ok := strings.Cut(written, "."); ok {
		if a, isAlias := u.f.aliases[head]; isAlias {
			return a.module + "#" + rest
		}

		return head + "#" + rest
	}

	return u.doc().Name + "#" + written
}

func (u *unit) candidates(written string) []string {
	if head, _, ok := strings.Cut(written, "."); ok {
		if a, isAlias := u.f.aliases[head]; isAlias {
			if m := u.st.modules[a.module]; m != nil {
				names := keys(m.defined)
				for i, n := range names {
					names[i] = head + "." + n
				}

				return names
			}
		}
	}

	names := slices.Clone(u.doc().Order)
	names = append(names, keys(u.f.exposed)...)
	names = append(names, keys(u.f.aliases)...)
	slices.Sort(names)

	return names
}

// symbol is a global name resolved to a Thing.
type symbol struct {
	name  string
	id    ir.ID
	thing ir.Thing
	rest  []string
}

// lookup resolves a name to a Thing visible from the document: exposed
// names, then alias-qualified names, then definitions of the document.
// A definition of the document that is not resolved yet blocks the unit,
// unless it is the definition being resolved.
func (u *unit) lookup(written string, line int) (symbol, error) {
	parts := strings.Split(written, ".")
	head := parts[0]

	if q, ok := u.f.exposed[head]; ok {
		return u.symbol(q, parts[1:], line)
	}

	if a, ok := u.f.aliases[head]; ok && len(parts) > 1 {
		if a.poisoned {
			return symbol{}, u.derived(a.module, line)
		}

		if a.imp != nil && !a.imp.Exported(parts[1]) {
			return symbol{}, u.fail(Diagnostic{
				Code:    CodeUnresolvedSymbol,
				Line:    line,
				Message: parts[1] + " is not exported through alias " + head,
				Symbol:  a.module + "#" + parts[1],
			})
		}

		return u.symbol(a.module+"#"+parts[1], parts[2:], line)
	}

	if _, ok := u.doc().Definitions[head]; ok {
		q := qualify(u.doc().Name, head)

		switch {
		case u.f.failed[head]:
			return symbol{}, u.derived(q, line)

		case u.f.defined[head] != 0:
			return u.symbol(q, parts[1:], line)

		case head == u.def:
			return symbol{name: q, id: u.st.bag.Intern(q), rest: parts[1:]}, nil

		case u.f.phase == phaseDefinitions:
			return symbol{}, blockedError{on: head}

		default:
			return symbol{}, u.derived(q, line)
		}
	}

	return symbol{}, errNotFound
}

// symbol looks up a qualified name in the bag, following exports.
func (u *unit) symbol(q string, rest []string, line int) (symbol, error) {
	for range 16 {
		thing, ok := u.st.bag.Lookup(q)
		if !ok {
			break
		}

		if e, isExport := thing.(*ir.Export); isExport {
			q = e.TargetName

			continue
		}

		id, _ := u.st.bag.ID(q)

		return symbol{name: q, id: id, thing: thing, rest: rest}, nil
	}

	module, local, _ := strings.Cut(q, "#")
	if m := u.st.modules[module]; m != nil {
		if m.failed[local] {
			return symbol{}, u.derived(q, line)
		}

		return symbol{}, u.fail(Diagnostic{
			Code:    CodeUnresolvedSymbol,
			Line:    line,
			Message: "module " + module + " does not define " + local,
			Symbol:  q,
			Hint:    suggest(local, keys(m.defined)),
		})
	}

	return symbol{}, u.fail(Diagnostic{
		Code:    CodeUnresolvedSymbol,
		Line:    line,
		Message: "cannot resolve " + q,
		Symbol:  q,
	})
}

// kind resolves the named kinds inside k. Named kinds are bound to interned
// IDs without waiting for their definitions, so recursive types resolve.
func (u *unit) kind(k ir.Kind, line int) (ir.Kind, error) {
	switch k.Tag {
	case ir.TagList, ir.TagOptional, ir.TagConstant:
		elem, err := u.kind(*k.Elem, line)
		k.Elem = &elem

		return k, err

	case ir.TagNamed:
		return u.namedKind(k.Name, line)

	default:
		return k, nil
	}
}

func (u *unit) namedKind(written string, line int) (ir.Kind, error) {
	parts := strings.Split(written, ".")
	head := parts[0]
	doc := u.doc()

	if def, ok := doc.Definitions[head]; ok {
		q := qualify(doc.Name, head)

		if u.f.failed[head] {
			return ir.Kind{}, u.derived(q, line)
		}

		switch {
		case def.Kind == ast.DefRecord && len(parts) == 1:
			return ir.Kind{Tag: ir.TagRecord, Ref: u.st.bag.Intern(q), Name: q}, nil

		case def.Kind == ast.DefOrType && len(parts) == 1:
			return ir.Kind{Tag: ir.TagOrType, Ref: u.st.bag.Intern(q), Name: q}, nil

		case def.Kind == ast.DefOrType && len(parts) == 2:
			for _, c := range def.Section.Children {
				if c.Name == parts[1] {
					vq := q + "." + parts[1]

					return ir.Kind{Tag: ir.TagVariant, Ref: u.st.bag.Intern(vq), Name: vq}, nil
				}
			}

			return ir.Kind{}, u.fail(Diagnostic{
				Code:    CodeUnresolvedSymbol,
				Line:    line,
				Message: "or-type " + head + " has no variant " + parts[1],
				Symbol:  q + "." + parts[1],
			})

		default:
			return ir.Kind{}, u.mismatch(line, q, written+" is a "+def.Kind.String()+", not a kind")
		}
	}

	var q string

	if exposed, ok := u.f.exposed[head]; ok {
		q = strings.Join(append([]string{exposed}, parts[1:]...), ".")
	} else if a, ok := u.f.aliases[head]; ok && len(parts) > 1 {
		if a.poisoned {
			return ir.Kind{}, u.derived(a.module, line)
		}

		q = a.module + "#" + strings.Join(parts[1:], ".")
	} else {
		return ir.Kind{}, u.unresolved(written, line)
	}

	sym, err := u.symbol(q, nil, line)
	if err != nil {
		return ir.Kind{}, err
	}

	switch sym.thing.(type) {
	case *ir.Record:
		return ir.Kind{Tag: ir.TagRecord, Ref: sym.id, Name: sym.name}, nil
	case *ir.OrType:
		return ir.Kind{Tag: ir.TagOrType, Ref: sym.id, Name: sym.name}, nil
	case *ir.OrTypeVariant:
		return ir.Kind{Tag: ir.TagVariant, Ref: sym.id, Name: sym.name}, nil
	default:
		return ir.Kind{}, u.mismatch(line, sym.name, written+" is a "+sym.thing.ThingKind().String()+", not a kind")
	}
}

// recordFields returns the fields of a record or variant kind. A record of
// the same document that is not resolved yet blocks the unit.
func (u *unit) recordFields(k ir.Kind, line int) ([]ir.Field, error) {
	if thing, ok := u.st.bag.Thing(k.Ref); ok {
		switch t := thing.(type) {
		case *ir.Record:
			return t.Fields, nil
		case *ir.OrTypeVariant:
			return t.Fields, nil
		}
	}

	if module, local, _ := strings.Cut(k.Name, "#"); module == u.doc().Name {
		local, _, _ = strings.Cut(local, ".")

		if u.f.failed[local] {
			return nil, u.derived(qualify(module, local), line)
		}

		if u.f.phase == phaseDefinitions && local != u.def {
			return nil, blockedError{on: local}
		}
	}

	return nil, u.mismatch(line, k.Name, k.String()+" has no fields")
}

// fieldKind returns the kind of member field of a value of kind base.
func (u *unit) fieldKind(base ir.Kind, field string, line int) (ir.Kind, error) {
	b := base.Base()
	if b.Tag == ir.TagOptional {
		b = b.Elem.Base()
	}

	if b.Tag != ir.TagRecord && b.Tag != ir.TagVariant {
		return ir.Kind{}, u.mismatch(line, "", "cannot access "+field+" of "+base.String())
	}

	fields, err := u.recordFields(b, line)
	if err != nil {
		return ir.Kind{}, err
	}

	f, ok := ir.FindField(fields, field)
	if !ok {
		return ir.Kind{}, u.fail(Diagnostic{
			Code:    CodeUnresolvedSymbol,
			Line:    line,
			Message: b.Name + " has no field " + field,
			Symbol:  b.Name + "." + field,
			Hint:    suggest(field, fieldNames(fields)),
		})
	}

	return f.Kind.Kind, nil
}

// scope is the chain of local names: component arguments and loop aliases.
type scope struct {
	parent *scope
	name   string
	kind   ir.Kind
	args   []ir.Field
}

func (sc *scope) with(name string, kind ir.Kind) *scope {
	return &scope{parent: sc, name: name, kind: kind}
}

func (sc *scope) withArgs(name string, args []ir.Field) *scope {
	sc = &scope{parent: sc, name: name, args: args}

	for _, a := range args {
		sc = sc.with(a.Name, a.Kind.Kind)
	}

	return sc
}

func (sc *scope) lookup(name string) (*scope, bool) {
	for s := sc; s != nil; s = s.parent {
		if s.name == name {
			return s, true
		}
	}

	return nil, false
}

func suggest(name string, candidates []string) string {
	matches := fuzzy.Find(name, candidates)
	if len(matches) == 0 || matches[0].Str == name {
		return ""
	}

	return "did you mean " + matches[0].Str + "?"
}

func keys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}

func fieldNames(fields []ir.Field) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}

	return names
}
