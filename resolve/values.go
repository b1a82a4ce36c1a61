package resolve

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/ardnew/ftdr/ast"
	"github.com/ardnew/ftdr/eval"
	"github.com/ardnew/ftdr/ir"
)

const maxDepth = 32

// value resolves a header, caption or body text against the expected kind:
// a "$name" reference, a "{ expression }", or a literal.
func (u *unit) value(text string, want ir.KindData, sc *scope, line int) (ir.PropertyValue, error) {
	text = strings.TrimSpace(text)

	switch {
	case isReference(text):
		ref, err := u.reference(text[1:], sc, line)
		if err != nil {
			return ir.PropertyValue{}, err
		}

		if !ir.Compatible(ref.Kind, want.Kind, u.st.bag) {
			return ir.PropertyValue{}, u.mismatch(line, ref.Symbol,
				"$"+ref.Name+" is "+ref.Kind.String()+", expected "+want.Kind.String())
		}

		return ir.PropertyValue{Ref: &ref, Line: line}, nil

	case strings.HasPrefix(text, "{") && strings.HasSuffix(text, "}"):
		return u.expression(text, want.Kind, sc, line)

	default:
		return u.literal(text, want.Kind, line)
	}
}

func isReference(text string) bool {
	if len(text) < 2 || text[0] != '$' {
		return false
	}

	for _, r := range text[1:] {
		if r == ' ' || r == '\t' || r == '{' || r == '}' || r == '(' || r == ')' {
			return false
		}
	}

	return true
}

func (u *unit) literal(text string, want ir.Kind, line int) (ir.PropertyValue, error) {
	if !want.IsPrimitive() && want.Base().Tag != ir.TagOptional {
		return ir.PropertyValue{}, u.mismatch(line, "", "a "+want.String()+" cannot be written as text")
	}

	v, err := ir.ParseLiteral(want, text)
	if err != nil {
		return ir.PropertyValue{}, u.mismatch(line, "", "invalid "+want.String()+" "+quote(text))
	}

	return ir.Literal(v, line), nil
}

// reference resolves a name used as a value.
func (u *unit) reference(name string, sc *scope, line int) (ir.Reference, error) {
	parts := strings.Split(name, ".")

	if local, ok := sc.lookup(parts[0]); ok {
		return u.localReference(name, local, parts[1:], line)
	}

	sym, err := u.lookup(name, line)
	if err != nil {
		if err == errNotFound {
			return ir.Reference{}, u.unresolved(name, line)
		}

		return ir.Reference{}, err
	}

	if sym.thing == nil {
		return ir.Reference{}, u.selfCycle(sym.name, line)
	}

	ref := ir.Reference{Name: name, Target: sym.id, Symbol: sym.name, Fields: sym.rest}

	switch t := sym.thing.(type) {
	case *ir.Variable:
		ref.Kind = t.Kind.Kind
	case *ir.Component, *ir.WebComponent:
		ref.Kind = ir.Primitive(ir.TagUI)
	case *ir.Function:
		ref.Kind = t.ReturnKind.Kind
	default:
		return ir.Reference{}, u.mismatch(line, sym.name,
			name+" is a "+sym.thing.ThingKind().String()+", not a value")
	}

	for _, field := range sym.rest {
		ref.Kind, err = u.fieldKind(ref.Kind, field, line)
		if err != nil {
			return ir.Reference{}, err
		}
	}

	return ref, nil
}

func (u *unit) localReference(name string, local *scope, rest []string, line int) (ir.Reference, error) {
	ref := ir.Reference{Name: name, Local: name, Kind: local.kind}

	if local.args != nil {
		if len(rest) == 0 {
			return ir.Reference{}, u.mismatch(line, "", name+" is a component, not a value")
		}

		arg, ok := ir.FindField(local.args, rest[0])
		if !ok {
			return ir.Reference{}, u.fail(Diagnostic{
				Code:    CodeUnresolvedSymbol,
				Line:    line,
				Message: local.name + " has no argument " + rest[0],
				Symbol:  qualify(u.doc().Name, local.name) + "." + rest[0],
				Hint:    suggest(rest[0], fieldNames(local.args)),
			})
		}

		ref.Kind = arg.Kind.Kind
		rest = rest[1:]
	}

	for _, field := range rest {
		var err error

		ref.Kind, err = u.fieldKind(ref.Kind, field, line)
		if err != nil {
			return ir.Reference{}, err
		}
	}

	return ref, nil
}

func (u *unit) selfCycle(q string, line int) error {
	return u.fail(Diagnostic{
		Code:    CodeCyclicDependency,
		Line:    line,
		Message: "dependency cycle " + u.def + " -> " + u.def,
		Symbol:  q,
	})
}

// expression resolves the references of an expression. When every
// reference has a value known now, the expression is evaluated; otherwise
// it is kept for runtime. Names that match nothing are requested from the
// host as foreign variables.
func (u *unit) expression(src string, want ir.Kind, sc *scope, line int) (ir.PropertyValue, error) {
	e, err := eval.Parse(src, eval.WithFunctions(u.userFunction))
	if err != nil {
		return ir.PropertyValue{}, u.evalFailed(err, src, line)
	}

	var (
		values  = make(map[string]ir.Value)
		refs    []ir.Reference
		dynamic bool
		waiting bool
	)

	for _, name := range e.Refs() {
		head, _, _ := strings.Cut(name, ".")

		if _, ok := sc.lookup(head); ok {
			ref, err := u.reference(name, sc, line)
			if err != nil {
				return ir.PropertyValue{}, err
			}

			refs = append(refs, ref)
			dynamic = true

			continue
		}

		_, err := u.lookup(name, line)
		if err == errNotFound {
			v, known := u.st.foreign[name]

			switch {
			case !known:
				u.f.needs.variable(ForeignRequest{Variable: name, Document: u.doc().Name, Line: line})
				waiting = true
			case v == nil:
				return ir.PropertyValue{}, u.fail(Diagnostic{
					Code:    CodeForeignVariableMissing,
					Line:    line,
					Message: "host does not provide " + name,
					Symbol:  name,
				})
			default:
				values[name] = *v
				refs = append(refs, ir.Reference{Name: name, Kind: v.Kind})
			}

			continue
		}

		if err != nil {
			return ir.PropertyValue{}, err
		}

		ref, err := u.reference(name, sc, line)
		if err != nil {
			return ir.PropertyValue{}, err
		}

		refs = append(refs, ref)

		if v, ok := u.static(ref, 0); ok {
			values[name] = v
		} else {
			dynamic = true
		}
	}

	if waiting {
		return ir.PropertyValue{}, errNeed
	}

	funcs := make(eval.Functions)

	for _, name := range e.Calls() {
		ref, fn, err := u.functionRef(name, line)
		if err != nil {
			return ir.PropertyValue{}, err
		}

		refs = append(refs, ref)
		funcs[name] = u.callable(fn)
	}

	if dynamic {
		return ir.PropertyValue{
			Eval: &ir.Evaluation{Source: e.Source(), Refs: refs, Kind: want},
			Line: line,
		}, nil
	}

	v, err := e.Evaluate(values, funcs)
	if err != nil {
		return ir.PropertyValue{}, u.evalFailed(err, src, line)
	}

	if want.Tag != ir.TagVoid {
		if !ir.Compatible(v.Kind, want, u.st.bag) {
			return ir.PropertyValue{}, u.mismatch(line, "",
				quote(e.Source())+" is "+v.Kind.String()+", expected "+want.String())
		}

		v = coerce(v, want)
	}

	return ir.Literal(v, line), nil
}

// condition resolves a condition. A condition whose value is known now is
// returned as static; otherwise the retained evaluation is returned.
func (u *unit) condition(src string, sc *scope, line int) (bool, bool, *ir.Evaluation, error) {
	pv, err := u.expression(src, ir.Primitive(ir.TagBoolean), sc, line)
	if err != nil {
		return false, false, nil, err
	}

	if pv.Eval != nil {
		return false, false, pv.Eval, nil
	}

	b, _ := pv.Value.Data.(bool)

	return true, b, nil, nil
}

func (u *unit) evalFailed(err error, src string, line int) error {
	msg := err.Error()

	var e *ir.Error
	if errors.As(err, &e) {
		for _, a := range e.Attrs() {
			if a.Key == "reference" || a.Key == "function" {
				msg += " " + a.Value.String()
			}
		}
	}

	return u.fail(Diagnostic{
		Code:    CodeExpressionEvaluation,
		Line:    line,
		Message: msg + " in " + quote(src),
	})
}

// static returns the value of a reference when it is known without
// runtime scope.
func (u *unit) static(ref ir.Reference, depth int) (ir.Value, bool) {
	if ref.Local != "" || depth > maxDepth {
		return ir.Value{}, false
	}

	thing, ok := u.st.bag.Thing(ref.Target)
	if !ok {
		return ir.Value{}, false
	}

	v, ok := thing.(*ir.Variable)
	if !ok {
		return ir.Value{}, false
	}

	val, ok := u.staticProperty(v.Value, depth+1)
	if !ok {
		return ir.Value{}, false
	}

	for _, field := range ref.Fields {
		rec, isRecord := val.Data.(*ir.RecordValue)
		if !isRecord {
			return ir.Value{}, false
		}

		pv, found := rec.Field(field)
		if !found {
			return ir.Value{}, false
		}

		if val, ok = u.staticProperty(pv, depth+1); !ok {
			return ir.Value{}, false
		}
	}

	if _, ok := val.Native(); !ok {
		return ir.Value{}, false
	}

	return val, true
}

func (u *unit) staticProperty(pv ir.PropertyValue, depth int) (ir.Value, bool) {
	switch {
	case pv.Value != nil:
		return *pv.Value, true
	case pv.Ref != nil:
		return u.static(*pv.Ref, depth)
	default:
		return ir.Value{}, false
	}
}

func (u *unit) functionRef(name string, line int) (ir.Reference, *ir.Function, error) {
	sym, err := u.lookup(name, line)
	if err == errNotFound {
		return ir.Reference{}, nil, u.unresolved(name, line)
	}

	if err != nil {
		return ir.Reference{}, nil, err
	}

	fn, ok := sym.thing.(*ir.Function)
	if !ok {
		return ir.Reference{}, nil, u.mismatch(line, sym.name, name+" is not a function")
	}

	return ir.Reference{Name: name, Target: sym.id, Symbol: sym.name, Kind: fn.ReturnKind.Kind}, fn, nil
}

// callable exposes a user function to expressions.
func (u *unit) callable(fn *ir.Function) eval.Func {
	return func(args []ir.Value) (ir.Value, error) {
		if len(args) != len(fn.Arguments) {
			return ir.Value{}, eval.ErrArity.With(
				slog.String("function", fn.Name),
				slog.Int("want", len(fn.Arguments)),
				slog.Int("have", len(args)),
			)
		}

		if u.depth >= maxDepth {
			return ir.Value{}, eval.ErrTypeMismatch.With(
				slog.String("function", fn.Name),
				slog.String("reason", "call depth exceeded"),
			)
		}

		u.depth++
		defer func() { u.depth-- }()

		e, err := u.st.compiledFunction(fn)
		if err != nil {
			return ir.Value{}, err
		}

		values := make(map[string]ir.Value, len(args)+len(fn.Refs))
		funcs := make(eval.Functions)

		for i, arg := range fn.Arguments {
			want := arg.Kind.Kind
			if !ir.Compatible(args[i].Kind, want, u.st.bag) {
				return ir.Value{}, eval.ErrTypeMismatch.With(
					slog.String("function", fn.Name),
					slog.String("argument", arg.Name),
				)
			}

			values[arg.Name] = coerce(args[i], want)
		}

		for _, ref := range fn.Refs {
			thing, _ := u.st.bag.Thing(ref.Target)
			if callee, ok := thing.(*ir.Function); ok {
				funcs[ref.Name] = u.callable(callee)

				continue
			}

			v, ok := u.static(ref, 0)
			if !ok {
				return ir.Value{}, eval.ErrUnresolvedReference.With(slog.String("reference", ref.Name))
			}

			values[ref.Name] = v
		}

		out, err := e.Evaluate(values, funcs)
		if err != nil {
			return ir.Value{}, err
		}

		want := fn.ReturnKind.Kind
		if !ir.Compatible(out.Kind, want, u.st.bag) {
			return ir.Value{}, eval.ErrTypeMismatch.With(
				slog.String("function", fn.Name),
				slog.String("result", out.Kind.String()),
			)
		}

		return coerce(out, want), nil
	}
}

// compiledFunc caches the parsed body of a function.
type compiledFunc struct {
	expr *eval.Expression
	err  error
}

func (st *State) compiledFunction(fn *ir.Function) (*eval.Expression, error) {
	id, _ := st.bag.ID(fn.Name)

	c, ok := st.funcs[id]
	if !ok {
		e, err := eval.Parse(fn.Expression, eval.WithFunctions(func(name string) bool {
			return calls(st.bag, fn, name)
		}))
		c = &compiledFunc{expr: e, err: err}
		st.funcs[id] = c
	}

	return c.expr, c.err
}

// userFunction reports whether a bare name called in an expression is a
// function of the document or one exposed by an import. Such names take
// precedence over expression builtins of the same name.
func (u *unit) userFunction(name string) bool {
	if def, ok := u.doc().Definitions[name]; ok {
		return def.Kind == ast.DefFunction
	}

	q, ok := u.f.exposed[name]
	if !ok {
		return false
	}

	for range 16 {
		thing, found := u.st.bag.Lookup(q)
		if !found {
			return false
		}

		e, isExport := thing.(*ir.Export)
		if !isExport {
			_, isFunc := thing.(*ir.Function)

			return isFunc
		}

		q = e.TargetName
	}

	return false
}

// calls reports whether fn binds name to a function.
func calls(bag *ir.Bag, fn *ir.Function, name string) bool {
	for _, ref := range fn.Refs {
		if ref.Name != name {
			continue
		}

		thing, _ := bag.Thing(ref.Target)
		if _, isFunc := thing.(*ir.Function); isFunc {
			return true
		}
	}

	return false
}

// coerce widens integers where decimals are expected and labels the value
// with the expected kind.
func coerce(v ir.Value, want ir.Kind) ir.Value {
	b := want.Base()
	if b.Tag == ir.TagOptional {
		if v.Data == nil {
			return ir.VoidValue(want)
		}

		b = b.Elem.Base()
	}

	if i, ok := v.Data.(int64); ok && b.Tag == ir.TagDecimal {
		return ir.Value{Kind: want, Data: float64(i)}
	}

	if b.IsPrimitive() {
		v.Kind = want
	}

	return v
}

// convert shapes a decoded processor or host value into the expected kind.
func (u *unit) convert(v ir.Value, want ir.Kind, line int) (ir.Value, error) {
	b := want.Base()

	switch b.Tag {
	case ir.TagOptional:
		if v.Data == nil {
			return ir.VoidValue(want), nil
		}

		out, err := u.convert(v, *b.Elem, line)
		out.Kind = want

		return out, err

	case ir.TagString:
		if _, isList := v.Data.([]ir.PropertyValue); isList {
			break
		}

		if _, isRecord := v.Data.(*ir.RecordValue); isRecord || v.Data == nil {
			break
		}

		return ir.Value{Kind: want, Data: v.String()}, nil

	case ir.TagList:
		items, ok := v.Data.([]ir.PropertyValue)
		if !ok {
			break
		}

		out := make([]ir.PropertyValue, 0, len(items))

		for _, item := range items {
			ev, err := u.convert(*item.Value, *b.Elem, line)
			if err != nil {
				return ir.Value{}, err
			}

			out = append(out, ir.Literal(ev, line))
		}

		return ir.Value{Kind: want, Data: out}, nil

	case ir.TagRecord, ir.TagVariant:
		rec, ok := v.Data.(*ir.RecordValue)
		if !ok {
			break
		}

		fields, err := u.recordFields(b, line)
		if err != nil {
			return ir.Value{}, err
		}

		out := &ir.RecordValue{}

		for _, f := range fields {
			pv, found := rec.Field(f.Name)

			switch {
			case found:
				fv, err := u.convert(*pv.Value, f.Kind.Kind, line)
				if err != nil {
					return ir.Value{}, err
				}

				out.Fields = append(out.Fields, ir.FieldValue{Name: f.Name, Value: ir.Literal(fv, line)})

			case f.Default != nil:
				out.Fields = append(out.Fields, ir.FieldValue{Name: f.Name, Value: *f.Default})

			case !f.Required():
				out.Fields = append(out.Fields, ir.FieldValue{Name: f.Name, Value: ir.Literal(emptyValue(f.Kind.Kind), line)})

			default:
				return ir.Value{}, u.mismatch(line, b.Name, "value has no field "+f.Name)
			}
		}

		return ir.Value{Kind: want, Data: out}, nil

	default:
		if ir.Compatible(v.Kind, want, u.st.bag) {
			return coerce(v, want), nil
		}
	}

	return ir.Value{}, u.mismatch(line, "", "value "+quote(v.String())+" is not "+want.String())
}

// emptyValue is the value of an omitted optional or list field.
func emptyValue(k ir.Kind) ir.Value {
	if k.Base().Tag == ir.TagList {
		return ir.Value{Kind: k, Data: []ir.PropertyValue{}}
	}

	return ir.VoidValue(k)
}

func quote(s string) string { return `"` + s + `"` }
