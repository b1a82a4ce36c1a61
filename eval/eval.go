package eval

import (
	"errors"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/ardnew/ftdr/ir"
)

// Func is a function callable from expressions.
type Func func(args []ir.Value) (ir.Value, error)

// Functions maps function names to implementations.
type Functions map[string]Func

// Expression is a compiled expression.
type Expression struct {
	source  string
	refs    []string
	calls   []string
	program *vm.Program
}

// Option configures [Parse].
type Option func(*options)

type options struct {
	user func(name string) bool
}

// WithFunctions reports which called names are user functions. A user
// function is routed through the [Functions] table even when it has the
// name of an expr-lang builtin such as "count" or "max".
func WithFunctions(user func(name string) bool) Option {
	return func(o *options) { o.user = user }
}

// Parse compiles source. A single pair of enclosing braces is removed, so
// conditions may be given as written in headers ("{ count > 3 }").
func Parse(source string, opts ...Option) (*Expression, error) {
	o := options{user: func(string) bool { return false }}
	for _, opt := range opts {
		opt(&o)
	}

	src := strings.TrimSpace(source)
	if strings.HasPrefix(src, "{") && strings.HasSuffix(src, "}") {
		src = strings.TrimSpace(src[1 : len(src)-1])
	}

	if src == "" {
		return nil, ErrSyntax.With(slog.String("expression", source))
	}

	s, err := rewrite(src, o.user)
	if err != nil {
		return nil, ErrSyntax.Wrap(err).With(slog.String("expression", source))
	}

	program, err := expr.Compile(s.out.String(),
		expr.Function(callInvoke, invoke),
		expr.Function(callDivide, divide),
		expr.Function(callModulus, modulus),
		expr.Patch(&divisionPatcher{}),
	)
	if err != nil {
		return nil, ErrSyntax.Wrap(err).With(slog.String("expression", source))
	}

	return &Expression{
		source:  src,
		refs:    s.refs,
		calls:   s.calls,
		program: program,
	}, nil
}

// Source returns the expression as written, without enclosing braces.
func (e *Expression) Source() string { return e.source }

// Refs returns the distinct references in order of first use, as written
// without a "$" prefix.
func (e *Expression) Refs() []string { return slices.Clone(e.refs) }

// Calls returns the distinct non-builtin functions called.
func (e *Expression) Calls() []string { return slices.Clone(e.calls) }

// Evaluate runs the expression with the given reference values. Every
// reference must have a value.
func (e *Expression) Evaluate(values map[string]ir.Value, funcs Functions) (ir.Value, error) {
	env := make(map[string]any, len(e.refs)+1)

	t := &table{funcs: funcs}
	env[envFuncs] = t

	for i, name := range e.refs {
		v, ok := values[name]
		if !ok {
			return ir.Value{}, ErrUnresolvedReference.With(
				slog.String("reference", name),
				slog.String("expression", e.source),
			)
		}

		native, ok := v.Native()
		if !ok {
			return ir.Value{}, ErrTypeMismatch.With(
				slog.String("reference", name),
				slog.String("reason", "value is not static"),
			)
		}

		env[refPrefix+strconv.Itoa(i)] = native
	}

	out, err := expr.Run(e.program, env)
	if err != nil {
		if t.err != nil {
			return ir.Value{}, t.err
		}

		return ir.Value{}, ErrTypeMismatch.Wrap(err).With(
			slog.String("expression", e.source),
		)
	}

	return FromNative(out)
}

// EvaluateCondition runs the expression and requires a boolean result.
func (e *Expression) EvaluateCondition(values map[string]ir.Value, funcs Functions) (bool, error) {
	v, err := e.Evaluate(values, funcs)
	if err != nil {
		return false, err
	}

	b, ok := v.Data.(bool)
	if !ok {
		return false, ErrTypeMismatch.With(
			slog.String("expression", e.source),
			slog.String("reason", "condition is not boolean"),
		)
	}

	return b, nil
}

// table is the per-evaluation function table. It keeps the first typed
// error raised by a call so that it can be returned instead of the
// wrapped runtime error.
type table struct {
	funcs Functions
	err   error
}

func (t *table) fail(err error) error {
	if t.err == nil {
		t.err = err
	}

	return err
}

func invoke(params ...any) (any, error) {
	t, name := params[0].(*table), params[1].(string)

	fn, ok := t.funcs[name]
	if !ok {
		return nil, t.fail(ErrUnknownFunction.With(slog.String("function", name)))
	}

	args := make([]ir.Value, 0, len(params)-2)

	for _, p := range params[2:] {
		v, err := FromNative(p)
		if err != nil {
			return nil, t.fail(err)
		}

		args = append(args, v)
	}

	v, err := fn(args)
	if err != nil {
		return nil, t.fail(err)
	}

	native, ok := v.Native()
	if !ok {
		return nil, t.fail(ErrTypeMismatch.With(slog.String("function", name)))
	}

	return native, nil
}

// FromNative converts an expr-lang result to a value.
func FromNative(x any) (ir.Value, error) {
	switch x := x.(type) {
	case nil:
		return ir.VoidValue(ir.Primitive(ir.TagVoid)), nil
	case bool:
		return ir.BooleanValue(x), nil
	case string:
		return ir.StringValue(x), nil
	case float32:
		return ir.DecimalValue(float64(x)), nil
	case float64:
		return ir.DecimalValue(x), nil
	case []any:
		return fromList(x)
	case []string:
		list := make([]any, len(x))
		for i, s := range x {
			list[i] = s
		}

		return fromList(list)
	case map[string]any:
		return fromMap(x)
	}

	if i, ok := toInt(x); ok {
		return ir.IntegerValue(i), nil
	}

	return ir.Value{}, ErrTypeMismatch.With(slog.String("reason", "unsupported value"))
}

func fromList(list []any) (ir.Value, error) {
	items := make([]ir.PropertyValue, 0, len(list))
	elem := ir.Primitive(ir.TagVoid)

	for i, x := range list {
		v, err := FromNative(x)
		if err != nil {
			return ir.Value{}, err
		}

		switch {
		case i == 0:
			elem = v.Kind
		case elem.Tag == ir.TagInteger && v.Kind.Tag == ir.TagDecimal:
			elem = v.Kind
		}

		items = append(items, ir.Literal(v, 0))
	}

	return ir.Value{Kind: ir.ListOf(elem), Data: items}, nil
}

func fromMap(m map[string]any) (ir.Value, error) {
	rec := &ir.RecordValue{}

	for _, k := range slices.Sorted(maps.Keys(m)) {
		v, err := FromNative(m[k])
		if err != nil {
			return ir.Value{}, err
		}

		rec.Fields = append(rec.Fields, ir.FieldValue{Name: k, Value: ir.Literal(v, 0)})
	}

	return ir.Value{Kind: ir.Kind{Tag: ir.TagRecord}, Data: rec}, nil
}

func toInt(x any) (int64, bool) {
	switch x := x.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint:
		return int64(x), true
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint64:
		return int64(x), true
	default:
		return 0, false
	}
}

func toFloat(x any) (float64, bool) {
	switch x := x.(type) {
	case float32:
		return float64(x), true
	case float64:
		return x, true
	default:
		i, ok := toInt(x)

		return float64(i), ok
	}
}

// IsTyped reports whether err is one of the evaluation error sentinels.
func IsTyped(err error) bool {
	for _, target := range []error{
		ErrUnresolvedReference,
		ErrDivisionByZero,
		ErrTypeMismatch,
		ErrArity,
		ErrUnknownFunction,
		ErrSyntax,
	} {
		if errors.Is(err, target) {
			return true
		}
	}

	return false
}
