package ir

import (
	"log/slog"
	"strconv"
	"strings"
)

// Value is a literal of a known kind.
//
// Data holds nil for void and absent optionals, string, int64, float64 or
// bool for primitives, []PropertyValue for lists, *RecordValue for records
// and or-type variants, and *Invocation for ui values.
type Value struct {
	Kind Kind
	Data any `yaml:",omitempty" json:",omitempty"`
}

// StringValue returns a string literal.
func StringValue(s string) Value { return Value{Kind: Primitive(TagString), Data: s} }

// IntegerValue returns an integer literal.
func IntegerValue(i int64) Value { return Value{Kind: Primitive(TagInteger), Data: i} }

// DecimalValue returns a decimal literal.
func DecimalValue(f float64) Value { return Value{Kind: Primitive(TagDecimal), Data: f} }

// BooleanValue returns a boolean literal.
func BooleanValue(b bool) Value { return Value{Kind: Primitive(TagBoolean), Data: b} }

// VoidValue returns the absent value of the given kind.
func VoidValue(kind Kind) Value { return Value{Kind: kind} }

// String renders primitive values the way they are written in source.
func (v Value) String() string {
	switch d := v.Data.(type) {
	case nil:
		return ""
	case string:
		return d
	case int64:
		return strconv.FormatInt(d, 10)
	case float64:
		return strconv.FormatFloat(d, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(d)
	case []PropertyValue:
		part := make([]string, 0, len(d))
		for _, pv := range d {
			part = append(part, pv.String())
		}

		return "[" + strings.Join(part, ", ") + "]"
	case *RecordValue:
		part := make([]string, 0, len(d.Fields))
		for _, f := range d.Fields {
			part = append(part, f.Name+": "+f.Value.String())
		}

		return "{" + strings.Join(part, ", ") + "}"
	case *Invocation:
		return d.Name
	default:
		return ""
	}
}

// Native converts the value to plain Go data for expression evaluation.
// It reports false when the value still depends on references or runtime
// expressions.
func (v Value) Native() (any, bool) {
	switch d := v.Data.(type) {
	case []PropertyValue:
		out := make([]any, 0, len(d))

		for _, pv := range d {
			if pv.Value == nil {
				return nil, false
			}

			n, ok := pv.Value.Native()
			if !ok {
				return nil, false
			}

			out = append(out, n)
		}

		return out, true

	case *RecordValue:
		out := make(map[string]any, len(d.Fields))

		for _, f := range d.Fields {
			if f.Value.Value == nil {
				return nil, false
			}

			n, ok := f.Value.Value.Native()
			if !ok {
				return nil, false
			}

			out[f.Name] = n
		}

		return out, true

	case *Invocation:
		return nil, false

	default:
		return d, true
	}
}

// ParseLiteral parses text written in source as a literal of kind.
func ParseLiteral(kind Kind, text string) (Value, error) {
	base := kind.Base()

	if base.Tag == TagOptional {
		if text == "" || text == "NULL" {
			return VoidValue(kind), nil
		}

		v, err := ParseLiteral(*base.Elem, text)
		if err != nil {
			return v, err
		}

		v.Kind = kind

		return v, nil
	}

	invalid := func(err error) (Value, error) {
		return Value{}, ErrInvalidLiteral.Wrap(err).With(
			slog.String("kind", kind.String()),
			slog.String("text", text),
		)
	}

	switch base.Tag {
	case TagString:
		return Value{Kind: kind, Data: text}, nil

	case TagInteger:
		i, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
		if err != nil {
			return invalid(err)
		}

		return Value{Kind: kind, Data: i}, nil

	case TagDecimal:
		f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			return invalid(err)
		}

		return Value{Kind: kind, Data: f}, nil

	case TagBoolean:
		b, err := strconv.ParseBool(strings.TrimSpace(text))
		if err != nil {
			return invalid(err)
		}

		return Value{Kind: kind, Data: b}, nil

	default:
		return invalid(nil)
	}
}

// RecordValue is the value of a record or or-type variant, with fields in
// declaration order.
type RecordValue struct {
	Fields []FieldValue
}

// Field returns the value of the named field.
func (r *RecordValue) Field(name string) (PropertyValue, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}

	return PropertyValue{}, false
}

// FieldValue is one field of a [RecordValue].
type FieldValue struct {
	Name  string
	Value PropertyValue
}

// PropertyValue is exactly one of a literal value, a reference to a Thing
// or local scope name, or an expression kept for runtime evaluation.
type PropertyValue struct {
	Value *Value      `yaml:",omitempty" json:",omitempty"`
	Ref   *Reference  `yaml:",omitempty" json:",omitempty"`
	Eval  *Evaluation `yaml:",omitempty" json:",omitempty"`
	Line  int         `yaml:",omitempty" json:",omitempty"`
}

// Literal wraps a value as a property value.
func Literal(v Value, line int) PropertyValue { return PropertyValue{Value: &v, Line: line} }

// Kind returns the kind of the property value.
func (pv PropertyValue) Kind() Kind {
	switch {
	case pv.Value != nil:
		return pv.Value.Kind
	case pv.Ref != nil:
		return pv.Ref.Kind
	case pv.Eval != nil:
		return pv.Eval.Kind
	default:
		return Primitive(TagVoid)
	}
}

func (pv PropertyValue) String() string {
	switch {
	case pv.Value != nil:
		return pv.Value.String()
	case pv.Ref != nil:
		return "$" + pv.Ref.Name
	case pv.Eval != nil:
		return "{" + pv.Eval.Source + "}"
	default:
		return ""
	}
}

// Reference is a name as written in source together with what it resolved
// to: a Thing in the bag, or a name in the enclosing local scope.
type Reference struct {
	Name   string
	Target ID     `yaml:"-" json:"-"`
	Symbol string `yaml:",omitempty" json:",omitempty"`
	Local  string `yaml:",omitempty" json:",omitempty"`
	// Fields is the member path applied to the target's value.
	Fields []string `yaml:",omitempty" json:",omitempty"`
	Kind   Kind
}

// Evaluation is an expression retained for runtime evaluation because it
// depends on local scope.
type Evaluation struct {
	Source string
	Refs   []Reference `yaml:",omitempty" json:",omitempty"`
	Kind   Kind
}
