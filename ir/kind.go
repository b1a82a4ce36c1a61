package ir

import (
	"log/slog"
	"strings"
)

// Tag identifies the shape of a [Kind].
type Tag uint8

const (
	TagVoid Tag = iota
	TagString
	TagInteger
	TagDecimal
	TagBoolean
	TagRecord
	TagOrType
	TagVariant
	TagList
	TagOptional
	TagUI
	TagModule
	TagConstant
	// TagNamed is a kind name that has not been resolved yet.
	TagNamed
)

var tagNames = [...]string{
	TagVoid:     "void",
	TagString:   "string",
	TagInteger:  "integer",
	TagDecimal:  "decimal",
	TagBoolean:  "boolean",
	TagRecord:   "record",
	TagOrType:   "or-type",
	TagVariant:  "or-type variant",
	TagList:     "list",
	TagOptional: "optional",
	TagUI:       "ftd.ui",
	TagModule:   "module",
	TagConstant: "constant",
	TagNamed:    "named",
}

func (t Tag) String() string {
	if int(t) < len(tagNames) {
		return tagNames[t]
	}

	return "unknown"
}

// Kind is the type of a value.
type Kind struct {
	Tag Tag
	// Ref is the Thing defining a record, or-type or variant kind.
	Ref ID `yaml:"-" json:"-"`
	// Name is the qualified name of Ref, the name as written for an
	// unresolved kind, or the module name of a module kind.
	Name string `yaml:",omitempty" json:",omitempty"`
	// Elem is the element of a list, optional or constant kind.
	Elem *Kind `yaml:",omitempty" json:",omitempty"`
}

// Primitive returns the kind with the given primitive tag.
func Primitive(tag Tag) Kind { return Kind{Tag: tag} }

// ListOf returns the kind of a list of elem.
func ListOf(elem Kind) Kind { return Kind{Tag: TagList, Elem: &elem} }

// OptionalOf returns the kind of an optional elem.
func OptionalOf(elem Kind) Kind { return Kind{Tag: TagOptional, Elem: &elem} }

// ConstantOf returns the kind of a constant elem.
func ConstantOf(elem Kind) Kind { return Kind{Tag: TagConstant, Elem: &elem} }

// Named returns an unresolved kind reference.
func Named(name string) Kind { return Kind{Tag: TagNamed, Name: name} }

// String renders the kind the way it is written in source.
func (k Kind) String() string {
	switch k.Tag {
	case TagList:
		return k.Elem.String() + " list"
	case TagOptional:
		return "optional " + k.Elem.String()
	case TagConstant:
		return "constant " + k.Elem.String()
	case TagRecord, TagOrType, TagVariant, TagNamed:
		return k.Name
	case TagModule:
		return "module " + k.Name
	default:
		return k.Tag.String()
	}
}

// LogValue implements slog.LogValuer.
func (k Kind) LogValue() slog.Value { return slog.StringValue(k.String()) }

// Base strips constant wrappers.
func (k Kind) Base() Kind {
	for k.Tag == TagConstant && k.Elem != nil {
		k = *k.Elem
	}

	return k
}

// Walk calls fn for k and every kind nested in it.
func (k *Kind) Walk(fn func(*Kind)) {
	fn(k)

	if k.Elem != nil {
		k.Elem.Walk(fn)
	}
}

// IsPrimitive reports whether the kind is a scalar that literals can have.
func (k Kind) IsPrimitive() bool {
	switch k.Base().Tag {
	case TagString, TagInteger, TagDecimal, TagBoolean:
		return true
	default:
		return false
	}
}

// KindData is a kind together with the argument markers that let a value
// be written as a section caption or body.
type KindData struct {
	Kind    Kind
	Caption bool `yaml:",omitempty" json:",omitempty"`
	Body    bool `yaml:",omitempty" json:",omitempty"`
}

func (kd KindData) String() string {
	var prefix string

	switch {
	case kd.Caption && kd.Body:
		prefix = "caption or body "
	case kd.Caption:
		prefix = "caption "
	case kd.Body:
		prefix = "body "
	}

	return prefix + kd.Kind.String()
}

const (
	wordCaption  = "caption"
	wordBody     = "body"
	wordOr       = "or"
	wordOptional = "optional"
	wordConstant = "constant"
	wordList     = "list"
	wordChildren = "children"
)

// ParseKind parses a kind as written before a header key or section name,
// for example "caption or body string", "optional person" or
// "ftd.ui list". Names that are not primitives are returned as
// unresolved [Named] kinds.
func ParseKind(s string) (KindData, error) {
	var (
		kd       KindData
		optional bool
		constant bool
	)

	words := strings.Fields(s)

modifiers:
	for len(words) > 0 {
		switch words[0] {
		case wordCaption:
			kd.Caption = true
		case wordBody:
			kd.Body = true
		case wordOr:
			if !kd.Caption {
				return kd, ErrInvalidKind.With(slog.String("kind", s))
			}
		case wordOptional:
			optional = true
		case wordConstant:
			constant = true
		default:
			break modifiers
		}

		words = words[1:]
	}

	list := false
	if n := len(words); n > 0 && words[n-1] == wordList {
		list = true
		words = words[:n-1]
	}

	var base Kind

	switch len(words) {
	case 0:
		if !kd.Caption && !kd.Body {
			return kd, ErrInvalidKind.With(slog.String("kind", s))
		}

		base = Primitive(TagString)

	case 1:
		base = parseBaseKind(words[0])

	default:
		return kd, ErrInvalidKind.With(slog.String("kind", s))
	}

	if list {
		base = ListOf(base)
	}

	if optional {
		base = OptionalOf(base)
	}

	if constant {
		base = ConstantOf(base)
	}

	kd.Kind = base

	return kd, nil
}

func parseBaseKind(word string) Kind {
	switch word {
	case "string":
		return Primitive(TagString)
	case "integer":
		return Primitive(TagInteger)
	case "decimal":
		return Primitive(TagDecimal)
	case "boolean":
		return Primitive(TagBoolean)
	case "void":
		return Primitive(TagVoid)
	case "ftd.ui", "element":
		return Primitive(TagUI)
	case wordChildren:
		return ListOf(Primitive(TagUI))
	default:
		return Named(word)
	}
}

// IsKindWord reports whether word can only start a kind, which lets a
// section such as "-- string: Alice" be read as a literal list element.
func IsKindWord(word string) bool {
	switch word {
	case "string", "integer", "decimal", "boolean", "ftd.ui":
		return true
	default:
		return false
	}
}

// Compatible reports whether a value of kind have may be used where kind
// want is expected. Record, or-type and variant kinds must already be
// resolved; the bag is consulted to relate a variant to its or-type.
func Compatible(have, want Kind, bag *Bag) bool {
	have, want = have.Base(), want.Base()

	switch want.Tag {
	case TagOptional:
		switch have.Tag {
		case TagVoid:
			return true
		case TagOptional:
			return Compatible(*have.Elem, *want.Elem, bag)
		default:
			return Compatible(have, *want.Elem, bag)
		}

	case TagDecimal:
		return have.Tag == TagDecimal || have.Tag == TagInteger

	case TagList:
		return have.Tag == TagList && Compatible(*have.Elem, *want.Elem, bag)

	case TagRecord, TagVariant:
		return have.Tag == want.Tag && have.Ref == want.Ref

	case TagOrType:
		switch have.Tag {
		case TagOrType:
			return have.Ref == want.Ref
		case TagVariant:
			v, ok := bag.Thing(have.Ref)
			if !ok {
				return false
			}

			variant, ok := v.(*OrTypeVariant)

			return ok && variant.OrType == want.Ref
		default:
			return false
		}

	case TagModule:
		return have.Tag == TagModule && have.Name == want.Name

	default:
		return have.Tag == want.Tag
	}
}
