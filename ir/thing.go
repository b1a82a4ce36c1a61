package ir

import "slices"

// ThingKind enumerates the variants of [Thing].
type ThingKind uint8

const (
	ThingRecord ThingKind = iota
	ThingOrType
	ThingVariant
	ThingVariable
	ThingComponent
	ThingWebComponent
	ThingFunction
	ThingExport
)

var thingKindNames = [...]string{
	ThingRecord:       "record",
	ThingOrType:       "or-type",
	ThingVariant:      "or-type variant",
	ThingVariable:     "variable",
	ThingComponent:    "component",
	ThingWebComponent: "web-component",
	ThingFunction:     "function",
	ThingExport:       "export",
}

func (k ThingKind) String() string {
	if int(k) < len(thingKindNames) {
		return thingKindNames[k]
	}

	return "unknown"
}

// Thing is a resolved top-level definition. The set of implementations is
// closed; a Thing is never modified after it is inserted into a [Bag].
type Thing interface {
	ThingKind() ThingKind
	Symbol() string
	isThing()
}

// Field is a record field or a component, web-component or function
// argument.
type Field struct {
	Name    string
	Kind    KindData
	Default *PropertyValue `yaml:",omitempty" json:",omitempty"`
	Line    int            `yaml:",omitempty" json:",omitempty"`
}

// Required reports whether a value must be supplied for the field.
func (f Field) Required() bool {
	return f.Default == nil && f.Kind.Kind.Base().Tag != TagOptional &&
		f.Kind.Kind.Base().Tag != TagList
}

// FindField returns the field with the given name.
func FindField(fields []Field, name string) (Field, bool) {
	for _, f := range fields {
		if f.Name == name {
			return f, true
		}
	}

	return Field{}, false
}

// Record is a named product type.
type Record struct {
	Name   string
	Fields []Field
	Doc    string `yaml:",omitempty" json:",omitempty"`
	Line   int
}

// OrType is a named sum type over its variants.
type OrType struct {
	Name     string
	Variants []Kind
	Doc      string `yaml:",omitempty" json:",omitempty"`
	Line     int
}

// OrTypeVariant is one record-shaped alternative of an [OrType], named
// `<module>#<or-type>.<variant>`.
type OrTypeVariant struct {
	Name   string
	OrType ID `yaml:"-" json:"-"`
	Fields []Field
	Line   int
}

// Variable is a named value.
type Variable struct {
	Name      string
	Kind      KindData
	Value     PropertyValue
	Processor string `yaml:",omitempty" json:",omitempty"`
	Doc       string `yaml:",omitempty" json:",omitempty"`
	Line      int
}

// Component is a reusable ui definition whose body is an invocation tree.
type Component struct {
	Name       string
	Arguments  []Field     `yaml:",omitempty" json:",omitempty"`
	Definition *Invocation `yaml:",omitempty" json:",omitempty"`
	Doc        string      `yaml:",omitempty" json:",omitempty"`
	Line       int
}

// WebComponent is a component implemented by an external script.
type WebComponent struct {
	Name      string
	Arguments []Field `yaml:",omitempty" json:",omitempty"`
	JS        string  `yaml:",omitempty" json:",omitempty"`
	Doc       string  `yaml:",omitempty" json:",omitempty"`
	Line      int
}

// Function is a named expression over its arguments.
type Function struct {
	Name       string
	ReturnKind KindData
	Arguments  []Field
	Expression string
	Refs       []Reference `yaml:",omitempty" json:",omitempty"`
	Doc        string      `yaml:",omitempty" json:",omitempty"`
	Line       int
}

// Export re-exports another Thing under a new name.
type Export struct {
	Name       string
	Target     ID `yaml:"-" json:"-"`
	TargetName string
	Line       int
}

func (*Record) ThingKind() ThingKind        { return ThingRecord }
func (*OrType) ThingKind() ThingKind        { return ThingOrType }
func (*OrTypeVariant) ThingKind() ThingKind { return ThingVariant }
func (*Variable) ThingKind() ThingKind      { return ThingVariable }
func (*Component) ThingKind() ThingKind     { return ThingComponent }
func (*WebComponent) ThingKind() ThingKind  { return ThingWebComponent }
func (*Function) ThingKind() ThingKind      { return ThingFunction }
func (*Export) ThingKind() ThingKind        { return ThingExport }

func (t *Record) Symbol() string        { return t.Name }
func (t *OrType) Symbol() string        { return t.Name }
func (t *OrTypeVariant) Symbol() string { return t.Name }
func (t *Variable) Symbol() string      { return t.Name }
func (t *Component) Symbol() string     { return t.Name }
func (t *WebComponent) Symbol() string  { return t.Name }
func (t *Function) Symbol() string      { return t.Name }
func (t *Export) Symbol() string        { return t.Name }

func (*Record) isThing()        {}
func (*OrType) isThing()        {}
func (*OrTypeVariant) isThing() {}
func (*Variable) isThing()      {}
func (*Component) isThing()     {}
func (*WebComponent) isThing()  {}
func (*Function) isThing()      {}
func (*Export) isThing()        {}

// Invocation is a use of a component, web-component or variable, either in
// document content or inside a component definition.
type Invocation struct {
	Name       string
	Target     ID `yaml:"-" json:"-"`
	Symbol     string
	Properties []Property    `yaml:",omitempty" json:",omitempty"`
	Condition  *Evaluation   `yaml:",omitempty" json:",omitempty"`
	Loop       *Loop         `yaml:",omitempty" json:",omitempty"`
	Children   []*Invocation `yaml:",omitempty" json:",omitempty"`
	Line       int
}

// Property returns the unconditional property with the given name.
func (inv *Invocation) Property(name string) (Property, bool) {
	for _, p := range inv.Properties {
		if p.Name == name && p.Condition == nil {
			return p, true
		}
	}

	return Property{}, false
}

// Property is an argument value of an invocation. A property with a
// Condition applies only when the condition holds at runtime.
type Property struct {
	Name      string
	Value     PropertyValue
	Condition *Evaluation `yaml:",omitempty" json:",omitempty"`
	Line      int
}

// Loop repeats an invocation once per element of On, binding each element
// to Alias.
type Loop struct {
	On    PropertyValue
	Alias string
}

// Dependencies returns the sorted, distinct IDs a Thing refers to.
func Dependencies(t Thing) []ID {
	var d depSet

	switch t := t.(type) {
	case *Record:
		d.fields(t.Fields)
	case *OrType:
		for _, v := range t.Variants {
			d.kind(v)
		}
	case *OrTypeVariant:
		d.add(t.OrType)
		d.fields(t.Fields)
	case *Variable:
		d.kind(t.Kind.Kind)
		d.value(t.Value)
	case *Component:
		d.fields(t.Arguments)
		d.invocation(t.Definition)
	case *WebComponent:
		d.fields(t.Arguments)
	case *Function:
		d.kind(t.ReturnKind.Kind)
		d.fields(t.Arguments)

		for _, r := range t.Refs {
			d.ref(&r)
		}
	case *Export:
		d.add(t.Target)
	}

	return d.sorted()
}

// InvocationDependencies returns the sorted, distinct IDs an invocation
// tree refers to.
func InvocationDependencies(inv *Invocation) []ID {
	var d depSet

	d.invocation(inv)

	return d.sorted()
}

type depSet map[ID]struct{}

func (d *depSet) add(id ID) {
	if id == 0 {
		return
	}

	if *d == nil {
		*d = make(depSet)
	}

	(*d)[id] = struct{}{}
}

func (d *depSet) kind(k Kind) {
	k.Walk(func(k *Kind) { d.add(k.Ref) })
}

func (d *depSet) fields(fields []Field) {
	for _, f := range fields {
		d.kind(f.Kind.Kind)

		if f.Default != nil {
			d.value(*f.Default)
		}
	}
}

func (d *depSet) ref(r *Reference) {
	d.add(r.Target)
	d.kind(r.Kind)
}

func (d *depSet) eval(e *Evaluation) {
	if e == nil {
		return
	}

	for i := range e.Refs {
		d.ref(&e.Refs[i])
	}
}

func (d *depSet) value(pv PropertyValue) {
	switch {
	case pv.Ref != nil:
		d.ref(pv.Ref)
	case pv.Eval != nil:
		d.eval(pv.Eval)
	case pv.Value != nil:
		d.kind(pv.Value.Kind)

		switch data := pv.Value.Data.(type) {
		case []PropertyValue:
			for _, e := range data {
				d.value(e)
			}
		case *RecordValue:
			for _, f := range data.Fields {
				d.value(f.Value)
			}
		case *Invocation:
			d.invocation(data)
		}
	}
}

func (d *depSet) invocation(inv *Invocation) {
	if inv == nil {
		return
	}

	d.add(inv.Target)

	for _, p := range inv.Properties {
		d.value(p.Value)
		d.eval(p.Condition)
	}

	d.eval(inv.Condition)

	if inv.Loop != nil {
		d.value(inv.Loop.On)
	}

	for _, c := range inv.Children {
		d.invocation(c)
	}
}

func (d depSet) sorted() []ID {
	if len(d) == 0 {
		return nil
	}

	ids := make([]ID, 0, len(d))
	for id := range d {
		ids = append(ids, id)
	}

	slices.Sort(ids)

	return ids
}
