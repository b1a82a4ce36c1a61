package resolve

import (
	"maps"
	"slices"

	"github.com/ardnew/ftdr/ir"
)

// builtinModule is the module of the built-in components, bound as an
// alias in every document.
const builtinModule = "ftd"

func optional(name string, tag ir.Tag) ir.Field {
	return ir.Field{Name: name, Kind: ir.KindData{Kind: ir.OptionalOf(ir.Primitive(tag))}}
}

func caption(name string, tag ir.Tag, body bool) ir.Field {
	return ir.Field{Name: name, Kind: ir.KindData{Kind: ir.Primitive(tag), Caption: true, Body: body}}
}

// common are the arguments every built-in component accepts.
func common() []ir.Field {
	return []ir.Field{
		optional("id", ir.TagString),
		optional("color", ir.TagString),
		optional("background-color", ir.TagString),
		optional("padding", ir.TagInteger),
		optional("margin", ir.TagInteger),
		optional("width", ir.TagString),
		optional("height", ir.TagString),
		optional("align", ir.TagString),
		optional("link", ir.TagString),
	}
}

func container() []ir.Field {
	return append(common(),
		ir.Field{Name: "children", Kind: ir.KindData{Kind: ir.ListOf(ir.Primitive(ir.TagUI))}},
		optional("spacing", ir.TagInteger),
		optional("wrap", ir.TagBoolean),
	)
}

func builtins() map[string][]ir.Field {
	return map[string][]ir.Field{
		"text": append(common(),
			caption("text", ir.TagString, true),
			optional("role", ir.TagString),
			optional("style", ir.TagString),
		),
		"integer":   append(common(), caption("value", ir.TagInteger, false), optional("format", ir.TagString)),
		"decimal":   append(common(), caption("value", ir.TagDecimal, false), optional("format", ir.TagString)),
		"boolean":   append(common(), caption("value", ir.TagBoolean, false), optional("true", ir.TagString), optional("false", ir.TagString)),
		"image":     append(common(), caption("src", ir.TagString, false), optional("alt", ir.TagString)),
		"column":    container(),
		"row":       container(),
		"container": container(),
	}
}

// installBuiltins inserts the built-in components into the Bag and records
// the built-in module as resolved.
func (st *State) installBuiltins() {
	m := &module{
		name:    builtinModule,
		defined: make(map[string]ir.ID),
		failed:  make(map[string]bool),
	}

	all := builtins()

	for _, name := range slices.Sorted(maps.Keys(all)) {
		q := qualify(builtinModule, name)

		// The names are fixed and distinct.
		_ = st.bag.Insert(q, &ir.Component{Name: q, Arguments: all[name]})

		m.defined[name], _ = st.bag.ID(q)
	}

	st.modules[builtinModule] = m
}
