package ir

import (
	"log/slog"
	"reflect"
	"slices"
	"strings"
)

// ID is an interned symbol name. The zero ID is never assigned.
type ID uint32

// Bag is the symbol table of one resolution run: an arena of Things indexed
// by interned fully-qualified name. It grows monotonically and is not safe
// for concurrent use.
type Bag struct {
	names  []string
	ids    map[string]ID
	things []Thing
	deps   [][]ID
	count  int
}

// NewBag returns an empty bag.
func NewBag() *Bag {
	return &Bag{
		names:  []string{""},
		ids:    make(map[string]ID),
		things: []Thing{nil},
		deps:   [][]ID{nil},
	}
}

// Intern returns the ID of name, assigning a new one if needed. Interning
// a name does not define it.
func (b *Bag) Intern(name string) ID {
	if id, ok := b.ids[name]; ok {
		return id
	}

	id := ID(len(b.names))
	b.ids[name] = id
	b.names = append(b.names, name)
	b.things = append(b.things, nil)
	b.deps = append(b.deps, nil)

	return id
}

// ID returns the ID of an interned name.
func (b *Bag) ID(name string) (ID, bool) {
	id, ok := b.ids[name]

	return id, ok
}

// Name returns the name interned as id.
func (b *Bag) Name(id ID) string {
	if int(id) >= len(b.names) {
		return ""
	}

	return b.names[id]
}

// Insert defines name as thing. Inserting a thing equal to the one already
// defined is a no-op; inserting a different one returns
// [ErrDuplicateSymbol].
func (b *Bag) Insert(name string, thing Thing) error {
	id := b.Intern(name)

	if have := b.things[id]; have != nil {
		if reflect.DeepEqual(have, thing) {
			return nil
		}

		return ErrDuplicateSymbol.With(
			slog.String("symbol", name),
			slog.String("have", have.ThingKind().String()),
			slog.String("new", thing.ThingKind().String()),
		)
	}

	b.things[id] = thing
	b.deps[id] = Dependencies(thing)
	b.count++

	return nil
}

// Lookup returns the Thing defined as name.
func (b *Bag) Lookup(name string) (Thing, bool) {
	id, ok := b.ids[name]
	if !ok {
		return nil, false
	}

	return b.Thing(id)
}

// Thing returns the Thing defined as id.
func (b *Bag) Thing(id ID) (Thing, bool) {
	if id == 0 || int(id) >= len(b.things) || b.things[id] == nil {
		return nil, false
	}

	return b.things[id], true
}

// Contains reports whether name is defined.
func (b *Bag) Contains(name string) bool {
	_, ok := b.Lookup(name)

	return ok
}

// Len returns the number of defined Things.
func (b *Bag) Len() int { return b.count }

// Names returns the defined names in sorted order.
func (b *Bag) Names() []string {
	names := make([]string, 0, b.count)

	for id, t := range b.things {
		if t != nil {
			names = append(names, b.names[id])
		}
	}

	slices.Sort(names)

	return names
}

// Deps returns the IDs the Thing defined as id refers to.
func (b *Bag) Deps(id ID) []ID {
	if int(id) >= len(b.deps) {
		return nil
	}

	return b.deps[id]
}

// Closure returns the defined IDs reachable from roots through Thing
// dependencies, roots included, ordered by name.
func (b *Bag) Closure(roots ...ID) []ID {
	seen := make(map[ID]bool)
	stack := slices.Clone(roots)

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if seen[id] {
			continue
		}

		if _, ok := b.Thing(id); !ok {
			continue
		}

		seen[id] = true
		stack = append(stack, b.deps[id]...)
	}

	out := make([]ID, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}

	slices.SortFunc(out, func(x, y ID) int {
		return strings.Compare(b.names[x], b.names[y])
	})

	return out
}
