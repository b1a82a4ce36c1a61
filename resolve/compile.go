package resolve

import (
	"github.com/ardnew/ftdr/ir"
)

// compile collects the resolved root document: its content and every Thing
// reachable from its definitions or content.
func (st *State) compile(f *frame) *Compiled {
	c := &Compiled{
		Name: f.doc.Name,
		Doc:  f.doc.Doc,
		Bag:  make(map[string]ir.Thing),
	}

	roots := make([]ir.ID, 0, len(f.defined))
	for _, id := range f.defined {
		roots = append(roots, id)
	}

	for _, inv := range f.content {
		if inv == nil {
			continue
		}

		c.Content = append(c.Content, inv)
		roots = append(roots, ir.InvocationDependencies(inv)...)
	}

	for _, id := range st.bag.Closure(roots...) {
		if thing, ok := st.bag.Thing(id); ok {
			c.Bag[st.bag.Name(id)] = thing
		}
	}

	return c
}
