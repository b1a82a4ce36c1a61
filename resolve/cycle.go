package resolve

import (
	"log/slog"
	"slices"
	"strings"
)

// breakCycles is called when every queued definition of f waits on another
// one. Each waits on exactly one definition, so following the wait-for
// edges from any definition ends in a cycle. Every cycle is reported once
// and its members fail; the definitions waiting on them fail with derived
// diagnostics when they run again.
func (st *State) breakCycles(f *frame) {
	var (
		permanent = make(map[string]bool)
		queued    = make(map[string]bool, len(f.queue))
		broken    = false
	)

	for _, name := range f.queue {
		queued[name] = true
	}

	for _, start := range f.doc.Order {
		if !queued[start] || permanent[start] {
			continue
		}

		var (
			path      []string
			temporary = make(map[string]int)
		)

		for n := start; queued[n] && !permanent[n]; n = f.waits[n] {
			if at, seen := temporary[n]; seen {
				st.failCycle(f, path[at:])
				broken = true

				break
			}

			temporary[n] = len(path)
			path = append(path, n)
		}

		for _, n := range path {
			permanent[n] = true
		}
	}

	if !broken {
		st.failCycle(f, slices.Clone(f.queue))
	}

	f.queue = slices.DeleteFunc(f.queue, func(n string) bool { return f.failed[n] })
	f.stalled = 0
}

// failCycle reports a cycle among members, which wait on each other in
// order, and poisons them.
func (st *State) failCycle(f *frame, members []string) {
	first := f.doc.Definitions[members[0]]
	path := append(slices.Clone(members), members[0])

	st.report(Diagnostic{
		Code:     CodeCyclicDependency,
		Document: f.doc.Name,
		Line:     first.Line(),
		Message:  "dependency cycle " + strings.Join(path, " -> "),
		Symbol:   qualify(f.doc.Name, members[0]),
	})

	for _, n := range members {
		f.failed[n] = true

		delete(f.waits, n)
	}

	st.logger.Trace("break cycle",
		slog.String("document", f.doc.Name),
		slog.Any("members", members))
}
