package resolve

import (
	"log/slog"
	"strings"
)

// imports runs the import phase of f. It returns a suspension when some
// imported module has no source yet; all such modules from the cursor
// onward are requested together.
func (st *State) imports(f *frame) (any, error) {
	doc := f.doc

	for f.cursor < len(doc.Imports) {
		imp := doc.Imports[f.cursor]

		switch {
		case imp.Module == doc.Name || st.onStack(imp.Module) >= 0:
			st.cycle(f, imp.Module, imp.Line)

			return nil, nil

		case st.modules[imp.Module] != nil:
			st.merge(f, imp.Alias, st.modules[imp.Module], imp.Line)

		case st.missing[imp.Module]:
			st.report(Diagnostic{
				Code:     CodeInvalidImportTarget,
				Document: doc.Name,
				Line:     imp.Line,
				Message:  "module " + imp.Module + " not found",
				Symbol:   imp.Module,
			})
			st.bindAlias(f, imp.Alias, imp.Module, imp.Line).poisoned = true

		case st.abandoned[imp.Module]:
			st.bindAlias(f, imp.Alias, imp.Module, imp.Line).poisoned = true

		case st.sources[imp.Module] != nil:
			src := st.sources[imp.Module]
			delete(st.sources, imp.Module)
			st.push(src)

			return nil, nil

		default:
			return st.importNeed(st.unavailable(f)), nil
		}

		f.cursor++
	}

	f.phase = phaseDefinitions
	f.queue = append(f.queue, doc.Order...)

	return nil, nil
}

// unavailable lists the modules imported by f from its cursor onward that
// have neither been resolved nor supplied.
func (st *State) unavailable(f *frame) []ImportRequest {
	var (
		requests []ImportRequest
		seen     = make(map[string]bool)
	)

	for _, imp := range f.doc.Imports[f.cursor:] {
		m := imp.Module

		if seen[m] || m == f.doc.Name || st.onStack(m) >= 0 || st.modules[m] != nil ||
			st.missing[m] || st.abandoned[m] || st.sources[m] != nil {
			continue
		}

		seen[m] = true
		requests = append(requests, ImportRequest{
			Module:   m,
			Importer: f.doc.Name,
			Line:     imp.Line,
		})
	}

	return requests
}

// cycle reports an import cycle closed by f importing target, and abandons
// every frame on it.
func (st *State) cycle(f *frame, target string, line int) {
	start := st.onStack(target)
	if start < 0 {
		start = len(st.stack) - 1
	}

	path := make([]string, 0, len(st.stack)-start+1)
	for _, g := range st.stack[start:] {
		path = append(path, g.doc.Name)
	}

	path = append(path, target)

	st.report(Diagnostic{
		Code:     CodeCyclicDependency,
		Document: f.doc.Name,
		Line:     line,
		Message:  "import cycle " + strings.Join(path, " -> "),
		Symbol:   target,
	})

	for _, g := range st.stack[start:] {
		st.abandoned[g.doc.Name] = true

		st.logger.Trace("abandon document", slog.String("document", g.doc.Name))
	}

	st.stack = st.stack[:start]
}

// merge binds an import alias to a resolved module and exposes the names
// listed by the import.
func (st *State) merge(f *frame, name string, m *module, line int) {
	a := st.bindAlias(f, name, m.name, line)
	imp := a.imp

	if imp == nil {
		return
	}

	for _, exposed := range imp.Exposing {
		if _, ok := m.defined[exposed]; !ok && !m.failed[exposed] {
			st.report(Diagnostic{
				Code:     CodeUnresolvedSymbol,
				Document: f.doc.Name,
				Line:     line,
				Message:  "module " + m.name + " does not define " + exposed,
				Symbol:   m.name + "#" + exposed,
				Hint:     suggest(exposed, keys(m.defined)),
			})

			continue
		}

		q := m.name + "#" + exposed

		if _, ok := f.doc.Definitions[exposed]; ok {
			st.report(Diagnostic{
				Code:     CodeDuplicateDefinition,
				Severity: SeverityWarning,
				Document: f.doc.Name,
				Line:     line,
				Message:  "exposed name " + exposed + " shadows definition of " + exposed,
				Symbol:   q,
			})
		} else if prev, ok := f.exposed[exposed]; ok && prev != q {
			st.report(Diagnostic{
				Code:     CodeDuplicateDefinition,
				Severity: SeverityWarning,
				Document: f.doc.Name,
				Line:     line,
				Message:  "exposed name " + exposed + " shadows " + prev,
				Symbol:   q,
			})
		}

		f.exposed[exposed] = q
	}
}

func (st *State) bindAlias(f *frame, name, module string, line int) *alias {
	if prev, ok := f.aliases[name]; ok && prev.imp != nil {
		st.report(Diagnostic{
			Code:     CodeDuplicateDefinition,
			Severity: SeverityWarning,
			Document: f.doc.Name,
			Line:     line,
			Message:  "alias " + name + " shadows import of " + prev.module,
			Symbol:   name,
		})
	}

	a := &alias{module: module}

	for _, imp := range f.doc.Imports {
		if imp.Alias == name && imp.Module == module {
			a.imp = imp
		}
	}

	f.aliases[name] = a

	return a
}
