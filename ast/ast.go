package ast

import (
	"strings"

	"github.com/ardnew/ftdr/section"
)

// DefKind classifies a top-level definition.
type DefKind uint8

const (
	DefRecord DefKind = iota
	DefOrType
	DefVariable
	DefComponent
	DefWebComponent
	DefFunction
	DefExport
)

var defKindNames = [...]string{
	DefRecord:       "record",
	DefOrType:       "or-type",
	DefVariable:     "variable",
	DefComponent:    "component",
	DefWebComponent: "web-component",
	DefFunction:     "function",
	DefExport:       "export",
}

func (k DefKind) String() string {
	if int(k) < len(defKindNames) {
		return defKindNames[k]
	}

	return "unknown"
}

// Definition is a named top-level section.
type Definition struct {
	Kind    DefKind
	Name    string
	Section *section.Section
}

// Line returns the line the definition starts on.
func (d *Definition) Line() int { return d.Section.Line }

// Import is an `-- import:` section.
type Import struct {
	Module string
	Alias  string
	// Exports restricts the names reachable through Alias; nil means all.
	Exports []string
	// Exposing lists names made available without qualification.
	Exposing []string
	Line     int
}

// Exported reports whether name may be reached through the alias.
func (i *Import) Exported(name string) bool {
	if i.Exports == nil {
		return true
	}

	for _, e := range i.Exports {
		if e == name {
			return true
		}
	}

	return false
}

// ProblemKind classifies a [Problem].
type ProblemKind uint8

const (
	ProblemSyntax ProblemKind = iota
	ProblemDuplicate
)

// Problem is an error found while building a document.
type Problem struct {
	Kind ProblemKind
	Line int
	Name string
	Msg  string
}

func (p Problem) Error() string { return p.Msg }

// Document is one source file before resolution.
type Document struct {
	Name        string
	Doc         string
	Imports     []*Import
	Definitions map[string]*Definition
	Order       []string
	Content     []*section.Section
	Errors      []Problem
	Warnings    []Problem
	Comments    []section.Comment
	LineStarts  []int
}

// Definition returns the definition with the given local name.
func (d *Document) Definition(name string) (*Definition, bool) {
	def, ok := d.Definitions[name]

	return def, ok
}

const (
	sectionImport = "import"
	sectionExport = "export"
	headerAs      = "as"
	headerExports = "exports"
	headerExpose  = "exposing"
	exportAll     = "*"
)

// Parse parses source into a document.
func Parse(name, source string) *Document {
	return Build(section.Parse(name, source))
}

// Build builds a document from parsed sections.
func Build(f *section.File) *Document {
	doc := &Document{
		Name:        f.Name,
		Doc:         f.Doc,
		Definitions: make(map[string]*Definition),
		Comments:    f.Comments,
		LineStarts:  f.LineStarts,
	}

	for _, p := range f.Problems {
		doc.Errors = append(doc.Errors, Problem{
			Kind: ProblemSyntax,
			Line: p.Line,
			Msg:  p.Msg,
		})
	}

	for _, s := range f.Sections {
		doc.add(s)
	}

	return doc
}

func (d *Document) add(s *section.Section) {
	switch {
	case s.Kind == "" && s.Name == sectionImport:
		d.addImport(s)

	case s.Kind == "" && s.Name == sectionExport:
		if s.Caption == nil {
			d.syntax(s.Line, "export without a target")

			return
		}

		name := s.Caption.Value
		if i := strings.LastIndexByte(name, '.'); i >= 0 {
			name = name[i+1:]
		}

		if h, ok := s.Header(headerAs); ok {
			name = h.Value
		}

		d.define(&Definition{Kind: DefExport, Name: name, Section: s})

	case s.Function:
		d.define(&Definition{Kind: DefFunction, Name: s.Name, Section: s})

	case s.Kind == "record":
		d.define(&Definition{Kind: DefRecord, Name: s.Name, Section: s})

	case s.Kind == "or-type":
		d.define(&Definition{Kind: DefOrType, Name: s.Name, Section: s})

	case s.Kind == "component":
		d.define(&Definition{Kind: DefComponent, Name: s.Name, Section: s})

	case s.Kind == "web-component":
		d.define(&Definition{Kind: DefWebComponent, Name: s.Name, Section: s})

	case s.Kind != "":
		d.define(&Definition{Kind: DefVariable, Name: s.Name, Section: s})

	default:
		d.Content = append(d.Content, s)
	}
}

func (d *Document) addImport(s *section.Section) {
	if s.Caption == nil || s.Caption.Value == "" {
		d.syntax(s.Line, "import without a module")

		return
	}

	imp := &Import{Module: s.Caption.Value, Line: s.Line}

	if module, alias, ok := strings.Cut(imp.Module, " as "); ok {
		imp.Module = strings.TrimSpace(module)
		imp.Alias = strings.TrimSpace(alias)
	}

	for _, h := range s.Headers {
		switch h.Key {
		case headerAs:
			imp.Alias = h.Value
		case headerExports:
			if h.Value != exportAll {
				imp.Exports = splitList(h.Value)
			}
		case headerExpose:
			imp.Exposing = append(imp.Exposing, splitList(h.Value)...)
		default:
			d.Warnings = append(d.Warnings, Problem{
				Kind: ProblemSyntax,
				Line: h.Line,
				Name: h.Key,
				Msg:  "unknown import header " + h.Key,
			})
		}
	}

	if imp.Alias == "" {
		imp.Alias = imp.Module
		if i := strings.LastIndexByte(imp.Alias, '/'); i >= 0 {
			imp.Alias = imp.Alias[i+1:]
		}
	}

	d.Imports = append(d.Imports, imp)
}

func (d *Document) define(def *Definition) {
	if prev, ok := d.Definitions[def.Name]; ok {
		d.Errors = append(d.Errors, Problem{
			Kind: ProblemDuplicate,
			Line: def.Line(),
			Name: def.Name,
			Msg: "duplicate definition of " + def.Name +
				" (first defined as " + prev.Kind.String() + ")",
		})

		return
	}

	d.Definitions[def.Name] = def
	d.Order = append(d.Order, def.Name)
}

func (d *Document) syntax(line int, msg string) {
	d.Errors = append(d.Errors, Problem{Kind: ProblemSyntax, Line: line, Msg: msg})
}

func splitList(s string) []string {
	var out []string

	for item := range strings.SplitSeq(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}

	return out
}
