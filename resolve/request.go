package resolve

import (
	"strconv"
)

// ImportRequest asks for the source of a module.
type ImportRequest struct {
	Module   string
	Importer string
	Line     int
}

// Key implements cont.Keyed.
func (r ImportRequest) Key() string { return r.Module }

// ModuleSource answers an [ImportRequest]. A nil Source means the module
// does not exist.
type ModuleSource struct {
	Module string
	Source *string
}

// Key implements cont.Keyed.
func (a ModuleSource) Key() string { return a.Module }

// ProcessorCall asks for the result of running a processor over a section.
type ProcessorCall struct {
	ID        string
	Document  string
	Processor string
	// Qualified is Processor with its module alias expanded.
	Qualified string
	Caption   string            `yaml:",omitempty" json:",omitempty"`
	Headers   map[string]string `yaml:",omitempty" json:",omitempty"`
	Body      string            `yaml:",omitempty" json:",omitempty"`
	Line      int
}

// Key implements cont.Keyed.
func (r ProcessorCall) Key() string { return r.ID }

func processorID(doc string, line int) string { return doc + ":" + strconv.Itoa(line) }

// ProcessorResult answers a [ProcessorCall] with a YAML or JSON encoded
// value, or with the error the processor failed with.
type ProcessorResult struct {
	ID    string
	Value *string
	Err   string
}

// Key implements cont.Keyed.
func (a ProcessorResult) Key() string { return a.ID }

// ForeignRequest asks the host for the value of a variable that no
// document defines. Variable is the name as written.
type ForeignRequest struct {
	Variable string
	Document string
	Line     int
}

// Key implements cont.Keyed.
func (r ForeignRequest) Key() string { return r.Variable }

// ForeignValue answers a [ForeignRequest] with a YAML or JSON encoded value.
// A nil Value means the host does not know the variable.
type ForeignValue struct {
	Variable string
	Value    *string
}

// Key implements cont.Keyed.
func (a ForeignValue) Key() string { return a.Variable }
