package section

import (
	"fmt"
	"sort"
)

// Text is a string value together with the line it starts on.
type Text struct {
	Value string
	Line  int
}

// Header is a `[kind] key [if { condition }]: value` line of a section.
type Header struct {
	Kind      string
	Key       string
	Condition string
	Value     string
	Line      int
}

// Section is one `-- ` block of source.
type Section struct {
	Kind     string
	Name     string
	Params   []string
	Function bool
	Caption  *Text
	Headers  []*Header
	Body     *Text
	Children []*Section
	Doc      string
	Line     int

	closed bool
}

// Header returns the first header with the given key.
func (s *Section) Header(key string) (*Header, bool) {
	for _, h := range s.Headers {
		if h.Key == key {
			return h, true
		}
	}

	return nil, false
}

// IsEnd reports whether the section is an `-- end:` marker.
func (s *Section) IsEnd() bool { return s.Kind == "" && s.Name == "end" }

// Comment is a `;;` comment line.
type Comment struct {
	Text string
	Line int
}

// Problem is a syntax problem found while parsing.
type Problem struct {
	Line int
	Msg  string
}

// Error implements the error interface.
func (p Problem) Error() string { return fmt.Sprintf("line %d: %s", p.Line, p.Msg) }

// File is the parsed form of one source document.
type File struct {
	Name       string
	Doc        string
	Sections   []*Section
	Comments   []Comment
	Problems   []Problem
	LineStarts []int
}

// Line returns the 1-based line number containing the byte offset.
func (f *File) Line(offset int) int {
	return sort.Search(len(f.LineStarts), func(i int) bool {
		return f.LineStarts[i] > offset
	})
}
