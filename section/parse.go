package section

import (
	"strings"
)

const (
	markSection   = "-- "
	markCommented = "/-- "
	markDoc       = ";;;"
	markComment   = ";;"
	nameEnd       = "end"
)

type mode int

const (
	modeNone mode = iota
	modeHeaders
	modeBody
	modeSkip
)

type parser struct {
	file    *File
	flat    []*Section
	current *Section
	mode    mode
	body    []string
	doc     []string
}

// Parse splits source into sections. It never fails; syntax problems are
// recorded on the returned file.
func Parse(name, source string) *File {
	p := &parser{file: &File{Name: name}}

	lines := splitLines(source, &p.file.LineStarts)
	for i, text := range lines {
		p.line(i+1, text)
	}

	p.finishBody()
	p.promoteDoc()

	p.file.Sections = p.flat

	return p.file
}

func splitLines(source string, starts *[]int) []string {
	lines := strings.Split(strings.ReplaceAll(source, "\r\n", "\n"), "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}

	offset := 0
	for _, line := range lines {
		*starts = append(*starts, offset)
		offset += len(line) + 1
	}

	return lines
}

func (p *parser) line(num int, text string) {
	trimmed := strings.TrimSpace(text)

	switch {
	case strings.HasPrefix(text, markCommented):
		p.finishBody()
		p.discardDoc()
		p.current = nil
		p.mode = modeSkip

	case strings.HasPrefix(text, markSection):
		p.finishBody()
		p.section(num, strings.TrimPrefix(text, markSection))

	case p.mode == modeSkip:

	case strings.HasPrefix(trimmed, markDoc):
		p.doc = append(p.doc, strings.TrimSpace(strings.TrimPrefix(trimmed, markDoc)))

	case strings.HasPrefix(trimmed, markComment):
		p.file.Comments = append(p.file.Comments, Comment{
			Text: strings.TrimSpace(strings.TrimPrefix(trimmed, markComment)),
			Line: num,
		})

	case trimmed == "":
		p.blank()

	default:
		p.content(num, text)
	}
}

func (p *parser) blank() {
	p.promoteDoc()

	switch p.mode {
	case modeHeaders:
		p.mode = modeBody
	case modeBody:
		if len(p.body) > 0 {
			p.body = append(p.body, "")
		}
	case modeNone, modeSkip:
	}
}

func (p *parser) content(num int, text string) {
	switch p.mode {
	case modeHeaders:
		if h, ok := parseHeader(num, text); ok {
			p.current.Headers = append(p.current.Headers, h)

			return
		}

		p.problem(num, "malformed header: "+strings.TrimSpace(text))

	case modeBody:
		if len(p.body) == 0 && p.current.Body == nil {
			p.current.Body = &Text{Line: num}
		}

		p.body = append(p.body, text)

	default:
		p.problem(num, "content outside of a section")
	}
}

func (p *parser) section(num int, text string) {
	head, caption, found := cutOutside(text, ':', '(', ')')
	if !found {
		p.problem(num, "section header missing ':'")
		p.current = nil
		p.mode = modeSkip

		return
	}

	s := &Section{Line: num}

	if c := strings.TrimSpace(caption); c != "" {
		s.Caption = &Text{Value: c, Line: num}
	}

	head = strings.TrimSpace(head)
	if open := strings.IndexByte(head, '('); open >= 0 {
		shut := strings.LastIndexByte(head, ')')
		if shut < open {
			p.problem(num, "unterminated parameter list")
			shut = len(head)
		}

		s.Function = true

		for param := range strings.SplitSeq(head[open+1:shut], ",") {
			if param = strings.TrimSpace(param); param != "" {
				s.Params = append(s.Params, param)
			}
		}

		head = strings.TrimSpace(head[:open])
	}

	s.Kind, s.Name = splitKind(head)
	if s.Name == "" {
		p.problem(num, "section without a name")
		p.current = nil
		p.mode = modeSkip

		return
	}

	if s.IsEnd() {
		p.discardDoc()
		p.end(num, s)

		return
	}

	if len(p.doc) > 0 {
		s.Doc = strings.Join(p.doc, "\n")
		p.doc = nil
	}

	p.flat = append(p.flat, s)
	p.current = s
	p.mode = modeHeaders
}

func (p *parser) end(num int, marker *Section) {
	p.current = nil
	p.mode = modeNone

	if marker.Caption == nil {
		p.problem(num, "end marker without a section name")

		return
	}

	target := marker.Caption.Value

	for i := len(p.flat) - 1; i >= 0; i-- {
		s := p.flat[i]
		if s.closed || s.Name != target {
			continue
		}

		s.Children = append(s.Children, p.flat[i+1:]...)
		s.closed = true
		p.flat = p.flat[:i+1]

		return
	}

	p.problem(num, "end of unopened section "+target)
}

func (p *parser) finishBody() {
	if p.current != nil && p.current.Body != nil {
		for len(p.body) > 0 && strings.TrimSpace(p.body[len(p.body)-1]) == "" {
			p.body = p.body[:len(p.body)-1]
		}

		p.current.Body.Value = strings.Join(p.body, "\n")
	}

	p.body = nil
}

// promoteDoc turns a doc block that precedes every section, and is not
// directly followed by one, into the file doc.
func (p *parser) promoteDoc() {
	if len(p.doc) == 0 || len(p.flat) > 0 || p.file.Doc != "" {
		return
	}

	p.file.Doc = strings.Join(p.doc, "\n")
	p.doc = nil
}

func (p *parser) discardDoc() { p.doc = nil }

func (p *parser) problem(num int, msg string) {
	p.file.Problems = append(p.file.Problems, Problem{Line: num, Msg: msg})
}

func parseHeader(num int, text string) (*Header, bool) {
	head, value, found := cutOutside(text, ':', '{', '}')
	if !found {
		return nil, false
	}

	h := &Header{Value: strings.TrimSpace(value), Line: num}

	head = strings.TrimSpace(head)
	if i := strings.Index(head, " if "); i >= 0 {
		cond := strings.TrimSpace(head[i+len(" if "):])
		if !strings.HasPrefix(cond, "{") || !strings.HasSuffix(cond, "}") {
			return nil, false
		}

		h.Condition = strings.TrimSpace(cond[1 : len(cond)-1])
		head = strings.TrimSpace(head[:i])
	}

	h.Kind, h.Key = splitKind(head)

	return h, h.Key != ""
}

// splitKind separates the trailing name from the kind words preceding it.
func splitKind(head string) (kind, name string) {
	fields := strings.Fields(head)
	if len(fields) == 0 {
		return "", ""
	}

	return strings.Join(fields[:len(fields)-1], " "), fields[len(fields)-1]
}

// cutOutside slices s around the first sep that is not enclosed by the
// open/close pair.
func cutOutside(s string, sep, open, shut byte) (before, after string, found bool) {
	depth := 0

	for i := range len(s) {
		switch s[i] {
		case open:
			depth++
		case shut:
			if depth > 0 {
				depth--
			}
		case sep:
			if depth == 0 {
				return s[:i], s[i+1:], true
			}
		}
	}

	return s, "", false
}
