package eval

import (
	"errors"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var errUnterminated = errors.New("unterminated string literal")

// keywords are expr-lang words that are never references.
var keywords = map[string]bool{
	"true": true, "false": true, "nil": true,
	"and": true, "or": true, "not": true, "in": true,
	"matches": true, "contains": true, "startsWith": true, "endsWith": true,
	"let": true, "if": true, "else": true,
}

// builtins are expr-lang functions called directly.
var builtins = map[string]bool{
	"len": true, "abs": true, "ceil": true, "floor": true, "round": true,
	"int": true, "float": true, "string": true, "type": true,
	"upper": true, "lower": true, "trim": true, "trimPrefix": true,
	"trimSuffix": true, "split": true, "join": true, "replace": true,
	"repeat": true, "indexOf": true, "lastIndexOf": true,
	"hasPrefix": true, "hasSuffix": true,
	"max": true, "min": true, "sum": true, "mean": true, "median": true,
	"first": true, "last": true, "reverse": true, "sort": true,
	"uniq": true, "concat": true, "flatten": true, "keys": true,
	"values": true, "filter": true, "map": true, "all": true, "any": true,
	"none": true, "one": true, "count": true, "toJSON": true,
	"fromJSON": true,
}

const (
	envFuncs    = "fns"
	refPrefix   = "ref"
	callInvoke  = "invoke"
	callDivide  = "div"
	callModulus = "mod"
)

type scanner struct {
	src   string
	pos   int
	out   strings.Builder
	refs  []string
	slots map[string]string
	calls []string
	user  func(name string) bool
}

// rewrite replaces references with placeholders and routes user function
// calls through invoke. Calls to builtins not claimed by user stay direct.
func rewrite(src string, user func(name string) bool) (*scanner, error) {
	s := &scanner{src: src, slots: make(map[string]string), user: user}

	for s.pos < len(s.src) {
		r, size := utf8.DecodeRuneInString(s.src[s.pos:])

		switch {
		case r == '"' || r == '\'' || r == '`':
			if err := s.quoted(r); err != nil {
				return nil, err
			}

		case r == '$' || r == '_' || unicode.IsLetter(r):
			s.word()

		case unicode.IsDigit(r):
			s.number()

		default:
			s.out.WriteString(s.src[s.pos : s.pos+size])
			s.pos += size
		}
	}

	return s, nil
}

func (s *scanner) quoted(quote rune) error {
	start := s.pos
	s.pos++

	for s.pos < len(s.src) {
		c := s.src[s.pos]

		switch {
		case c == '\\' && quote != '`':
			s.pos += 2

		case rune(c) == quote:
			s.pos++
			s.out.WriteString(s.src[start:s.pos])

			return nil

		default:
			s.pos++
		}
	}

	return errUnterminated
}

func (s *scanner) number() {
	start := s.pos

	for s.pos < len(s.src) {
		c := s.src[s.pos]
		if !isWordByte(c) && c != '.' {
			break
		}

		// Keep range operators ("1..3") intact.
		if c == '.' && s.pos+1 < len(s.src) && s.src[s.pos+1] == '.' {
			break
		}

		s.pos++
	}

	s.out.WriteString(s.src[start:s.pos])
}

func (s *scanner) word() {
	dollar := s.src[s.pos] == '$'
	if dollar {
		s.pos++
	}

	start := s.pos

scan:
	for s.pos < len(s.src) {
		c := s.src[s.pos]

		switch {
		case isWordByte(c):
			s.pos++
		case (c == '-' || c == '.') && s.pos > start && s.pos+1 < len(s.src) &&
			isWordStart(s.src[s.pos+1]):
			s.pos++
		default:
			break scan
		}
	}

	name := s.src[start:s.pos]

	switch {
	case name == "":
		s.out.WriteByte('$')

	case !dollar && s.afterDot():
		s.out.WriteString(name)

	case !dollar && keywords[name]:
		s.out.WriteString(name)

	case !dollar && s.peek() == '(':
		s.call(name)

	default:
		s.reference(name)
	}
}

func (s *scanner) call(name string) {
	if builtins[name] && !s.user(name) {
		s.out.WriteString(name)

		return
	}

	if !contains(s.calls, name) {
		s.calls = append(s.calls, name)
	}

	s.out.WriteString(callInvoke + "(" + envFuncs + ", " + strconv.Quote(name))

	// consume "(" and decide whether arguments follow
	s.pos = s.skipSpace(s.pos) + 1
	if i := s.skipSpace(s.pos); i >= len(s.src) || s.src[i] != ')' {
		s.out.WriteString(", ")
	}
}

func (s *scanner) reference(name string) {
	slot, ok := s.slots[name]
	if !ok {
		slot = refPrefix + strconv.Itoa(len(s.refs))
		s.slots[name] = slot
		s.refs = append(s.refs, name)
	}

	s.out.WriteString(slot)
}

// afterDot reports whether the last emitted non-space byte is a member
// access dot, in which case the word is a field or method name.
func (s *scanner) afterDot() bool {
	out := s.out.String()
	for i := len(out) - 1; i >= 0; i-- {
		if out[i] == ' ' || out[i] == '\t' {
			continue
		}

		return out[i] == '.' && (i == 0 || out[i-1] != '.')
	}

	return false
}

func (s *scanner) peek() byte {
	i := s.skipSpace(s.pos)
	if i >= len(s.src) {
		return 0
	}

	return s.src[i]
}

func (s *scanner) skipSpace(i int) int {
	for i < len(s.src) && (s.src[i] == ' ' || s.src[i] == '\t' || s.src[i] == '\n') {
		i++
	}

	return min(i, len(s.src))
}

func isWordStart(c byte) bool {
	return c == '_' || c >= utf8.RuneSelf ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isWordByte(c byte) bool {
	return isWordStart(c) || (c >= '0' && c <= '9')
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}

	return false
}
