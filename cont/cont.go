package cont

import (
	"log/slog"
	"slices"

	"github.com/ardnew/ftdr/ir"
)

// Predefined errors (sentinel values).
var (
	ErrShapeMismatch   = ir.NewError("answers do not match requests")
	ErrAlreadySupplied = ir.NewError("answers already supplied")
)

// Keyed is implemented by requests and answers. A request and the answer
// to it share a key.
type Keyed interface {
	Key() string
}

// Supplier accepts answers of type A. Every *Pending[Q, A] is a
// Supplier[A], which lets a caller holding an untyped suspension supply
// answers without knowing the request type.
type Supplier[A Keyed] interface {
	Supply(answers []A) error
}

// Pending is one suspension: requests of type Q awaiting answers of
// type A.
type Pending[Q, A Keyed] struct {
	requests []Q
	apply    func(map[string]A) error
	supplied bool
}

// New returns a suspension over requests. The apply function receives the
// answers keyed by request key once they have been validated.
func New[Q, A Keyed](requests []Q, apply func(map[string]A) error) *Pending[Q, A] {
	return &Pending[Q, A]{requests: requests, apply: apply}
}

// Requests returns the requests in the order they were raised.
func (p *Pending[Q, A]) Requests() []Q { return slices.Clone(p.requests) }

// Keys returns the request keys in order.
func (p *Pending[Q, A]) Keys() []string {
	keys := make([]string, len(p.requests))
	for i, q := range p.requests {
		keys[i] = q.Key()
	}

	return keys
}

// Supplied reports whether answers have been accepted.
func (p *Pending[Q, A]) Supplied() bool { return p.supplied }

// Supply validates answers against the requests and applies them.
func (p *Pending[Q, A]) Supply(answers []A) error {
	if p.supplied {
		return ErrAlreadySupplied
	}

	byKey, err := Match(p.requests, answers)
	if err != nil {
		return err
	}

	p.supplied = true

	return p.apply(byKey)
}

// Match pairs every request with exactly one answer by key.
func Match[Q, A Keyed](requests []Q, answers []A) (map[string]A, error) {
	if len(answers) != len(requests) {
		return nil, ErrShapeMismatch.With(
			slog.Int("requests", len(requests)),
			slog.Int("answers", len(answers)),
		)
	}

	want := make(map[string]bool, len(requests))
	for _, q := range requests {
		want[q.Key()] = true
	}

	byKey := make(map[string]A, len(answers))

	for _, a := range answers {
		key := a.Key()

		if !want[key] {
			return nil, ErrShapeMismatch.With(slog.String("unexpected", key))
		}

		if _, dup := byKey[key]; dup {
			return nil, ErrShapeMismatch.With(slog.String("duplicate", key))
		}

		byKey[key] = a
	}

	return byKey, nil
}
