package driver

import (
	"context"
	"os"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/ftdr/pkg"
	"github.com/ardnew/ftdr/resolve"
)

// Modules is a [Loader] over module sources held in memory.
type Modules map[string]string

// Load implements [Loader].
func (m Modules) Load(_ context.Context, module string) (*string, error) {
	src, ok := m[module]
	if !ok {
		return nil, nil
	}

	return &src, nil
}

// ProcessorFunc computes the result of a processor call. The result is
// encoded as YAML before it is handed to the resolver.
type ProcessorFunc func(ctx context.Context, call resolve.ProcessorCall) (any, error)

// Processors is a [Runner] over processor functions keyed by name. A call
// is matched by its qualified name first, then by the name as written.
type Processors map[string]ProcessorFunc

// Run implements [Runner].
func (p Processors) Run(ctx context.Context, call resolve.ProcessorCall) (string, error) {
	fn, ok := p[call.Qualified]
	if !ok {
		fn, ok = p[call.Processor]
	}

	if !ok {
		return "", pkg.ErrProcessorNotFound.Wrapf("%s", call.Qualified)
	}

	v, err := fn(ctx, call)
	if err != nil {
		return "", err
	}

	buf, err := yaml.MarshalContext(ctx, v)
	if err != nil {
		return "", pkg.ErrYAMLMarshal.Wrap(err)
	}

	return string(buf), nil
}

// Variables is a [Provider] over serialized foreign variable values.
type Variables map[string]string

// Lookup implements [Provider].
func (v Variables) Lookup(_ context.Context, name string) (*string, error) {
	val, ok := v[name]
	if !ok {
		return nil, nil
	}

	return &val, nil
}

// Chain is a [Provider] that asks each provider in turn and returns the
// first value found.
type Chain []Provider

// Lookup implements [Provider].
func (c Chain) Lookup(ctx context.Context, name string) (*string, error) {
	for _, p := range c {
		v, err := p.Lookup(ctx, name)
		if err != nil {
			return nil, err
		}

		if v != nil {
			return v, nil
		}
	}

	return nil, nil
}

// Environ is a [Provider] over environment variables. The variable for
// name is the prefix followed by name in upper case, with hyphens and dots
// replaced by underscores.
type Environ string

// Lookup implements [Provider].
func (e Environ) Lookup(_ context.Context, name string) (*string, error) {
	key := string(e) + strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(name))

	val, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	return &val, nil
}
