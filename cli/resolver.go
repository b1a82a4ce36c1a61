package cli

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"
)

// loadYAML is a [kong.ConfigurationLoader] that reads a YAML mapping of
// flag names to values:
//
//	log-level: debug
//	path:
//	  - /srv/ftd/modules
//	timeout: 10s
//	var:
//	  - dark-mode=true
//
// Keys may use underscores in place of hyphens. Keys of the form
// "command.flag", or a nested mapping under a command name, apply only to
// that command. Command-line flags override config file values; an empty
// or unreadable file is ignored.
func loadYAML(r io.Reader) (kong.Resolver, error) {
	var m map[string]any

	err := yaml.NewDecoder(r).Decode(&m)
	if err != nil && !errors.Is(err, io.EOF) {
		return config{}, nil
	}

	c := make(config)
	c.flatten("", m)

	return c, nil
}

// config implements [kong.Resolver] over a flattened YAML mapping.
type config map[string]any

// Validate implements [kong.Resolver].
func (config) Validate(*kong.Application) error { return nil }

// Resolve implements [kong.Resolver].
func (c config) Resolve(
	ktx *kong.Context,
	_ *kong.Path,
	flag *kong.Flag,
) (any, error) {
	keys := []string{flag.Name}

	if ktx != nil {
		if cmd := ktx.Selected(); cmd != nil {
			keys = append([]string{cmd.Name + "." + flag.Name}, keys...)
		}
	}

	for _, key := range keys {
		if v, ok := c[key]; ok {
			return v, nil
		}
	}

	return nil, nil
}

func (c config) flatten(prefix string, m map[string]any) {
	for k, v := range m {
		key := prefix + strings.ReplaceAll(k, "_", "-")

		if sub, ok := v.(map[string]any); ok && prefix == "" {
			c.flatten(key+".", sub)

			continue
		}

		c[key] = scalar(v)
	}
}

// scalar converts a decoded YAML value into the form kong expects. Kong
// parses numbers from strings.
func scalar(v any) any {
	switch v := v.(type) {
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = scalar(e)
		}

		return out
	default:
		return v
	}
}
