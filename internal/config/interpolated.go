package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	ErrUnterminatedReference = errors.New("unterminated reference")
	ErrUnsupportedReference  = errors.New("unsupported reference")
)

// Interpolated decodes a YAML scalar after replacing ${env://NAME} and
// ${file://path} references in it. $${ escapes a literal ${. References may
// nest.
type Interpolated[T any] struct {
	Value T
}

func (r *Interpolated[T]) UnmarshalYAML(value *yaml.Node) (err error) {
	if value.Kind != yaml.ScalarNode || value.Tag != "!!str" {
		return value.Decode(&r.Value)
	}

	node := &yaml.Node{
		Kind: yaml.ScalarNode,
		Tag:  yamlTagForType(r.Value),
	}

	node.Value, err = interpolate(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}

	return node.Decode(&r.Value)
}

func yamlTagForType(v any) string {
	t := reflect.TypeOf(v)
	if t == nil {
		return "!!null"
	}

	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "!!int"
	case reflect.Float32, reflect.Float64:
		return "!!float"
	case reflect.Bool:
		return "!!bool"
	default:
		return "!!str"
	}
}

// resolvers map a reference scheme to its lookup.
var resolvers = map[string]func(string) (string, error){
	"env://": func(name string) (string, error) {
		return os.Getenv(name), nil
	},
	"file://": func(path string) (string, error) {
		b, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return strings.TrimRight(string(b), "\r\n"), nil
	},
}

func interpolate(src string) (string, error) {
	var out strings.Builder
	runes := []rune(src)

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '$' || i+1 >= len(runes) {
			out.WriteRune(r)
			continue
		}

		switch next := runes[i+1]; {
		case next == '$' && i+2 < len(runes) && runes[i+2] == '{':
			out.WriteString("${")
			i += 2
			continue
		case next == '$':
			out.WriteRune('$')
			continue
		case next != '{':
			out.WriteRune('$')
			out.WriteRune(next)
			i++
			continue
		}

		// ${...}, braces inside nest
		i += 2
		start := i
		for depth := 1; ; i++ {
			if i >= len(runes) {
				return "", ErrUnterminatedReference
			}
			if runes[i] == '{' {
				depth++
			} else if runes[i] == '}' {
				depth--
				if depth == 0 {
					break
				}
			}
		}

		ref, err := interpolate(string(runes[start:i]))
		if err != nil {
			return "", err
		}
		resolved, err := resolve(ref)
		if err != nil {
			return "", err
		}
		out.WriteString(resolved)
	}

	return out.String(), nil
}

func resolve(ref string) (string, error) {
	for scheme, lookup := range resolvers {
		if name, ok := strings.CutPrefix(ref, scheme); ok {
			v, err := lookup(name)
			if err != nil {
				return "", fmt.Errorf("failed to resolve %s%s: %w", scheme, name, err)
			}
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedReference, ref)
}
