// Package schema validates free-form generated text against the JSON shape
// of a target struct. Malformed text is never executed or evaluated; parsing
// either yields a fully populated value or a typed failure.
package schema

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// Field is one required field of a schema.
type Field struct {
	Name string
	Type string
}

// Spec is the machine-readable description of a target struct, suitable for
// embedding in a repair prompt.
type Spec struct {
	Fields []Field
}

// For builds the Spec for T from its exported fields and json tags.
func For[T any]() Spec {
	t := reflect.TypeOf((*T)(nil)).Elem()
	spec := Spec{}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := jsonName(f)
		if name == "" {
			continue
		}
		spec.Fields = append(spec.Fields, Field{Name: name, Type: typeName(f.Type)})
	}
	return spec
}

// String renders the spec as a JSON-like object description,
// e.g. {"summary": string, "drivers_list": list of string}.
func (s Spec) String() string {
	parts := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		parts = append(parts, fmt.Sprintf("%q: %s", f.Name, f.Type))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Decode parses text into T. Every field of T is required: missing or null
// fields and type mismatches are errors, and no partial value is ever
// returned as valid.
func Decode[T any](text string) (T, error) {
	var zero T

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return zero, fmt.Errorf("empty response text")
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
		return zero, fmt.Errorf("not a JSON object: %w", err)
	}

	spec := For[T]()
	var missing []string
	for _, f := range spec.Fields {
		v, ok := raw[f.Name]
		if !ok || string(v) == "null" {
			missing = append(missing, f.Name)
		}
	}
	if len(missing) > 0 {
		return zero, fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}

	var out T
	if err := json.Unmarshal([]byte(trimmed), &out); err != nil {
		return zero, fmt.Errorf("field type mismatch: %w", err)
	}
	return out, nil
}

func jsonName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	if tag == "-" {
		return ""
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		name = f.Name
	}
	return name
}

func typeName(t reflect.Type) string {
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Bool:
		return "boolean"
	case reflect.Slice, reflect.Array:
		return "list of " + typeName(t.Elem())
	case reflect.Map:
		return "object"
	case reflect.Pointer:
		return typeName(t.Elem())
	case reflect.Interface:
		return "any"
	default:
		return "object"
	}
}
