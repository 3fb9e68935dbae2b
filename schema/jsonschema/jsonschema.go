// Package jsonschema provides a schemafetch validation adapter backed by
// JSON Schema, using github.com/google/jsonschema-go.
//
// Schema handles accepted by the adapter:
//
//   - *jsonschema.Resolved: a pre-resolved schema (preferred; resolve once,
//     validate many times)
//   - *jsonschema.Schema: resolved on first use per call
//   - []byte or string: raw JSON Schema source, compiled per call
//
// JSON Schema validates in place and does not transform, so Parse returns
// the input data unchanged on success.
package jsonschema

import (
	"fmt"

	js "github.com/google/jsonschema-go/jsonschema"

	"github.com/rmosel/schemafetch/schema"
)

// Adapter validates data against JSON Schema handles.
type Adapter struct{}

// New returns a JSON Schema adapter.
func New() Adapter {
	return Adapter{}
}

// Parse validates data against the given schema handle and returns the data
// unchanged on success.
func (Adapter) Parse(s schema.Schema, data any) (any, error) {
	resolved, err := resolve(s)
	if err != nil {
		return nil, err
	}
	if err := resolved.Validate(data); err != nil {
		return nil, err
	}
	return data, nil
}

// Compile parses and resolves raw JSON Schema source into a handle that can
// be reused across calls.
func Compile(source []byte) (*js.Resolved, error) {
	var sch js.Schema
	if err := sch.UnmarshalJSON(source); err != nil {
		return nil, fmt.Errorf("jsonschema: invalid schema source: %w", err)
	}
	resolved, err := sch.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("jsonschema: resolve failed: %w", err)
	}
	return resolved, nil
}

// MustCompile is like Compile but panics on error. Intended for schemas
// defined as package-level literals.
func MustCompile(source []byte) *js.Resolved {
	resolved, err := Compile(source)
	if err != nil {
		panic(err)
	}
	return resolved
}

func resolve(s schema.Schema) (*js.Resolved, error) {
	switch sch := s.(type) {
	case *js.Resolved:
		return sch, nil
	case *js.Schema:
		resolved, err := sch.Resolve(nil)
		if err != nil {
			return nil, fmt.Errorf("jsonschema: resolve failed: %w", err)
		}
		return resolved, nil
	case []byte:
		return Compile(sch)
	case string:
		return Compile([]byte(sch))
	default:
		return nil, fmt.Errorf("jsonschema: unsupported schema handle type %T", s)
	}
}
