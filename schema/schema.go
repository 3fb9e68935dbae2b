// Package schema defines the validation adapter contract used by schemafetch.
//
// The pipeline is agnostic to which validation library backs it; it needs a
// single capability: parse data against an opaque schema handle, returning
// either the validated (possibly transformed) value or an error. Adapters are
// supplied explicitly at client construction; the pipeline never inspects
// schema handles to guess their owning library.
//
// The Adapter interface is synchronous by construction. Implementations must
// complete validation before returning; spawning background work and
// reporting later is not supported, because request-side validation is
// required to finish before any transport I/O is issued.
package schema

// Schema is an opaque handle understood by the Adapter it is given to.
// The pipeline passes handles through without inspecting them.
type Schema = any

// Adapter validates data against a schema handle.
//
// Parse returns the validated value, which may differ from the input when
// the backing library supports transformation (defaults, coercion,
// stripping). On failure it returns the library's own error, which the
// pipeline propagates unmodified inside a fetcherrors.ValidationError.
type Adapter interface {
	Parse(schema Schema, data any) (any, error)
}

// AdapterFunc adapts a plain function to the Adapter interface.
type AdapterFunc func(schema Schema, data any) (any, error)

// Parse calls f(schema, data).
func (f AdapterFunc) Parse(schema Schema, data any) (any, error) {
	return f(schema, data)
}
