// Package serializer defines the pluggable body codec used by schemafetch.
//
// A Serializer pairs encode/decode with a content-type predicate so that a
// replacement codec (for example, a richer structured format) can also
// redefine which content types it claims. The default is JSON; a YAML
// serializer is provided as an alternative.
package serializer

import (
	"mime"
	"strings"
)

// Serializer encodes and decodes body values and decides which content
// types it treats as structured.
type Serializer interface {
	// Encode serializes a value to its wire form.
	Encode(v any) ([]byte, error)

	// Decode parses wire bytes into a generic value.
	Decode(data []byte) (any, error)

	// IsStructuredContentType reports whether the given content-type
	// header value denotes this serializer's structured format. The check
	// must ignore any ";"-delimited parameter suffix and be
	// case-insensitive.
	IsStructuredContentType(contentType string) bool
}

// mediaType strips any ";"-delimited parameters from a content-type header
// value and lower-cases the result. Malformed values fall back to a manual
// split so the predicate still sees the intended type.
func mediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt = contentType
		if i := strings.IndexByte(mt, ';'); i >= 0 {
			mt = mt[:i]
		}
	}
	return strings.ToLower(strings.TrimSpace(mt))
}
