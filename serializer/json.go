package serializer

import (
	"strings"

	"github.com/segmentio/encoding/json"
)

// JSONSerializer is the default Serializer. It treats application/json and
// any application/*+json vendor type (e.g. application/vnd.api+json) as
// structured. application/jsonp is deliberately excluded: it resembles JSON
// only in naming.
type JSONSerializer struct{}

// JSON returns the default JSON serializer.
func JSON() JSONSerializer {
	return JSONSerializer{}
}

// Encode serializes v to JSON.
func (JSONSerializer) Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Decode parses JSON bytes into a generic value.
func (JSONSerializer) Decode(data []byte) (any, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// IsStructuredContentType reports whether contentType denotes JSON.
func (JSONSerializer) IsStructuredContentType(contentType string) bool {
	mt := mediaType(contentType)
	if mt == "application/json" {
		return true
	}
	return strings.HasPrefix(mt, "application/") && strings.HasSuffix(mt, "+json")
}
