package serializer

import (
	"strings"

	yaml "go.yaml.in/yaml/v4"
)

// YAMLSerializer is an alternative Serializer for YAML bodies. It claims
// application/yaml, text/yaml and any application/*+yaml vendor type.
type YAMLSerializer struct{}

// YAML returns a YAML serializer.
func YAML() YAMLSerializer {
	return YAMLSerializer{}
}

// Encode serializes v to YAML.
func (YAMLSerializer) Encode(v any) ([]byte, error) {
	return yaml.Marshal(v)
}

// Decode parses YAML bytes into a generic value.
func (YAMLSerializer) Decode(data []byte) (any, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// IsStructuredContentType reports whether contentType denotes YAML.
func (YAMLSerializer) IsStructuredContentType(contentType string) bool {
	switch mt := mediaType(contentType); {
	case mt == "application/yaml", mt == "application/x-yaml", mt == "text/yaml":
		return true
	case strings.HasPrefix(mt, "application/") && strings.HasSuffix(mt, "+yaml"):
		return true
	}
	return false
}
