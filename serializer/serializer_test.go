package serializer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONIsStructuredContentType(t *testing.T) {
	s := JSON()

	tests := []struct {
		contentType string
		want        bool
	}{
		{"application/json", true},
		{"application/json; charset=utf-8", true},
		{"Application/JSON", true},
		{"application/vnd.api+json", true},
		{"application/vnd.api+json; charset=utf-8", true},
		{"application/hal+json", true},
		{"application/jsonp", false},
		{"text/json", false},
		{"text/plain", false},
		{"application/xml", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			assert.Equal(t, tt.want, s.IsStructuredContentType(tt.contentType))
		})
	}
}

func TestJSONEncodeDecode(t *testing.T) {
	s := JSON()

	t.Run("round trips a structured value", func(t *testing.T) {
		data, err := s.Encode(map[string]any{"name": "tibbs", "count": 3})
		require.NoError(t, err)

		v, err := s.Decode(data)
		require.NoError(t, err)

		m, ok := v.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "tibbs", m["name"])
		assert.Equal(t, float64(3), m["count"])
	})

	t.Run("decodes a bare scalar", func(t *testing.T) {
		v, err := s.Decode([]byte(`"hello"`))
		require.NoError(t, err)
		assert.Equal(t, "hello", v)
	})

	t.Run("fails on malformed input", func(t *testing.T) {
		_, err := s.Decode([]byte(`{"name":`))
		assert.Error(t, err)
	})
}

func TestYAMLSerializer(t *testing.T) {
	s := YAML()

	t.Run("content type predicate", func(t *testing.T) {
		assert.True(t, s.IsStructuredContentType("application/yaml"))
		assert.True(t, s.IsStructuredContentType("text/yaml; charset=utf-8"))
		assert.True(t, s.IsStructuredContentType("application/vnd.example+yaml"))
		assert.False(t, s.IsStructuredContentType("application/json"))
		assert.False(t, s.IsStructuredContentType("text/plain"))
	})

	t.Run("round trips a mapping", func(t *testing.T) {
		data, err := s.Encode(map[string]any{"enabled": true})
		require.NoError(t, err)

		v, err := s.Decode(data)
		require.NoError(t, err)

		m, ok := v.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, true, m["enabled"])
	})
}

func TestMediaType(t *testing.T) {
	assert.Equal(t, "application/json", mediaType("application/json; charset=utf-8"))
	assert.Equal(t, "application/json", mediaType("APPLICATION/JSON"))
	assert.Equal(t, "text/plain", mediaType("text/plain;boundary=x;y=z"))
	assert.Equal(t, "application/json", mediaType("application/json;"))
}
