package schemafetch

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/rmosel/schemafetch/fetcherrors"
	"github.com/rmosel/schemafetch/internal/formcodec"
)

// Headers is an outgoing header set in one of the three accepted shapes.
// Use HeaderMap, HeaderPairs or HeaderHTTP to construct one; all three
// normalize to the same canonical lower-cased mapping.
type Headers interface {
	normalize() map[string]string
}

type headerMapShape map[string]string

type headerPairsShape [][2]string

type headerHTTPShape http.Header

// HeaderMap wraps a plain name→value map. Names are matched
// case-insensitively.
func HeaderMap(m map[string]string) Headers {
	return headerMapShape(m)
}

// HeaderPairs wraps an ordered sequence of name/value pairs. When the same
// name appears more than once (case-insensitively), the last occurrence
// wins. This is a deliberate simplification versus true multi-value HTTP
// headers.
func HeaderPairs(pairs [][2]string) Headers {
	return headerPairsShape(pairs)
}

// HeaderHTTP wraps a native http.Header. For keys carrying multiple values
// the last value wins, consistent with the pair-sequence rule.
func HeaderHTTP(h http.Header) Headers {
	return headerHTTPShape(h)
}

func (m headerMapShape) normalize() map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[strings.ToLower(k)] = v
	}
	return out
}

func (p headerPairsShape) normalize() map[string]string {
	out := make(map[string]string, len(p))
	for _, pair := range p {
		out[strings.ToLower(pair[0])] = pair[1]
	}
	return out
}

func (h headerHTTPShape) normalize() map[string]string {
	out := make(map[string]string, len(h))
	for k, vals := range h {
		if len(vals) == 0 {
			continue
		}
		out[strings.ToLower(k)] = vals[len(vals)-1]
	}
	return out
}

// normalizeHeaders converts any accepted header shape into the canonical
// lower-cased mapping. A nil shape yields an empty, caller-owned map; the
// result is always freshly allocated and never shared across calls.
func normalizeHeaders(h Headers) map[string]string {
	if h == nil {
		return make(map[string]string)
	}
	return h.normalize()
}

// mergeValidatedHeaders applies a header schema's output to the original
// header set according to the configured mode.
//
// In preserve mode the validated values are merged on top of the originals:
// names the schema did not emit are retained, schema values overwrite
// same-named originals, and a nil schema value deletes that header. In
// strict mode only the names the schema emitted survive.
func mergeValidatedHeaders(original map[string]string, validated any, mode HeaderMode, strict bool) (map[string]string, error) {
	fields, err := headerFields(validated)
	if err != nil {
		return nil, err
	}

	var out map[string]string
	if mode == HeaderModeStrict {
		out = make(map[string]string, len(fields))
	} else {
		out = make(map[string]string, len(original)+len(fields))
		for k, v := range original {
			out[k] = v
		}
	}

	for name, value := range fields {
		key := strings.ToLower(name)
		if value == nil {
			delete(out, key)
			continue
		}
		s, err := formcodec.Stringify(key, value, strict)
		if err != nil {
			return nil, err
		}
		out[key] = s
	}
	return out, nil
}

// headerFields coerces a schema's output into a name→value mapping. A
// header schema that produces anything else leaves no way to rebuild a
// header set, so the result is unrepresentable.
func headerFields(validated any) (map[string]any, error) {
	switch m := validated.(type) {
	case map[string]any:
		return m, nil
	case map[string]string:
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[k] = v
		}
		return out, nil
	case nil:
		return map[string]any{}, nil
	default:
		return nil, &fetcherrors.UnrepresentableError{
			Container: "headers",
			Got:       typeName(validated),
		}
	}
}

func typeName(v any) string {
	return fmt.Sprintf("%T", v)
}
