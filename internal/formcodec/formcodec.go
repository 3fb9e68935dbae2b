// Package formcodec flattens form and query containers into plain structures
// suitable for schema validation, and rebuilds the validated result into the
// original container shape.
package formcodec

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/rmosel/schemafetch/fetcherrors"
)

// Flatten converts form values into a plain mapping for validation.
// A key with a single value stays a scalar string; a repeated key becomes an
// ordered []any of its values. The asymmetry is deliberate and must survive
// the round trip back to wire form.
func Flatten(values url.Values) map[string]any {
	out := make(map[string]any, len(values))
	for key, vals := range values {
		switch len(vals) {
		case 0:
			out[key] = ""
		case 1:
			out[key] = vals[0]
		default:
			seq := make([]any, len(vals))
			for i, v := range vals {
				seq[i] = v
			}
			out[key] = seq
		}
	}
	return out
}

// Rebuild converts a validated result back into form values. The result must
// be a mapping; anything else cannot re-enter a form container and yields an
// UnrepresentableError naming the container. Scalar values become a single
// entry; sequence values become repeated entries in order, stringified
// according to the coercion policy.
func Rebuild(validated any, container string, strict bool) (url.Values, error) {
	var fields map[string]any
	switch m := validated.(type) {
	case map[string]any:
		fields = m
	case map[string]string:
		fields = make(map[string]any, len(m))
		for k, v := range m {
			fields[k] = v
		}
	case url.Values:
		return m, nil
	default:
		return nil, &fetcherrors.UnrepresentableError{
			Container: container,
			Got:       fmt.Sprintf("%T", validated),
		}
	}

	out := make(url.Values, len(fields))
	for key, value := range fields {
		if value == nil {
			continue
		}
		switch seq := value.(type) {
		case []any:
			for _, item := range seq {
				s, err := Stringify(key, item, strict)
				if err != nil {
					return nil, err
				}
				out.Add(key, s)
			}
		case []string:
			for _, item := range seq {
				out.Add(key, item)
			}
		default:
			s, err := Stringify(key, value, strict)
			if err != nil {
				return nil, err
			}
			out.Add(key, s)
		}
	}
	return out, nil
}

// Stringify converts a validated value to its wire string. Under the native
// policy any value is converted best-effort; under the strict policy only
// strings, booleans and numbers are accepted.
func Stringify(key string, value any, strict bool) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), nil
	}
	if strict {
		return "", &fetcherrors.CoercionError{Key: key, Got: fmt.Sprintf("%T", value)}
	}
	return fmt.Sprint(value), nil
}
