package schemafetch

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/url"
	"strings"

	"github.com/rmosel/schemafetch/fetcherrors"
	"github.com/rmosel/schemafetch/internal/formcodec"
	"github.com/rmosel/schemafetch/schema"
)

// Body is an outgoing request body in one of the accepted shapes. The shape
// determines how the body is flattened for validation and how the validated
// result is rebuilt into the same wire form. A nil Body means no body.
type Body interface {
	bodyTag() string
}

type stringBody string

type bytesBody []byte

type readerBody struct{ r io.Reader }

type formBody url.Values

type valuesBody url.Values

type jsonBody struct{ v any }

func (stringBody) bodyTag() string { return "string" }
func (bytesBody) bodyTag() string  { return "binary" }
func (readerBody) bodyTag() string { return "stream" }
func (formBody) bodyTag() string   { return "form-data" }
func (valuesBody) bodyTag() string { return "url-search-params" }
func (jsonBody) bodyTag() string   { return "structured" }

// String wraps a raw string body. Under a request body schema with a JSON
// (or unset) content-type the string is decoded before validation; with any
// other content-type it is validated as an opaque scalar.
func String(s string) Body {
	return stringBody(s)
}

// Bytes wraps a binary body. Binary bodies are never flattened for
// validation; they pass through unchanged.
func Bytes(b []byte) Body {
	return bytesBody(b)
}

// Reader wraps a streaming body. Like Bytes, streams pass through without
// validation.
func Reader(r io.Reader) Body {
	return readerBody{r: r}
}

// Form wraps form fields to be sent as multipart/form-data. Under a schema
// the fields are flattened with the multi-value rule (a repeated key becomes
// an ordered sequence, a single occurrence stays scalar) and rebuilt after
// validation.
func Form(v url.Values) Body {
	return formBody(v)
}

// Values wraps form fields to be sent as application/x-www-form-urlencoded.
// Flattening and rebuilding follow the same rules as Form.
func Values(v url.Values) Body {
	return valuesBody(v)
}

// JSON wraps a structured value to be encoded by the client's serializer.
func JSON(v any) Body {
	return jsonBody{v: v}
}

// builtBody is the wire form produced by the classifier.
type builtBody struct {
	reader io.Reader
	// contentType is set when the body step wants to establish a
	// content-type; empty means leave headers alone.
	contentType string
	// force indicates the content-type must be applied even when the
	// caller set one (multipart bodies own their generated boundary).
	force bool
}

// buildBody classifies the outgoing body, runs request-body validation when
// a schema is configured, and produces the final wire form. hdrs is the
// normalized (and, when a header schema exists, already validated) header
// set; it is consulted for the content-type decision but never mutated here.
func (c *Client) buildBody(body Body, bodySchema schema.Schema, hdrs map[string]string) (*builtBody, error) {
	if body == nil {
		return &builtBody{}, nil
	}

	contentType := hdrs["content-type"]

	switch b := body.(type) {
	case stringBody:
		return c.buildStringBody(string(b), bodySchema, contentType)

	case bytesBody:
		// Validation is not offered for binary bodies.
		return &builtBody{reader: bytes.NewReader([]byte(b))}, nil

	case readerBody:
		return &builtBody{reader: b.r}, nil

	case formBody:
		values, err := c.validateFormValues(url.Values(b), bodySchema, "form-data")
		if err != nil {
			return nil, err
		}
		return encodeMultipart(values)

	case valuesBody:
		values, err := c.validateFormValues(url.Values(b), bodySchema, "url-search-params")
		if err != nil {
			return nil, err
		}
		return &builtBody{
			reader:      strings.NewReader(values.Encode()),
			contentType: "application/x-www-form-urlencoded",
		}, nil

	case jsonBody:
		return c.buildStructuredBody(b.v, bodySchema, contentType)

	default:
		return nil, &fetcherrors.ConfigError{Message: "unsupported body type " + typeName(body)}
	}
}

// buildStringBody handles the raw-string dispatch row.
func (c *Client) buildStringBody(s string, bodySchema schema.Schema, contentType string) (*builtBody, error) {
	if bodySchema == nil {
		return &builtBody{reader: strings.NewReader(s)}, nil
	}

	structured := contentType != "" && c.serializer.IsStructuredContentType(contentType)
	unset := contentType == ""

	// Build the validation pre-image.
	preimage := any(s)
	if structured || unset {
		decoded, err := c.serializer.Decode([]byte(s))
		switch {
		case err == nil:
			preimage = decoded
		case structured:
			// The caller asserted a structured format; a decode failure
			// is a body problem, not a validation problem.
			return nil, &fetcherrors.SerializationError{
				ContentType: contentType,
				Message:     "invalid JSON request body",
				Cause:       err,
			}
		default:
			// Content-type unset: treat the string as an opaque scalar.
		}
	}

	validated, err := c.adapter.Parse(bodySchema, preimage)
	if err != nil {
		return nil, &fetcherrors.ValidationError{Target: fetcherrors.TargetRequestBody, Cause: err}
	}

	// Re-encode when the content-type claims (or a missing content-type
	// permits) the structured format; otherwise the validated value must
	// itself be a string and is sent as-is.
	if structured || unset {
		encoded, err := c.serializer.Encode(validated)
		if err != nil {
			return nil, &fetcherrors.SerializationError{
				ContentType: contentType,
				Message:     "failed to encode validated request body",
				Cause:       err,
			}
		}
		return &builtBody{reader: bytes.NewReader(encoded)}, nil
	}

	out, ok := validated.(string)
	if !ok {
		return nil, &fetcherrors.UnrepresentableError{Container: "string body", Got: typeName(validated)}
	}
	return &builtBody{reader: strings.NewReader(out)}, nil
}

// buildStructuredBody handles the structured object/array rows. The
// content-type is established only when the header set does not already
// carry one: a caller-set or header-schema-produced content-type is never
// overwritten by the body step.
func (c *Client) buildStructuredBody(v any, bodySchema schema.Schema, contentType string) (*builtBody, error) {
	value := v
	if bodySchema != nil {
		validated, err := c.adapter.Parse(bodySchema, v)
		if err != nil {
			return nil, &fetcherrors.ValidationError{Target: fetcherrors.TargetRequestBody, Cause: err}
		}
		value = validated
	}

	encoded, err := c.serializer.Encode(value)
	if err != nil {
		return nil, &fetcherrors.SerializationError{
			Message: "failed to encode request body",
			Cause:   err,
		}
	}

	built := &builtBody{reader: bytes.NewReader(encoded)}
	if contentType == "" {
		built.contentType = "application/json"
	}
	return built, nil
}

// validateFormValues runs the flatten → validate → rebuild round trip for
// form and query containers. Without a schema the original container passes
// through untouched.
func (c *Client) validateFormValues(values url.Values, bodySchema schema.Schema, container string) (url.Values, error) {
	if bodySchema == nil {
		return values, nil
	}

	validated, err := c.adapter.Parse(bodySchema, formcodec.Flatten(values))
	if err != nil {
		return nil, &fetcherrors.ValidationError{Target: fetcherrors.TargetRequestBody, Cause: err}
	}

	return formcodec.Rebuild(validated, container, c.coercion == CoercionStrict)
}

// encodeMultipart writes form values as a multipart/form-data body. The
// generated boundary means the content-type must always be applied, even
// over a caller-supplied one.
func encodeMultipart(values url.Values) (*builtBody, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for key, vals := range values {
		for _, v := range vals {
			if err := w.WriteField(key, v); err != nil {
				return nil, &fetcherrors.SerializationError{
					Message: "failed to encode multipart field " + key,
					Cause:   err,
				}
			}
		}
	}
	if err := w.Close(); err != nil {
		return nil, &fetcherrors.SerializationError{Message: "failed to finalize multipart body", Cause: err}
	}
	return &builtBody{
		reader:      bytes.NewReader(buf.Bytes()),
		contentType: w.FormDataContentType(),
		force:       true,
	}, nil
}
