package schemafetch

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/rmosel/schemafetch/fetcherrors"
	"github.com/rmosel/schemafetch/internal/formcodec"
	"github.com/rmosel/schemafetch/schema"
	"github.com/rmosel/schemafetch/serializer"
)

// Response decorates the transport's response with schema-validated access
// to headers and body. Header validation is eager (it runs before Do
// returns, when a response header schema exists); body validation is lazy
// and runs when a body-reading method is invoked.
//
// The body can be read exactly once across JSON, Text, Bytes, Form and
// Values, mirroring the one-shot nature of the underlying body stream. Use
// Clone to obtain an independently readable copy.
//
// A Response is owned by a single caller and is not safe for concurrent
// use.
type Response struct {
	resp *http.Response

	adapter      schema.Adapter
	serializer   serializer.Serializer
	coerceStrict bool

	bodySchema   schema.Schema
	headerSchema schema.Schema

	// validated-headers cache: populated at most once, immutable after.
	hdrsValue any
	hdrsDone  bool

	// body-consumed flag mirrors the underlying single-read guarantee.
	consumed   bool
	consumedBy string
}

// newResponse wraps a transport response. When a response header schema is
// supplied, validation runs here; a failure closes the underlying body and
// fails construction before any body method is reachable.
func newResponse(resp *http.Response, c *Client, bodySchema, headerSchema schema.Schema) (*Response, error) {
	r := &Response{
		resp:         resp,
		adapter:      c.adapter,
		serializer:   c.serializer,
		coerceStrict: c.coercion == CoercionStrict,
		bodySchema:   bodySchema,
		headerSchema: headerSchema,
	}

	if headerSchema != nil {
		if _, err := r.ValidatedHeaders(); err != nil {
			if resp.Body != nil {
				resp.Body.Close()
			}
			return nil, err
		}
	}

	return r, nil
}

// StatusCode returns the response status code.
func (r *Response) StatusCode() int {
	return r.resp.StatusCode
}

// Status returns the response status line, e.g. "200 OK".
func (r *Response) Status() string {
	return r.resp.Status
}

// Header returns the underlying response headers, unvalidated.
func (r *Response) Header() http.Header {
	return r.resp.Header
}

// Unwrap returns the underlying *http.Response. The body stream is shared
// with the decorator; reading it directly bypasses the consumed-body
// bookkeeping.
func (r *Response) Unwrap() *http.Response {
	return r.resp
}

// ValidatedHeaders returns the response headers after schema validation.
// The value is computed at most once and cached; repeat access does not
// re-invoke the adapter. Without a response header schema the normalized
// headers pass through unchanged.
func (r *Response) ValidatedHeaders() (any, error) {
	if r.hdrsDone {
		return r.hdrsValue, nil
	}

	preimage := headerPreimage(normalizeHeaders(HeaderHTTP(r.resp.Header)))
	if r.headerSchema == nil {
		r.hdrsValue = preimage
		r.hdrsDone = true
		return r.hdrsValue, nil
	}

	validated, err := r.adapter.Parse(r.headerSchema, preimage)
	if err != nil {
		return nil, &fetcherrors.ValidationError{Target: fetcherrors.TargetResponseHeaders, Cause: err}
	}
	r.hdrsValue = validated
	r.hdrsDone = true
	return r.hdrsValue, nil
}

// JSON reads and decodes the body, then applies the response body schema if
// one is configured. Returns the validated (possibly transformed) value.
func (r *Response) JSON() (any, error) {
	body, err := r.consume("JSON")
	if err != nil {
		return nil, err
	}

	decoded, err := r.serializer.Decode(body)
	if err != nil {
		return nil, &fetcherrors.SerializationError{
			ContentType: r.resp.Header.Get("Content-Type"),
			Message:     "invalid JSON response body",
			Cause:       err,
		}
	}

	if r.bodySchema == nil {
		return decoded, nil
	}
	validated, err := r.adapter.Parse(r.bodySchema, decoded)
	if err != nil {
		return nil, &fetcherrors.ValidationError{Target: fetcherrors.TargetResponseBody, Cause: err}
	}
	return validated, nil
}

// Text reads the body as a string. Under a response body schema the string
// is validated and the validated result must itself be a string.
func (r *Response) Text() (string, error) {
	body, err := r.consume("Text")
	if err != nil {
		return "", err
	}

	if r.bodySchema == nil {
		return string(body), nil
	}
	validated, err := r.adapter.Parse(r.bodySchema, string(body))
	if err != nil {
		return "", &fetcherrors.ValidationError{Target: fetcherrors.TargetResponseBody, Cause: err}
	}
	s, ok := validated.(string)
	if !ok {
		return "", &fetcherrors.UnrepresentableError{Container: "text", Got: typeName(validated)}
	}
	return s, nil
}

// Bytes reads the raw body. Binary reads are never validated.
func (r *Response) Bytes() ([]byte, error) {
	return r.consume("Bytes")
}

// Form reads the body as form data. Both multipart/form-data and
// application/x-www-form-urlencoded responses are accepted, selected by the
// response content-type. Under a response body schema the fields are
// flattened with the multi-value rule, validated, and rebuilt; a
// non-mapping validated result is an irrecoverable condition.
func (r *Response) Form() (url.Values, error) {
	body, err := r.consume("Form")
	if err != nil {
		return nil, err
	}

	contentType := r.resp.Header.Get("Content-Type")
	mediaType, params, _ := mime.ParseMediaType(contentType)

	var values url.Values
	if strings.HasPrefix(mediaType, "multipart/") {
		values, err = parseMultipart(body, params["boundary"])
	} else {
		values, err = url.ParseQuery(string(body))
	}
	if err != nil {
		return nil, &fetcherrors.SerializationError{
			ContentType: contentType,
			Message:     "invalid form response body",
			Cause:       err,
		}
	}

	return r.validateForm(values, "form-data")
}

// Values reads the body as application/x-www-form-urlencoded, regardless of
// the response content-type. Validation follows the same rules as Form.
func (r *Response) Values() (url.Values, error) {
	body, err := r.consume("Values")
	if err != nil {
		return nil, err
	}

	values, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, &fetcherrors.SerializationError{
			ContentType: r.resp.Header.Get("Content-Type"),
			Message:     "invalid url-encoded response body",
			Cause:       err,
		}
	}

	return r.validateForm(values, "url-search-params")
}

// Clone returns a fully independent decorator over the same response data.
// The clone's body-consumed state and validated-header cache are decoupled
// from the original; reading each copy independently yields the same data.
// Cloning a response whose body is already consumed fails.
func (r *Response) Clone() (*Response, error) {
	if r.consumed {
		return nil, &fetcherrors.BodyConsumedError{Method: "Clone", ConsumedBy: r.consumedBy}
	}

	var body []byte
	if r.resp.Body != nil {
		var err error
		body, err = io.ReadAll(r.resp.Body)
		if err != nil {
			return nil, err
		}
		r.resp.Body.Close()
		r.resp.Body = io.NopCloser(bytes.NewReader(body))
	}

	cloned := *r.resp
	cloned.Body = io.NopCloser(bytes.NewReader(body))

	nr := &Response{
		resp:         &cloned,
		adapter:      r.adapter,
		serializer:   r.serializer,
		coerceStrict: r.coerceStrict,
		bodySchema:   r.bodySchema,
		headerSchema: r.headerSchema,
		// The cache value is immutable once computed, so the clone may
		// start from the same value; the flag storage is its own.
		hdrsValue: r.hdrsValue,
		hdrsDone:  r.hdrsDone,
	}
	return nr, nil
}

// Close discards the response without reading it, releasing the underlying
// connection. Safe to call after a body method.
func (r *Response) Close() error {
	if r.resp.Body == nil || r.consumed {
		return nil
	}
	r.consumed = true
	r.consumedBy = "Close"
	return r.resp.Body.Close()
}

// consume reads the underlying body exactly once. A second call fails,
// mirroring the one-shot body stream of the transport.
func (r *Response) consume(method string) ([]byte, error) {
	if r.consumed {
		return nil, &fetcherrors.BodyConsumedError{Method: method, ConsumedBy: r.consumedBy}
	}
	r.consumed = true
	r.consumedBy = method

	if r.resp.Body == nil {
		return nil, nil
	}
	defer r.resp.Body.Close()
	return io.ReadAll(r.resp.Body)
}

// validateForm runs the flatten → validate → rebuild round trip on parsed
// form values when a response body schema is configured.
func (r *Response) validateForm(values url.Values, container string) (url.Values, error) {
	if r.bodySchema == nil {
		return values, nil
	}

	validated, err := r.adapter.Parse(r.bodySchema, formcodec.Flatten(values))
	if err != nil {
		return nil, &fetcherrors.ValidationError{Target: fetcherrors.TargetResponseBody, Cause: err}
	}
	return formcodec.Rebuild(validated, container, r.coerceStrict)
}

// parseMultipart reads multipart/form-data fields into form values,
// preserving repeated-field order. File parts are read as their content.
func parseMultipart(body []byte, boundary string) (url.Values, error) {
	if boundary == "" {
		return nil, &fetcherrors.SerializationError{Message: "multipart response without boundary"}
	}

	values := make(url.Values)
	mr := multipart.NewReader(bytes.NewReader(body), boundary)
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return values, nil
		}
		if err != nil {
			return nil, err
		}
		content, err := io.ReadAll(part)
		part.Close()
		if err != nil {
			return nil, err
		}
		values.Add(part.FormName(), string(content))
	}
}
