package schemafetch

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rmosel/schemafetch/fetcherrors"
	"github.com/rmosel/schemafetch/schema"
)

// Validate holds the optional schema slots for one call. A nil slot means
// no validation for that slot: the corresponding data passes through
// unchanged.
type Validate struct {
	// RequestBody validates the outgoing body before it is serialized to
	// wire form. Binary and stream bodies are never validated.
	RequestBody schema.Schema

	// RequestHeaders validates the normalized outgoing header set. Its
	// output is combined with the original headers according to the
	// client's header mode.
	RequestHeaders schema.Schema

	// ResponseBody validates the response body lazily, when a
	// body-reading method is invoked.
	ResponseBody schema.Schema

	// ResponseHeaders validates the response headers eagerly; a failure
	// fails the Do call before any body method is reachable.
	ResponseHeaders schema.Schema
}

// Request describes one call. It is consumed once by Do and never retained.
type Request struct {
	// Method is the HTTP method; defaults to GET (or to the Base
	// request's method when Base is set).
	Method string

	// URL is the target. Either URL or Base must be set.
	URL string

	// Base is an optional prebuilt request handle. Its transport-level
	// fields (trailers, transfer encoding, cookies, and so on) flow
	// through untouched; Method, URL, Body and Headers override the
	// corresponding parts when set.
	Base *http.Request

	// Body is the outgoing body shape, or nil for no body.
	Body Body

	// Headers is the outgoing header set in any accepted shape.
	Headers Headers

	// Validate holds the optional schema slots.
	Validate Validate

	// Host overrides the Host header at the transport level.
	Host string

	// Close requests closing the connection after this call.
	Close bool
}

// Do executes one call through the pipeline: header normalization and
// validation, body classification and validation, the transport round trip,
// and response decoration. Request-side validation failures are returned
// before any transport I/O occurs. Transport errors pass through unchanged.
//
// Cancellation is delegated entirely to ctx; the pipeline adds no timeout
// or abort logic of its own.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if req.URL == "" && req.Base == nil {
		return nil, &fetcherrors.ConfigError{Message: "request needs a URL or a base *http.Request"}
	}

	// 1. Normalize headers into the canonical lower-cased mapping.
	hdrs := normalizeHeaders(req.Headers)

	// 2. Header validation. Must complete (and may fail) strictly before
	// the network call is issued.
	if req.Validate.RequestHeaders != nil {
		validated, err := c.adapter.Parse(req.Validate.RequestHeaders, headerPreimage(hdrs))
		if err != nil {
			return nil, &fetcherrors.ValidationError{Target: fetcherrors.TargetRequestHeaders, Cause: err}
		}
		hdrs, err = mergeValidatedHeaders(hdrs, validated, c.headerMode, c.coercion == CoercionStrict)
		if err != nil {
			return nil, err
		}
	}

	// 3. Body classification, validation and serialization.
	built, err := c.buildBody(req.Body, req.Validate.RequestBody, hdrs)
	if err != nil {
		return nil, err
	}
	if built.contentType != "" && (built.force || hdrs["content-type"] == "") {
		hdrs["content-type"] = built.contentType
	}

	// 4. Assemble the outgoing request.
	hr, err := c.assemble(ctx, req, built.reader)
	if err != nil {
		return nil, err
	}
	for k, v := range hdrs {
		hr.Header.Set(k, v)
	}
	if c.userAgent != "" && hr.Header.Get("User-Agent") == "" {
		hr.Header.Set("User-Agent", c.userAgent)
	}
	if req.Host != "" {
		hr.Host = req.Host
	}
	if req.Close {
		hr.Close = true
	}

	// 5. Transport round trip.
	resp, err := c.httpClient.Do(hr)
	if err != nil {
		return nil, err
	}

	// 6. Decorate. Response header validation is eager: a failure here
	// fails the call before the caller can reach a body method.
	return newResponse(resp, c, req.Validate.ResponseBody, req.Validate.ResponseHeaders)
}

// Get issues a GET request with no body and no validation.
func (c *Client) Get(ctx context.Context, target string) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, URL: target})
}

// Post issues a POST request with the given body and no validation.
func (c *Client) Post(ctx context.Context, target string, body Body) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodPost, URL: target, Body: body})
}

// assemble produces the outgoing *http.Request, either fresh from the URL
// or by cloning the caller's base request handle.
func (c *Client) assemble(ctx context.Context, req Request, body io.Reader) (*http.Request, error) {
	if req.Base == nil {
		method := req.Method
		if method == "" {
			method = http.MethodGet
		}
		return http.NewRequestWithContext(ctx, method, req.URL, body)
	}

	hr := req.Base.Clone(ctx)
	if req.Method != "" {
		hr.Method = req.Method
	}
	if req.URL != "" {
		u, err := url.Parse(req.URL)
		if err != nil {
			return nil, &fetcherrors.ConfigError{Message: "invalid URL: " + err.Error()}
		}
		hr.URL = u
	}
	if body != nil {
		setRequestBody(hr, body)
	}
	return hr, nil
}

// setRequestBody installs a body on a cloned base request, mirroring
// http.NewRequest's content-length and body-replay handling for in-memory
// readers. GetBody lets the transport resend the body on 307/308 redirects.
func setRequestBody(hr *http.Request, body io.Reader) {
	switch v := body.(type) {
	case *bytes.Reader:
		hr.ContentLength = int64(v.Len())
		snapshot := *v
		hr.GetBody = func() (io.ReadCloser, error) {
			r := snapshot
			return io.NopCloser(&r), nil
		}
	case *strings.Reader:
		hr.ContentLength = int64(v.Len())
		snapshot := *v
		hr.GetBody = func() (io.ReadCloser, error) {
			r := snapshot
			return io.NopCloser(&r), nil
		}
	case *bytes.Buffer:
		hr.ContentLength = int64(v.Len())
		buf := v.Bytes()
		hr.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(buf)), nil
		}
	default:
		hr.ContentLength = 0
		hr.GetBody = nil
	}
	rc, ok := body.(io.ReadCloser)
	if !ok {
		rc = io.NopCloser(body)
	}
	hr.Body = rc
}

// headerPreimage converts the canonical header mapping into the generic
// structure handed to the adapter.
func headerPreimage(hdrs map[string]string) map[string]any {
	out := make(map[string]any, len(hdrs))
	for k, v := range hdrs {
		out[k] = v
	}
	return out
}
