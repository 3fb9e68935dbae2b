package schemafetch

import (
	"net/http"

	"github.com/rmosel/schemafetch/fetcherrors"
	"github.com/rmosel/schemafetch/schema"
	"github.com/rmosel/schemafetch/serializer"
)

// HeaderMode selects how a request header schema's output is combined with
// the original header set.
type HeaderMode int

const (
	// HeaderModePreserve merges validated headers on top of the original
	// set: names unknown to the schema are retained, schema values
	// overwrite same-named originals, and a nil schema value deletes that
	// header. This is the default.
	HeaderModePreserve HeaderMode = iota

	// HeaderModeStrict keeps only the header names the schema actually
	// emitted; every other original header is dropped.
	HeaderModeStrict
)

// String returns the mode name.
func (m HeaderMode) String() string {
	switch m {
	case HeaderModePreserve:
		return "preserve"
	case HeaderModeStrict:
		return "strict"
	default:
		return "unknown"
	}
}

// CoercionPolicy selects how non-string validated values become wire
// strings when rebuilding headers and form fields.
type CoercionPolicy int

const (
	// CoercionNative converts values best-effort: scalars via strconv,
	// anything else via its default formatting. This is the default.
	CoercionNative CoercionPolicy = iota

	// CoercionStrict accepts only strings, booleans and numbers, and
	// fails with a CoercionError for anything else.
	CoercionStrict
)

// String returns the policy name.
func (p CoercionPolicy) String() string {
	switch p {
	case CoercionNative:
		return "native"
	case CoercionStrict:
		return "strict"
	default:
		return "unknown"
	}
}

// Client is a validating wrapper around an *http.Client. Every call that
// supplies no validation behaves identically to calling the underlying
// transport directly; validation is a strictly additive, per-call
// transformation.
//
// A Client holds only immutable configuration and is safe to share between
// goroutines; each Do call allocates its own working state.
//
// Create a Client using the New function:
//
//	c, err := schemafetch.New(jsonschema.New())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	resp, err := c.Do(ctx, schemafetch.Request{
//	    Method: http.MethodGet,
//	    URL:    "https://api.example.com/pets",
//	})
type Client struct {
	httpClient *http.Client
	adapter    schema.Adapter
	serializer serializer.Serializer
	headerMode HeaderMode
	coercion   CoercionPolicy
	userAgent  string
}

// New creates a Client backed by the given validation adapter. The adapter
// is mandatory; serializer, header mode, coercion policy and transport are
// configured through options.
func New(adapter schema.Adapter, opts ...Option) (*Client, error) {
	if adapter == nil {
		return nil, &fetcherrors.ConfigError{Message: "adapter cannot be nil"}
	}

	c := &Client{
		httpClient: http.DefaultClient,
		adapter:    adapter,
		serializer: serializer.JSON(),
		headerMode: HeaderModePreserve,
		coercion:   CoercionNative,
		userAgent:  UserAgent(),
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}
