package schemafetch

import (
	"net/http"

	"github.com/rmosel/schemafetch/fetcherrors"
	"github.com/rmosel/schemafetch/serializer"
)

// Option is a functional option for configuring a Client.
type Option func(*Client) error

// WithHTTPClient sets the underlying transport. Default is
// http.DefaultClient. The pipeline never modifies the client; redirect
// policy, cookie jar, timeouts and connection pooling all belong to it.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc == nil {
			return &fetcherrors.ConfigError{Message: "http client cannot be nil"}
		}
		c.httpClient = hc
		return nil
	}
}

// WithSerializer replaces the default JSON serializer. The serializer's
// content-type predicate decides which bodies are decoded for validation.
func WithSerializer(s serializer.Serializer) Option {
	return func(c *Client) error {
		if s == nil {
			return &fetcherrors.ConfigError{Message: "serializer cannot be nil"}
		}
		c.serializer = s
		return nil
	}
}

// WithHeaderMode sets how request header schema output is combined with the
// original headers. Default is HeaderModePreserve.
func WithHeaderMode(mode HeaderMode) Option {
	return func(c *Client) error {
		if mode != HeaderModePreserve && mode != HeaderModeStrict {
			return &fetcherrors.ConfigError{Message: "invalid header mode"}
		}
		c.headerMode = mode
		return nil
	}
}

// WithCoercionPolicy sets how non-string validated values are stringified
// for headers and form fields. Default is CoercionNative.
func WithCoercionPolicy(policy CoercionPolicy) Option {
	return func(c *Client) error {
		if policy != CoercionNative && policy != CoercionStrict {
			return &fetcherrors.ConfigError{Message: "invalid coercion policy"}
		}
		c.coercion = policy
		return nil
	}
}

// WithUserAgent overrides the default User-Agent sent when the caller did
// not set one on the request. An empty value disables the default entirely.
func WithUserAgent(ua string) Option {
	return func(c *Client) error {
		c.userAgent = ua
		return nil
	}
}
