// Package schemafetch is a validating HTTP client pipeline.
//
// schemafetch sits between a caller and an *http.Client, injecting optional
// runtime schema validation into the outgoing request and the incoming
// response. When no validation is configured, every call behaves identically
// to using the underlying transport directly: the pipeline is a drop-in
// replacement, not a framework.
//
// # Overview
//
// The module consists of the root package plus the supporting packages:
//
//   - schemafetch: the Client, Request/Response types, header normalization
//     and the body classifier (this package)
//   - schema: the pluggable validation adapter contract
//   - schema/jsonschema: an adapter backed by JSON Schema
//   - serializer: the replaceable body codec (JSON default, YAML provided)
//   - fetcherrors: structured error types for errors.Is / errors.As
//
// # Quick Start
//
// Create a client with a validation adapter and issue a validated call:
//
//	c, err := schemafetch.New(jsonschema.New())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	resp, err := c.Do(ctx, schemafetch.Request{
//		Method: http.MethodPost,
//		URL:    "https://api.example.com/pets",
//		Body:   schemafetch.JSON(map[string]any{"name": "tibbs"}),
//		Headers: schemafetch.HeaderMap(map[string]string{
//			"X-Request-ID": "abc123",
//		}),
//		Validate: schemafetch.Validate{
//			RequestBody:  petSchema,
//			ResponseBody: petSchema,
//		},
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	pet, err := resp.JSON()
//
// # Validation Model
//
// Request-side validation (headers, then body) completes strictly before
// any transport I/O; a failure means no network call was made. Response
// header validation is eager and runs before Do returns. Response body
// validation is lazy: it runs when a body-reading method (JSON, Text, Form,
// Values) is invoked. The response body can be consumed exactly once; use
// Clone for independent reads.
//
// # Errors
//
// All pipeline failures are typed in the fetcherrors package and support
// errors.Is and errors.As. Transport errors pass through from the
// underlying *http.Client unchanged.
package schemafetch
