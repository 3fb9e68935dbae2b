// Package fetcherrors provides structured error types for schemafetch.
//
// These error types enable programmatic error handling via errors.Is() and
// errors.As(), allowing callers to distinguish between the categories of
// failure the pipeline can produce and react to each appropriately.
//
// # Error Categories
//
//   - ValidationError: a schema adapter rejected request or response data
//   - SerializationError: a body could not be decoded as its declared format
//   - UnrepresentableError: a validated result cannot be rebuilt into its
//     original wire container
//   - CoercionError: a validated value cannot be stringified under the
//     strict coercion policy
//   - BodyConsumedError: a second read of a response body that has already
//     been consumed
//   - ConfigError: invalid client configuration or request options
//
// Transport errors are never wrapped by this package; they pass through
// from the underlying *http.Client unchanged.
//
// # Usage with errors.Is
//
//	resp, err := client.Do(ctx, req)
//	if errors.Is(err, fetcherrors.ErrValidation) {
//	    var verr *fetcherrors.ValidationError
//	    if errors.As(err, &verr) {
//	        log.Printf("invalid %s: %v", verr.Target, verr.Cause)
//	    }
//	}
package fetcherrors

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is().
// These allow quick checks without type assertions.
var (
	// ErrValidation indicates a schema adapter rejected the data.
	ErrValidation = errors.New("validation error")

	// ErrSerialization indicates a body-decoding failure.
	ErrSerialization = errors.New("serialization error")

	// ErrUnrepresentable indicates a validated result that cannot be
	// round-tripped into its original wire container.
	ErrUnrepresentable = errors.New("unrepresentable result")

	// ErrCoercion indicates a value that cannot be stringified under the
	// strict coercion policy.
	ErrCoercion = errors.New("coercion error")

	// ErrBodyConsumed indicates the response body was already read.
	ErrBodyConsumed = errors.New("body already consumed")

	// ErrConfig indicates an invalid configuration.
	ErrConfig = errors.New("configuration error")
)

// Validation targets identify which part of the exchange failed validation.
const (
	TargetRequestBody     = "request.body"
	TargetRequestHeaders  = "request.headers"
	TargetResponseBody    = "response.body"
	TargetResponseHeaders = "response.headers"
)

// ValidationError represents a schema validation failure raised by the
// configured adapter. The adapter's own error is carried unmodified in Cause
// so callers can still unwrap to their validation library's error type.
type ValidationError struct {
	// Target names the validated slot: one of the Target* constants.
	Target string
	// Cause is the adapter's error, unmodified.
	Cause error
}

// Error returns a human-readable error message.
func (e *ValidationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("validation of %s failed: %v", e.Target, e.Cause)
	}
	return fmt.Sprintf("validation of %s failed", e.Target)
}

// Unwrap returns the adapter's error for error chaining.
func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// SerializationError represents a failure to decode a body whose
// content-type asserted a structured format.
type SerializationError struct {
	// ContentType is the declared content type of the body, if any.
	ContentType string
	// Message identifies what was being decoded.
	Message string
	// Cause is the underlying decode error, if any.
	Cause error
}

// Error returns a human-readable error message.
func (e *SerializationError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "serialization error"
	}
	if e.ContentType != "" {
		msg += fmt.Sprintf(" (content-type %s)", e.ContentType)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *SerializationError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *SerializationError) Is(target error) bool {
	return target == ErrSerialization
}

// UnrepresentableError indicates a schema transformed data into a shape
// that cannot be rebuilt into its original wire container. Returning the
// unvalidated original instead would silently defeat validation, so this
// surfaces as a hard failure.
type UnrepresentableError struct {
	// Container names the wire container that could not be rebuilt,
	// e.g. "form-data", "url-search-params", "text".
	Container string
	// Got describes the Go type the schema produced.
	Got string
}

// Error returns a human-readable error message.
func (e *UnrepresentableError) Error() string {
	return fmt.Sprintf("validated result of type %s cannot be represented as %s", e.Got, e.Container)
}

// Is reports whether target matches this error type.
func (e *UnrepresentableError) Is(target error) bool {
	return target == ErrUnrepresentable
}

// CoercionError indicates a validated header or form value that cannot be
// converted to a wire string under the strict coercion policy.
type CoercionError struct {
	// Key is the header or form field name.
	Key string
	// Got describes the Go type of the offending value.
	Got string
}

// Error returns a human-readable error message.
func (e *CoercionError) Error() string {
	return fmt.Sprintf("value of type %s for %q cannot be coerced to a string under the strict policy", e.Got, e.Key)
}

// Is reports whether target matches this error type.
func (e *CoercionError) Is(target error) bool {
	return target == ErrCoercion
}

// BodyConsumedError indicates a second body-reading call on a response
// whose body stream has already been consumed.
type BodyConsumedError struct {
	// Method is the body-reading method that failed, e.g. "JSON".
	Method string
	// ConsumedBy is the method that consumed the body first.
	ConsumedBy string
}

// Error returns a human-readable error message.
func (e *BodyConsumedError) Error() string {
	if e.ConsumedBy != "" && e.ConsumedBy != e.Method {
		return fmt.Sprintf("%s: body already consumed by %s", e.Method, e.ConsumedBy)
	}
	return fmt.Sprintf("%s: body already consumed", e.Method)
}

// Is reports whether target matches this error type.
func (e *BodyConsumedError) Is(target error) bool {
	return target == ErrBodyConsumed
}

// ConfigError indicates invalid client configuration or request options.
type ConfigError struct {
	// Message describes the configuration problem.
	Message string
}

// Error returns a human-readable error message.
func (e *ConfigError) Error() string {
	if e.Message == "" {
		return "configuration error"
	}
	return "configuration error: " + e.Message
}

// Is reports whether target matches this error type.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}
