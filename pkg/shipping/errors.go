package shipping

import (
	"errors"
	"fmt"
)

// ConfigurationError indicates the carrier client was constructed with
// insufficient credentials. It is fatal and raised before any request
// is built.
type ConfigurationError struct {
	Carrier string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s configuration error: %s", e.Carrier, e.Reason)
}

// ValidationError indicates required fields are missing or malformed
// before a request is sent. No network call is attempted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ResponseError indicates the carrier itself reported a failure. The
// carrier's literal diagnostic text is preserved verbatim so callers
// can display or match on it.
type ResponseError struct {
	Carrier  string
	Severity string
	Code     string
	Message  string
}

func (e *ResponseError) Error() string {
	return e.Message
}

// Is matches ResponseErrors by carrier error code.
func (e *ResponseError) Is(target error) bool {
	t, ok := target.(*ResponseError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// TransportError wraps an opaque failure from the transport layer
// (network, timeout). It is passed through to the caller unchanged.
type TransportError struct {
	Carrier string
	Cause   error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s transport error: %v", e.Carrier, e.Cause)
}

// Unwrap returns the underlying transport failure.
func (e *TransportError) Unwrap() error {
	return e.Cause
}

// IsResponseError reports whether err is a carrier-reported failure,
// as opposed to a local validation or transport problem.
func IsResponseError(err error) bool {
	var respErr *ResponseError
	return errors.As(err, &respErr)
}

// IsTransportError reports whether err originated in the transport
// layer. Transport failures are the only errors a caller might
// reasonably retry.
func IsTransportError(err error) bool {
	var transportErr *TransportError
	return errors.As(err, &transportErr)
}
