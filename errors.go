package aguichat

import (
	"errors"
	"fmt"
)

// ErrBusy is returned by Send when a stream is already in flight.
// The in-flight stream is not aborted; the new send is simply rejected.
var ErrBusy = errors.New("request already in flight")

// ErrorCategory classifies stream errors by how they should be handled.
type ErrorCategory string

const (
	// ErrorTransport indicates the HTTP request itself failed (non-2xx
	// status, missing or broken response body). Fatal for the current
	// request; already-applied state is not rolled back.
	ErrorTransport ErrorCategory = "transport"

	// ErrorDecode indicates a malformed event payload. Recoverable: the
	// record is dropped and the stream continues.
	ErrorDecode ErrorCategory = "decode"

	// ErrorProtocol indicates the agent reported a RUN_ERROR event.
	// Surfaced as the session error; the stream may still continue.
	ErrorProtocol ErrorCategory = "protocol"
)

// Error is a categorized stream error.
type Error struct {
	Msg   string
	Cat   ErrorCategory
	Code  int   // HTTP status code, 0 if not applicable
	Cause error // underlying error
}

// Error returns the error message.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Cause)
	}
	return e.Msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Category returns the error category.
func (e *Error) Category() ErrorCategory {
	return e.Cat
}

// NewTransportError creates a fatal transport error.
func NewTransportError(msg string, statusCode int, cause error) *Error {
	return &Error{
		Msg:   msg,
		Cat:   ErrorTransport,
		Code:  statusCode,
		Cause: cause,
	}
}

// NewDecodeError creates a recoverable decode error for a dropped record.
func NewDecodeError(msg string, cause error) *Error {
	return &Error{
		Msg:   msg,
		Cat:   ErrorDecode,
		Cause: cause,
	}
}

// NewProtocolError creates an error from an agent RUN_ERROR event.
func NewProtocolError(msg string) *Error {
	return &Error{
		Msg: msg,
		Cat: ErrorProtocol,
	}
}

// IsTransport returns true if the error is categorized as a transport error.
func IsTransport(err error) bool {
	return categoryOf(err) == ErrorTransport
}

// IsDecode returns true if the error is categorized as a decode error.
func IsDecode(err error) bool {
	return categoryOf(err) == ErrorDecode
}

// IsProtocol returns true if the error is categorized as a protocol error.
func IsProtocol(err error) bool {
	return categoryOf(err) == ErrorProtocol
}

func categoryOf(err error) ErrorCategory {
	var e *Error
	if errors.As(err, &e) {
		return e.Cat
	}
	return ""
}

// StatusCodeOf returns the HTTP status code from a categorized error, or 0.
func StatusCodeOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return 0
}
