package dex

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorKind classifies a catalog failure.
type ErrorKind int

const (
	// ErrorKindNetwork covers every failure that is not classified further.
	ErrorKindNetwork ErrorKind = iota
	// ErrorKindNotFound is an HTTP 404.
	ErrorKindNotFound
	// ErrorKindServer is an HTTP status >= 500.
	ErrorKindServer
	// ErrorKindTimeout is a client-side timeout.
	ErrorKindTimeout
)

// User-facing messages per error kind.
const (
	MessageNotFound = "Pokemon not found"
	MessageServer   = "Server error. Please try again later."
	MessageTimeout  = "Request timeout. Please check your connection."
	MessageNetwork  = "An unexpected error occurred."
)

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case ErrorKindNotFound:
		return "not-found"
	case ErrorKindServer:
		return "server-error"
	case ErrorKindTimeout:
		return "timeout"
	default:
		return "network"
	}
}

// Message returns the user-facing message for the kind.
func (k ErrorKind) Message() string {
	switch k {
	case ErrorKindNotFound:
		return MessageNotFound
	case ErrorKindServer:
		return MessageServer
	case ErrorKindTimeout:
		return MessageTimeout
	default:
		return MessageNetwork
	}
}

// Error is a normalized catalog failure.
type Error struct {
	Kind       ErrorKind `json:"kind"        yaml:"kind"`
	StatusCode int       `json:"status_code" yaml:"status_code"`
	Path       string    `json:"path"        yaml:"path"`
	Err        error     `json:"-"           yaml:"-"`
}

// Error implements the error interface with the user-facing message.
func (e *Error) Error() string {
	return e.Kind.Message()
}

// Unwrap returns the underlying transport error, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so the sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return t.Kind == e.Kind
}

// Detail describes the failure for logs.
func (e *Error) Detail() string {
	detail := fmt.Sprintf("%s (status: %d, path: %s)", e.Kind, e.StatusCode, e.Path)
	if e.Err != nil {
		detail += ": " + e.Err.Error()
	}

	return detail
}

// Sentinel errors for errors.Is.
var (
	ErrNotFound    = &Error{Kind: ErrorKindNotFound}
	ErrServerError = &Error{Kind: ErrorKindServer}
	ErrTimeout     = &Error{Kind: ErrorKindTimeout}
	ErrNetwork     = &Error{Kind: ErrorKindNetwork}
)

// Common static errors that can be wrapped with context.
var (
	ErrConfigRequired      = errors.New("config is required")
	ErrAPIEndpointRequired = errors.New("API endpoint is required")
	ErrInvalidSortField    = errors.New("invalid sort field")
	ErrInvalidSortOrder    = errors.New("invalid sort direction")
	ErrInvalidResourceID   = errors.New("invalid resource ID")
	ErrNoClient            = errors.New("no catalog client configured")
	ErrInvalidPage         = errors.New("page must be at least 1")
	ErrNothingToRetry      = errors.New("no fetch to retry")
)

// NewStatusError classifies an HTTP status code.
func NewStatusError(statusCode int, path string) *Error {
	kind := ErrorKindNetwork

	switch {
	case statusCode == 404:
		kind = ErrorKindNotFound
	case statusCode >= 500:
		kind = ErrorKindServer
	}

	return &Error{Kind: kind, StatusCode: statusCode, Path: path}
}

// NewTransportError classifies an error raised before a response arrived.
func NewTransportError(err error, path string) *Error {
	kind := ErrorKindNetwork

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		kind = ErrorKindTimeout
	}

	return &Error{Kind: kind, Path: path, Err: err}
}

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsServerError checks if the error is a server error.
func IsServerError(err error) bool {
	return errors.Is(err, ErrServerError)
}

// IsTimeout checks if the error is a timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// UserMessage returns the message shown to users for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	apiErr := &Error{}
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return MessageTimeout
	}

	return MessageNetwork
}
