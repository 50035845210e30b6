package errors

import "fmt"

// ErrorType classifies pipeline failures
type ErrorType string

const (
	ErrorTypeConfig      ErrorType = "config"
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeAuth        ErrorType = "auth"
	ErrorTypeParsing     ErrorType = "parsing"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypePersist     ErrorType = "persist"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error represents a classified pipeline error. Source identifies the
// pipeline that produced it ("instagram", "gist", ...), Code carries the
// HTTP status when one is available.
type Error struct {
	Type    ErrorType
	Source  string
	Message string
	Code    int
}

func (e *Error) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("%s: %s error (code %d): %s", e.Source, e.Type, e.Code, e.Message)
	}
	return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
}

// New creates a classified error without a source attached.
func New(t ErrorType, code int, format string, args ...interface{}) *Error {
	return &Error{Type: t, Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithSource returns a copy of the error tagged with a pipeline name.
func (e *Error) WithSource(source string) *Error {
	clone := *e
	clone.Source = source
	return &clone
}

// IsRetryable reports whether an error type is worth retrying. Only image
// downloads are ever retried; API fetches fail the run on first error.
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeServerError:
		return true
	default:
		return false
	}
}

// IsRetryableStatusCode reports whether an HTTP status code indicates a
// transient failure.
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // network error, no response
		return true
	case 429:
		return true
	case 401, 403, 404:
		return false
	default:
		return statusCode >= 500
	}
}
