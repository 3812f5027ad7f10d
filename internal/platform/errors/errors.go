// Package errors provides typed application errors that map onto HTTP status
// codes and a stable JSON error body.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorType string

const (
	TypeValidation   ErrorType = "validation"   // 400
	TypeUnauthorized ErrorType = "unauthorized" // 401
	TypeNotFound     ErrorType = "not_found"    // 404
	TypeConflict     ErrorType = "conflict"     // 409
	TypeTooLarge     ErrorType = "too_large"    // 413
	TypeRateLimited  ErrorType = "rate_limited" // 429
	TypeInternal     ErrorType = "internal"     // 500
	TypeExternal     ErrorType = "external"     // 502
)

type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]any
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) HTTPStatus() int {
	switch e.Type {
	case TypeValidation:
		return http.StatusBadRequest
	case TypeUnauthorized:
		return http.StatusUnauthorized
	case TypeNotFound:
		return http.StatusNotFound
	case TypeConflict:
		return http.StatusConflict
	case TypeTooLarge:
		return http.StatusRequestEntityTooLarge
	case TypeRateLimited:
		return http.StatusTooManyRequests
	case TypeExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func newError(t ErrorType, message string, cause error) *Error {
	return &Error{
		Type:    t,
		Message: message,
		Cause:   cause,
		Context: make(map[string]any),
	}
}

func ValidationError(message string) *Error {
	return newError(TypeValidation, message, nil)
}

func UnauthorizedError(message string) *Error {
	return newError(TypeUnauthorized, message, nil)
}

func NotFoundError(message string) *Error {
	return newError(TypeNotFound, message, nil)
}

func ConflictError(message string) *Error {
	return newError(TypeConflict, message, nil)
}

func TooLargeError(message string) *Error {
	return newError(TypeTooLarge, message, nil)
}

func RateLimitedError(message string) *Error {
	return newError(TypeRateLimited, message, nil)
}

func InternalError(message string, cause error) *Error {
	return newError(TypeInternal, message, cause)
}

func ExternalError(message string, cause error) *Error {
	return newError(TypeExternal, message, cause)
}

// WithField attaches a key/value that is logged and returned to the client.
func (e *Error) WithField(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// ErrorResponse is the JSON body sent to clients.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Type    ErrorType      `json:"type"`
	Context map[string]any `json:"context,omitempty"`
}

func (e *Error) ToResponse() ErrorResponse {
	return ErrorResponse{
		Error:   e.Message,
		Type:    e.Type,
		Context: e.Context,
	}
}

// FromHTTPStatus builds an error of the type matching status. Statuses
// without a dedicated type become internal errors.
func FromHTTPStatus(status int, message string) *Error {
	var t ErrorType
	switch status {
	case http.StatusBadRequest, http.StatusUnsupportedMediaType:
		t = TypeValidation
	case http.StatusRequestEntityTooLarge:
		t = TypeTooLarge
	case http.StatusUnauthorized, http.StatusForbidden:
		t = TypeUnauthorized
	case http.StatusNotFound:
		t = TypeNotFound
	case http.StatusConflict:
		t = TypeConflict
	case http.StatusTooManyRequests:
		t = TypeRateLimited
	case http.StatusBadGateway, http.StatusServiceUnavailable:
		t = TypeExternal
	default:
		t = TypeInternal
	}
	return newError(t, message, nil)
}

// AsStructuredError returns err's *Error if it wraps one and otherwise wraps
// err as an internal error with a generic message.
func AsStructuredError(err error) *Error {
	if err == nil {
		return nil
	}

	var structuredErr *Error
	if errors.As(err, &structuredErr) {
		return structuredErr
	}

	return InternalError("internal server error", err)
}
