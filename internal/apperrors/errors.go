// Package apperrors provides the typed error values shared by the API server and the learner client
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"error"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches errors by code so that errors.Is(err, ErrAccessDenied) holds for
// any error carrying the ACCESS_DENIED code regardless of its message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors.
var (
	ErrNetwork                = New("NETWORK_ERROR", http.StatusServiceUnavailable, "service unreachable")
	ErrNotFound               = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrAccessDenied           = New("ACCESS_DENIED", http.StatusForbidden, "access denied")
	ErrInvalidStateTransition = New("INVALID_STATE_TRANSITION", http.StatusConflict, "invalid enrollment state transition")
	ErrInvalidReference       = New("INVALID_REFERENCE", http.StatusBadRequest, "invalid reference")
	ErrValidation             = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrUnauthorized           = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict               = New("CONFLICT", http.StatusConflict, "conflict")
	ErrInternal               = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
)

var byCode = map[string]*Error{}

func init() {
	for _, e := range []*Error{
		ErrNetwork, ErrNotFound, ErrAccessDenied, ErrInvalidStateTransition,
		ErrInvalidReference, ErrValidation, ErrUnauthorized, ErrConflict, ErrInternal,
	} {
		byCode[e.Code] = e
	}
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// FromResponse rebuilds an error from the status and body fields of an API error response.
//
// Unknown codes fall back to the HTTP status: 401, 403, 404 and 409 keep their
// usual meaning, other 4xx become validation errors and 5xx become network errors.
func FromResponse(status int, code, message string) *Error {
	base, ok := byCode[code]
	if !ok {
		switch {
		case status == http.StatusUnauthorized:
			base = ErrUnauthorized
		case status == http.StatusForbidden:
			base = ErrAccessDenied
		case status == http.StatusNotFound:
			base = ErrNotFound
		case status == http.StatusConflict:
			base = ErrInvalidStateTransition
		case status >= 500:
			base = ErrNetwork
		default:
			base = ErrValidation
		}
	}
	e := Clone(base, message)
	e.Status = status
	return e
}
