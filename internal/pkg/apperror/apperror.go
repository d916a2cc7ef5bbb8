// Package apperror classifies domain failures so transport layers can map
// them without knowing every sentinel.
package apperror

import "errors"

// Categories. Every *Error unwraps to exactly one of these.
var (
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrBadRequest = errors.New("bad request")
)

type Error struct {
	kind    error
	Field   string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.kind
}

func Validation(field, message string) *Error {
	return &Error{kind: ErrValidation, Field: field, Message: message}
}

func Conflict(message string) *Error {
	return &Error{kind: ErrConflict, Message: message}
}

func NotFound(message string) *Error {
	return &Error{kind: ErrNotFound, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{kind: ErrForbidden, Message: message}
}

func BadRequest(message string) *Error {
	return &Error{kind: ErrBadRequest, Message: message}
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
