// Package apperror defines the error kinds returned by lease operations.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a domain error
type Kind string

const (
	KindNotFound      Kind = "not_found"
	KindAlreadyExists Kind = "already_exists"
	KindValidation    Kind = "validation"
	KindConflict      Kind = "conflict"
)

var (
	// ErrNotFound matches any error of kind KindNotFound via errors.Is
	ErrNotFound = &Error{Kind: KindNotFound, Detail: "not found"}
	// ErrAlreadyExists matches any error of kind KindAlreadyExists via errors.Is
	ErrAlreadyExists = &Error{Kind: KindAlreadyExists, Detail: "already exists"}
	// ErrValidation matches any error of kind KindValidation via errors.Is
	ErrValidation = &Error{Kind: KindValidation, Detail: "validation failed"}
	// ErrConflict matches any error of kind KindConflict via errors.Is
	ErrConflict = &Error{Kind: KindConflict, Detail: "conflict"}
)

// Error is a classified domain error
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches errors of the same kind, so errors.Is(err, ErrNotFound) works for
// every not-found error
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// NotFound reports a missing or deleted record
func NotFound(format string, args ...any) *Error {
	return newf(KindNotFound, format, args...)
}

// AlreadyExists reports a uniqueness violation on a business identifier
func AlreadyExists(format string, args ...any) *Error {
	return newf(KindAlreadyExists, format, args...)
}

// Validation reports malformed input or a reference to a missing or deleted parent
func Validation(format string, args ...any) *Error {
	return newf(KindValidation, format, args...)
}

// Conflict reports a state conflict, such as overlapping contracts on a unit
func Conflict(format string, args ...any) *Error {
	return newf(KindConflict, format, args...)
}

// Wrap attaches a kind and detail to an underlying error
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	e := newf(kind, format, args...)
	e.Err = err
	return e
}

// KindOf returns the kind of the first *Error in err's chain, or "" when err is
// not classified
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus maps an error kind to the status code an API layer should answer with
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindAlreadyExists, KindConflict:
		return http.StatusConflict
	case KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
