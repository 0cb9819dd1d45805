// Package apperror defines the typed domain errors of the auth core and their HTTP mapping.
//
// Services return *Error values; the web layer translates them into the response
// envelope at a single boundary. Errors compare by Kind with errors.Is, so callers can
// write errors.Is(err, apperror.ErrUserNotFound) regardless of message or metadata.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error. Each kind has a stable machine-readable code and an HTTP status.
type Kind string

// Kinds of the auth core.
const (
	KindUserNotFound            Kind = "USER_NOT_FOUND"
	KindUserAlreadyExists       Kind = "USER_ALREADY_EXISTS"
	KindUserAlreadyDeleted      Kind = "USER_ALREADY_DELETED"
	KindUserAlreadyApproved     Kind = "USER_ALREADY_APPROVED"
	KindInvalidUserState        Kind = "INVALID_USER_STATE"
	KindPermissionNotFound      Kind = "PERMISSION_NOT_FOUND"
	KindMissingPermissions      Kind = "MISSING_PERMISSIONS"
	KindUnauthenticated         Kind = "UNAUTHENTICATED"
	KindInsufficientPermissions Kind = "INSUFFICIENT_PERMISSIONS"
	KindInvalidToken            Kind = "INVALID_TOKEN"
	KindJwtAuthentication       Kind = "JWT_AUTHENTICATION_ERROR"
	KindInvalidOtp              Kind = "INVALID_OTP"
	KindValidation              Kind = "VALIDATION_FAILED"
	KindInternal                Kind = "INTERNAL_ERROR"
)

var statusByKind = map[Kind]int{
	KindUserNotFound:            http.StatusNotFound,
	KindUserAlreadyExists:       http.StatusConflict,
	KindUserAlreadyDeleted:      http.StatusConflict,
	KindUserAlreadyApproved:     http.StatusConflict,
	KindInvalidUserState:        http.StatusConflict,
	KindPermissionNotFound:      http.StatusBadRequest,
	KindMissingPermissions:      http.StatusBadRequest,
	KindUnauthenticated:         http.StatusUnauthorized,
	KindInsufficientPermissions: http.StatusForbidden,
	KindInvalidToken:            http.StatusUnauthorized,
	KindJwtAuthentication:       http.StatusUnauthorized,
	KindInvalidOtp:              http.StatusBadRequest,
	KindValidation:              http.StatusBadRequest,
	KindInternal:                http.StatusInternalServerError,
}

// Sentinels for errors.Is comparisons. They carry no metadata.
var (
	ErrUserNotFound            = &Error{Kind: KindUserNotFound}
	ErrUserAlreadyExists       = &Error{Kind: KindUserAlreadyExists}
	ErrUserAlreadyDeleted      = &Error{Kind: KindUserAlreadyDeleted}
	ErrUserAlreadyApproved     = &Error{Kind: KindUserAlreadyApproved}
	ErrInvalidUserState        = &Error{Kind: KindInvalidUserState}
	ErrPermissionNotFound      = &Error{Kind: KindPermissionNotFound}
	ErrMissingPermissions      = &Error{Kind: KindMissingPermissions}
	ErrUnauthenticated         = &Error{Kind: KindUnauthenticated}
	ErrInsufficientPermissions = &Error{Kind: KindInsufficientPermissions}
	ErrInvalidToken            = &Error{Kind: KindInvalidToken}
	ErrJwtAuthentication       = &Error{Kind: KindJwtAuthentication}
	ErrInvalidOtp              = &Error{Kind: KindInvalidOtp}
	ErrValidation              = &Error{Kind: KindValidation}
	ErrInternal                = &Error{Kind: KindInternal}
)

// Error is a domain error with a stable code, a human message and diagnostic metadata.
type Error struct {
	Kind    Kind
	Message string
	// Status overrides the default status of Kind when non-zero.
	Status  int
	Details map[string]any
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.cause)
	}

	return msg
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches errors of the same Kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}

	return t.Kind == e.Kind
}

// Code returns the machine-readable code.
func (e *Error) Code() string {
	return string(e.Kind)
}

// HTTPStatus returns the status code the error maps to.
func (e *Error) HTTPStatus() int {
	if e.Status != 0 {
		return e.Status
	}

	if s, ok := statusByKind[e.Kind]; ok {
		return s
	}

	return http.StatusInternalServerError
}

// With returns a copy of e with the detail key set.
func (e *Error) With(key string, value any) *Error {
	out := *e
	out.Details = make(map[string]any, len(e.Details)+1)

	for k, v := range e.Details {
		out.Details[k] = v
	}

	out.Details[key] = value

	return &out
}

// WithStatus returns a copy of e with an explicit HTTP status.
func (e *Error) WithStatus(status int) *Error {
	out := *e
	out.Status = status

	return &out
}

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an error of the given kind around a cause.
func Wrap(kind Kind, cause error, message string) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// From returns err as *Error, converting anything else into an internal error.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}

	return Wrap(KindInternal, err, "internal server error")
}
