// Package apperror defines the error kinds the service reports to clients.
// Services return *AppError; handlers turn it into a status code and a
// user-facing message while the wrapped cause is only logged.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType classifies an AppError.
type ErrorType int

const (
	InternalError ErrorType = iota
	BadRequestError
	UnauthorizedError
	ForbiddenError
	NotFoundError
	ConflictError
)

func (t ErrorType) String() string {
	switch t {
	case BadRequestError:
		return "BadRequest"
	case UnauthorizedError:
		return "Unauthorized"
	case ForbiddenError:
		return "Forbidden"
	case NotFoundError:
		return "NotFound"
	case ConflictError:
		return "Conflict"
	default:
		return "Internal"
	}
}

// AppError carries a classification, a message safe to show to clients and
// an optional underlying cause.
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode maps the error type onto an HTTP status.
// Conflicts are reported as 400, which is what registration clients expect.
func (e *AppError) StatusCode() int {
	switch e.Type {
	case BadRequestError, ConflictError:
		return http.StatusBadRequest
	case UnauthorizedError:
		return http.StatusUnauthorized
	case ForbiddenError:
		return http.StatusForbidden
	case NotFoundError:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func New(t ErrorType, message string, err error) *AppError {
	return &AppError{Type: t, Message: message, Err: err}
}

func NewBadRequestError(message string, err error) *AppError {
	return New(BadRequestError, message, err)
}

func NewUnauthorizedError(message string, err error) *AppError {
	return New(UnauthorizedError, message, err)
}

func NewForbiddenError(message string, err error) *AppError {
	return New(ForbiddenError, message, err)
}

func NewNotFoundError(message string, err error) *AppError {
	return New(NotFoundError, message, err)
}

func NewConflictError(message string, err error) *AppError {
	return New(ConflictError, message, err)
}

func NewInternalError(message string, err error) *AppError {
	return New(InternalError, message, err)
}

// TypeOf returns the type of the first AppError in err's chain, or
// InternalError when there is none.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return InternalError
}

func IsNotFound(err error) bool     { return is(err, NotFoundError) }
func IsConflict(err error) bool     { return is(err, ConflictError) }
func IsBadRequest(err error) bool   { return is(err, BadRequestError) }
func IsForbidden(err error) bool    { return is(err, ForbiddenError) }
func IsUnauthorized(err error) bool { return is(err, UnauthorizedError) }

func is(err error, t ErrorType) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == t
}
