package commonerrors

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCategory string

const (
	CategoryValidation ErrorCategory = "VALIDATION"
	CategoryAuth       ErrorCategory = "AUTH"
	CategoryNotFound   ErrorCategory = "NOT_FOUND"
	CategoryInternal   ErrorCategory = "INTERNAL"
)

type DomainError interface {
	error
	Code() string
	Category() ErrorCategory
	HTTPStatus() int
	Message() string
	Unwrap() error
	WithCause(cause error) DomainError
}

type domainError struct {
	code     string
	category ErrorCategory
	status   int
	message  string
	cause    error
}

func (e *domainError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

func (e *domainError) Code() string {
	return e.code
}

func (e *domainError) Category() ErrorCategory {
	return e.category
}

func (e *domainError) HTTPStatus() int {
	return e.status
}

func (e *domainError) Message() string {
	return e.message
}

func (e *domainError) Unwrap() error {
	return e.cause
}

func (e *domainError) WithCause(cause error) DomainError {
	return &domainError{
		code:     e.code,
		category: e.category,
		status:   e.status,
		message:  e.message,
		cause:    cause,
	}
}

func NewDomainError(code string, category ErrorCategory, status int, message string) DomainError {
	return &domainError{
		code:     code,
		category: category,
		status:   status,
		message:  message,
	}
}

func AsDomainError(err error) (DomainError, bool) {
	var de DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

var (
	ErrMissingToken = NewDomainError(
		"MISSING_TOKEN",
		CategoryAuth,
		http.StatusUnauthorized,
		"missing or invalid authorization",
	)

	// ErrInvalidToken covers bad signatures, malformed tokens and expiry.
	// Revocation is reported separately because it maps to a different status.
	ErrInvalidToken = NewDomainError(
		"INVALID_TOKEN",
		CategoryAuth,
		http.StatusForbidden,
		"token is invalid or expired",
	)

	ErrTokenRevoked = NewDomainError(
		"TOKEN_REVOKED",
		CategoryAuth,
		http.StatusUnauthorized,
		"token has been revoked",
	)

	ErrInvalidCredentials = NewDomainError(
		"INVALID_CREDENTIALS",
		CategoryAuth,
		http.StatusUnauthorized,
		"invalid username or password",
	)

	// ErrBookNotFound is returned for reads. It deliberately does not
	// distinguish "does not exist" from "exists but owned by someone else".
	ErrBookNotFound = NewDomainError(
		"BOOK_NOT_FOUND",
		CategoryNotFound,
		http.StatusNotFound,
		"book not found",
	)

	// ErrNothingChanged is the mutation-side counterpart of ErrBookNotFound:
	// an update or delete matched zero rows. The external contract maps it
	// to 400 rather than 404.
	ErrNothingChanged = NewDomainError(
		"NOTHING_CHANGED",
		CategoryNotFound,
		http.StatusBadRequest,
		"book not found",
	)

	ErrInvalidInput = NewDomainError(
		"INVALID_INPUT",
		CategoryValidation,
		http.StatusBadRequest,
		"invalid input",
	)

	ErrInternal = NewDomainError(
		"INTERNAL_ERROR",
		CategoryInternal,
		http.StatusInternalServerError,
		"internal server error",
	)
)
