package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for transport mapping.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindInsufficientBalance
	KindRateLimited
	KindUpstream
)

type kindMeta struct {
	code      string
	status    int
	retryable bool
}

var kinds = map[Kind]kindMeta{
	KindInternal:            {code: "INTERNAL", status: http.StatusInternalServerError, retryable: true},
	KindValidation:          {code: "VALIDATION_ERROR", status: http.StatusBadRequest},
	KindUnauthorized:        {code: "UNAUTHORIZED", status: http.StatusUnauthorized},
	KindForbidden:           {code: "FORBIDDEN", status: http.StatusForbidden},
	KindNotFound:            {code: "NOT_FOUND", status: http.StatusNotFound},
	KindConflict:            {code: "CONFLICT", status: http.StatusConflict},
	KindInsufficientBalance: {code: "INSUFFICIENT_BALANCE", status: http.StatusPaymentRequired},
	KindRateLimited:         {code: "RATE_LIMITED", status: http.StatusTooManyRequests, retryable: true},
	KindUpstream:            {code: "UPSTREAM_UNAVAILABLE", status: http.StatusBadGateway, retryable: true},
}

func (k Kind) String() string { return kinds[k].code }
func (k Kind) HTTPStatus() int { return kinds[k].status }
func (k Kind) Retryable() bool { return kinds[k].retryable }

// Error is the error type returned across package boundaries.
type Error struct {
	Kind    Kind
	Message string
	Field   string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by kind, so errors.Is(err, ErrNotFound) works
// for any not-found error regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == ""
}

// Sentinels for errors.Is checks.
var (
	ErrValidation          = &Error{Kind: KindValidation}
	ErrUnauthorized        = &Error{Kind: KindUnauthorized}
	ErrForbidden           = &Error{Kind: KindForbidden}
	ErrNotFound            = &Error{Kind: KindNotFound}
	ErrConflict            = &Error{Kind: KindConflict}
	ErrInsufficientBalance = &Error{Kind: KindInsufficientBalance}
	ErrRateLimited         = &Error{Kind: KindRateLimited}
	ErrUpstream            = &Error{Kind: KindUpstream}
)

func Validation(field, message string) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: message}
}

func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

func NotFound(resource string) *Error {
	return &Error{Kind: KindNotFound, Message: resource + " not found"}
}

func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

func InsufficientBalance() *Error {
	return &Error{Kind: KindInsufficientBalance, Message: "insufficient balance, please top up"}
}

func RateLimited(message string, err error) *Error {
	return &Error{Kind: KindRateLimited, Message: message, Err: err}
}

func Upstream(service string, err error) *Error {
	return &Error{Kind: KindUpstream, Message: service + " is unavailable", Err: err}
}

func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// KindOf reports the kind of the first *Error in the chain, KindInternal
// for anything unclassified.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// As returns the first *Error in the chain, wrapping unclassified errors as
// internal.
func As(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("internal server error", err)
}
