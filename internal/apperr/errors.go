// Package apperr defines the error kinds returned by the service layer.
// Handlers translate a Kind into an HTTP status; services never do.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies a failure.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindInvalidToken
	KindForbidden
	KindNotFound
	KindConflict
	KindBusinessRule
	KindSignatureMismatch
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindInvalidToken:
		return "invalid_token"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindBusinessRule:
		return "business_rule"
	case KindSignatureMismatch:
		return "signature_mismatch"
	default:
		return "internal"
	}
}

// Error is a classified error. Message is safe to show to the client;
// Err carries the underlying cause for logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func newErr(kind Kind, msg string) *Error { return &Error{Kind: kind, Message: msg} }

func Validation(msg string) *Error        { return newErr(KindValidation, msg) }
func Unauthorized(msg string) *Error      { return newErr(KindUnauthorized, msg) }
func InvalidToken(msg string) *Error      { return newErr(KindInvalidToken, msg) }
func Forbidden(msg string) *Error         { return newErr(KindForbidden, msg) }
func NotFound(msg string) *Error          { return newErr(KindNotFound, msg) }
func Conflict(msg string) *Error          { return newErr(KindConflict, msg) }
func BusinessRule(msg string) *Error      { return newErr(KindBusinessRule, msg) }
func SignatureMismatch(msg string) *Error { return newErr(KindSignatureMismatch, msg) }

// Internal wraps an unexpected failure. The message is logged, never returned
// to the client.
func Internal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// KindOf reports the Kind of err. Unclassified errors are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus maps a Kind to its response status.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation, KindInvalidToken, KindBusinessRule, KindSignatureMismatch:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the text a client may see for err.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Message
	}
	return "Internal server error"
}
