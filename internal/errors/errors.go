// Package errors defines the domain error taxonomy returned by the ledger
// services. Every error carries a stable Kind and Code; callers switch on the
// kind and show the code.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind is the stable error category exposed to callers.
type Kind string

const (
	KindValidation        Kind = "VALIDATION"
	KindAuthorization     Kind = "AUTHORIZATION"
	KindNotFound          Kind = "NOT_FOUND"
	KindInsufficientFunds Kind = "INSUFFICIENT_FUNDS"
	KindConflict          Kind = "CONFLICT"
	KindInternal          Kind = "INTERNAL"
)

type DomainError struct {
	Kind    Kind
	Code    string
	Message string
	Detail  string
	Err     error
}

func (e *DomainError) Error() string {
	msg := e.Message
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DomainError) Unwrap() error { return e.Err }

// Is matches on Kind and Code so the package-level values work with errors.Is.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

// WithDetail returns a copy of e carrying a request-specific detail.
func (e *DomainError) WithDetail(format string, args ...any) *DomainError {
	c := *e
	c.Detail = fmt.Sprintf(format, args...)
	return &c
}

// Wrap returns a copy of e with cause attached.
func (e *DomainError) Wrap(cause error) *DomainError {
	c := *e
	c.Err = cause
	return &c
}

func Validation(code, detail string) *DomainError {
	return &DomainError{Kind: KindValidation, Code: code, Message: "invalid request", Detail: detail}
}

func Internal(cause error) *DomainError {
	return &DomainError{Kind: KindInternal, Code: "INTERNAL", Message: "internal error", Err: cause}
}

// KindOf returns the kind of err, INTERNAL for anything that is not a
// DomainError.
func KindOf(err error) Kind {
	var de *DomainError
	if stderrors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// As extracts the DomainError, converting unknown errors to INTERNAL.
func As(err error) *DomainError {
	var de *DomainError
	if stderrors.As(err, &de) {
		return de
	}
	return Internal(err)
}

func IsNotFound(err error) bool          { return KindOf(err) == KindNotFound }
func IsAuthorization(err error) bool     { return KindOf(err) == KindAuthorization }
func IsInsufficientFunds(err error) bool { return KindOf(err) == KindInsufficientFunds }
func IsConflict(err error) bool          { return KindOf(err) == KindConflict }
func IsValidation(err error) bool        { return KindOf(err) == KindValidation }
