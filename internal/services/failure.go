package services

import (
	"errors"
	"fmt"
)

// Kind classifies a use case failure.
type Kind string

const (
	KindValidation             Kind = "validation_failed"
	KindNotFound               Kind = "not_found"
	KindIneligibleQuotation    Kind = "ineligible_quotation"
	KindDuplicateInvoice       Kind = "duplicate_invoice"
	KindDuplicateInvoiceNumber Kind = "duplicate_invoice_number"
	KindInvalidTransition      Kind = "invalid_transition"
	KindUnauthorized           Kind = "unauthorized"
	KindUnauthenticated        Kind = "unauthenticated"
	KindUnexpected             Kind = "unexpected"
)

// Failure is the error returned by every use case. Expected business
// failures and wrapped collaborator faults share this shape.
type Failure struct {
	Kind    Kind
	Message string
	Errors  []string
	Err     error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %v", f.Message, f.Err)
	}
	return f.Message
}

func (f *Failure) Unwrap() error { return f.Err }

// KindOf returns the kind of err, "" for nil and KindUnexpected for foreign errors.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return KindUnexpected
}

// AsFailure returns err as a *Failure, folding foreign errors into KindUnexpected.
func AsFailure(err error) *Failure {
	if err == nil {
		return nil
	}
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	return unexpected("Unexpected error", err)
}

func newFailure(kind Kind, msg string) *Failure {
	return &Failure{Kind: kind, Message: msg, Errors: []string{msg}}
}

func validationFailed(msgs ...string) *Failure {
	return &Failure{Kind: KindValidation, Message: "Validation failed", Errors: msgs}
}

func notFoundFailure(msg string) *Failure {
	return newFailure(KindNotFound, msg)
}

func unexpected(msg string, err error) *Failure {
	return &Failure{Kind: KindUnexpected, Message: msg, Errors: []string{err.Error()}, Err: err}
}

// Unauthenticated is returned when no acting user is present.
func Unauthenticated() *Failure {
	return newFailure(KindUnauthenticated, "User not authenticated")
}

// Unauthorized is returned when the acting user does not own the resource.
// msg is what the caller may see; it should not reveal that the resource exists.
func Unauthorized(msg string, cause error) *Failure {
	f := newFailure(KindUnauthorized, msg)
	f.Err = cause
	return f
}
