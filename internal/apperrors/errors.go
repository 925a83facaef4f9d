// Package apperrors defines the error kinds surfaced by the billing and
// payment services and mapped to HTTP status codes by the handlers.
package apperrors

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindUnauthorized
	KindExternalService
	KindConflict
	KindUnauthenticated
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindExternalService:
		return "external_service"
	case KindConflict:
		return "conflict"
	case KindUnauthenticated:
		return "unauthenticated"
	default:
		return "internal"
	}
}

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

func Unauthorized(format string, args ...any) error {
	return &Error{Kind: KindUnauthorized, Msg: fmt.Sprintf(format, args...)}
}

// Unauthenticated reports bad or missing credentials, as opposed to
// Unauthorized which reports a known principal lacking permission.
func Unauthenticated(format string, args ...any) error {
	return &Error{Kind: KindUnauthenticated, Msg: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) error {
	return &Error{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

// ExternalService wraps a processor failure. The message is the processor's
// own message, unchanged.
func ExternalService(err error) error {
	return &Error{Kind: KindExternalService, Msg: err.Error(), Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// DataConsistencyWarning reports a meter reading lower than its predecessor.
// The reading is still stored.
type DataConsistencyWarning struct {
	TenantID  int
	MeterType string
	Previous  string
	Current   string
}

func (w *DataConsistencyWarning) Error() string {
	return fmt.Sprintf("%s reading %s for tenant %d is lower than previous reading %s",
		w.MeterType, w.Current, w.TenantID, w.Previous)
}
