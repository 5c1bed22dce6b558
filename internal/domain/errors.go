package domain

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindNotFound             Kind = "NOT_FOUND"
	KindOutOfStock           Kind = "OUT_OF_STOCK"
	KindInsufficientStock    Kind = "INSUFFICIENT_STOCK"
	KindQuantityExceedsStock Kind = "QUANTITY_EXCEEDS_STOCK"
	KindInvalidQuantity      Kind = "INVALID_QUANTITY"
	KindEmptyCart            Kind = "EMPTY_CART"
	KindReservationExpired   Kind = "RESERVATION_EXPIRED"
	KindInvalidInput         Kind = "INVALID_INPUT"
	KindPersistence          Kind = "PERSISTENCE_FAILURE"
)

// Error is the structured failure returned by cart and order operations.
// Message is safe to show to a shopper; Err carries the underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so the sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Retryable reports whether the caller may retry the same request unchanged.
func (e *Error) Retryable() bool { return e.Kind == KindPersistence }

var (
	ErrNotFound             = &Error{Kind: KindNotFound}
	ErrOutOfStock           = &Error{Kind: KindOutOfStock}
	ErrInsufficientStock    = &Error{Kind: KindInsufficientStock}
	ErrQuantityExceedsStock = &Error{Kind: KindQuantityExceedsStock}
	ErrInvalidQuantity      = &Error{Kind: KindInvalidQuantity}
	ErrEmptyCart            = &Error{Kind: KindEmptyCart}
	ErrReservationExpired   = &Error{Kind: KindReservationExpired}
	ErrInvalidInput         = &Error{Kind: KindInvalidInput}
	ErrPersistence          = &Error{Kind: KindPersistence}
)

func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Persistence wraps a storage error as a retryable failure.
func Persistence(err error, format string, args ...any) *Error {
	return &Error{Kind: KindPersistence, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
