// Package apperrors defines the error taxonomy shared by the slot ledger,
// the session lifecycle manager and the call negotiation protocol.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error so callers can decide between re-fetching,
// retrying later or surfacing a hard failure.
type Kind string

const (
	KindConflict            Kind = "conflict"
	KindDuplicateSlot       Kind = "duplicate_slot"
	KindSlotInUse           Kind = "slot_in_use"
	KindSlotUnavailable     Kind = "slot_unavailable"
	KindInvalidTransition   Kind = "invalid_transition"
	KindTerminalState       Kind = "terminal_state"
	KindForbidden           Kind = "forbidden"
	KindRequestInFlight     Kind = "request_in_flight"
	KindProviderUnavailable Kind = "provider_unavailable"
	KindNotFound            Kind = "not_found"
	KindInvalidInput        Kind = "invalid_input"
	KindInternal            Kind = "internal"
)

// Error carries a Kind plus a human readable message and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports a match on Kind so that errors.Is(err, ErrConflict) holds for
// any conflict regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons.
var (
	ErrConflict            = &Error{Kind: KindConflict, Message: "resource was modified concurrently"}
	ErrDuplicateSlot       = &Error{Kind: KindDuplicateSlot, Message: "slot already exists"}
	ErrSlotInUse           = &Error{Kind: KindSlotInUse, Message: "slot is reserved"}
	ErrSlotUnavailable     = &Error{Kind: KindSlotUnavailable, Message: "slot is no longer available"}
	ErrInvalidTransition   = &Error{Kind: KindInvalidTransition, Message: "transition not allowed"}
	ErrTerminalState       = &Error{Kind: KindTerminalState, Message: "session is in a terminal state"}
	ErrForbidden           = &Error{Kind: KindForbidden, Message: "actor is not a party to this resource"}
	ErrRequestInFlight     = &Error{Kind: KindRequestInFlight, Message: "call request still awaiting a response"}
	ErrProviderUnavailable = &Error{Kind: KindProviderUnavailable, Message: "call provider unavailable"}
	ErrNotFound            = &Error{Kind: KindNotFound, Message: "not found"}
	ErrInvalidInput        = &Error{Kind: KindInvalidInput, Message: "invalid input"}
)

// New builds an error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an error of the given kind around a cause.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Retryable reports whether the same operation may succeed later without the
// caller changing its target.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindRequestInFlight, KindProviderUnavailable:
		return true
	}
	return false
}

// HTTPStatus maps a Kind onto a response status code.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindConflict, KindDuplicateSlot, KindSlotInUse, KindSlotUnavailable:
		return http.StatusConflict
	case KindInvalidTransition, KindTerminalState:
		return http.StatusUnprocessableEntity
	case KindForbidden:
		return http.StatusForbidden
	case KindRequestInFlight:
		return http.StatusTooManyRequests
	case KindProviderUnavailable:
		return http.StatusServiceUnavailable
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidInput:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
