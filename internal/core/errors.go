package core

import (
	"errors"
	"fmt"

	"github.com/dohr-michael/agentbus/internal/invite"
	"github.com/dohr-michael/agentbus/internal/store"
)

// Kind is the closed set of error kinds adapters translate to wire codes
// (§7): NotFound→404, InvalidInput→400, Unauthorized→401, Conflict→409,
// Internal→500. Timeout never escapes the Core API boundary — the Wait
// Coordinator converts it to an empty result.
type Kind string

const (
	KindNotFound     Kind = "NotFound"
	KindInvalidInput Kind = "InvalidInput"
	KindUnauthorized Kind = "Unauthorized"
	KindConflict     Kind = "Conflict"
	KindInternal     Kind = "Internal"
)

// Error is the one piece of structure the Core API boundary adds over the
// teacher's plain wrapped errors: a closed kind plus a human-readable
// reason, so every adapter maps errors the same way.
type Error struct {
	Kind  Kind
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Cause }

func newError(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Cause: cause}
}

// wrapErr maps a package-internal sentinel error (store, invite) to the
// closed Kind enum. Called at every Core API method's return path so no
// lower-level sentinel leaks to an adapter.
func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	var coreErr *Error
	if errors.As(err, &coreErr) {
		return err
	}
	switch {
	case errors.Is(err, store.ErrNotFound):
		return newError(KindNotFound, "not found", err)
	case errors.Is(err, store.ErrConflict):
		return newError(KindConflict, "conflict", err)
	case errors.Is(err, store.ErrInvalidInput):
		return newError(KindInvalidInput, "invalid input", err)
	case errors.Is(err, store.ErrUnauthorized):
		return newError(KindUnauthorized, "unauthorized", err)
	case errors.Is(err, invite.ErrInvalidInput):
		return newError(KindInvalidInput, "invalid input", err)
	default:
		return newError(KindInternal, "internal error", err)
	}
}
