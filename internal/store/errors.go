package store

import "errors"

// Sentinel errors returned by Store methods. internal/core translates these
// into the closed-set Kind enum at the adapter boundary; inside this
// package and its callers they are plain wrapped errors, matched with
// errors.Is.
var (
	ErrNotFound     = errors.New("store: not found")
	ErrConflict     = errors.New("store: conflict")
	ErrInvalidInput = errors.New("store: invalid input")
	ErrUnauthorized = errors.New("store: unauthorized")
)
