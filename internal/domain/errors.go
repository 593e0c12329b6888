package domain

import "errors"

// Error kinds surfaced by services and repos. Handlers map these to HTTP
// statuses with errors.Is; anything unrecognized is logged and returned as
// a generic failure.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrNoFields          = errors.New("no fields provided")
	ErrConflict          = errors.New("conflict")
)
