package services

import "errors"

var (
	// ErrInternal wraps a failure of the backing store. It is fatal to the
	// whole query: no partial snapshot is returned.
	ErrInternal = errors.New("internal error")

	// ErrUnavailable signals that a snapshot could not be produced within the
	// fetch timeout.
	ErrUnavailable = errors.New("snapshot unavailable")
)
