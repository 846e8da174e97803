package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested key does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrClosed is returned by stores used after Close.
	ErrClosed = errors.New("persistence: store closed")
)
