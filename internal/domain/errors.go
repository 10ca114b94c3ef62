package domain

import "errors"

// Errors for caller-side misuse and host-layer failures. The scoring core
// itself is a total function over its inputs and never returns errors;
// these surface only from persistence, configuration and the classifier
// client.
var (
	ErrNotFound              = errors.New("not found")
	ErrDuplicateReference    = errors.New("duplicate reference number")
	ErrClassifierUnavailable = errors.New("image classifier unavailable")
	ErrInvalidConfiguration  = errors.New("invalid configuration")
)
