package core

import "errors"

// Failure kinds callers map to transport codes. Anything else bubbling out of
// a Service method is a store failure, wrapped and propagated verbatim.
var (
	ErrInvalidArgs = errors.New("invalid arguments")
	ErrForbidden   = errors.New("forbidden")
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
)
