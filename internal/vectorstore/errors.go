package vectorstore

import "errors"

// Error taxonomy for store operations.
//
// ErrInvalidRequest and ErrNotFound are caller-facing conditions; ErrEngine
// and ErrDecode are internal conditions whose detail is logged but whose
// caller-visible message stays generic.
var (
	// ErrInvalidRequest indicates a caller error such as a vector dimension
	// mismatch. Never retried.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrNotFound indicates the absence of a requested single entity. It is
	// a first-class result, not an exceptional condition.
	ErrNotFound = errors.New("not found")

	// ErrEngine indicates a failed or malformed vector engine response.
	ErrEngine = errors.New("vector engine error")

	// ErrDecode indicates a stored payload that does not match the expected
	// record shape. This is data drift and is surfaced, never coerced.
	ErrDecode = errors.New("payload decode error")
)
