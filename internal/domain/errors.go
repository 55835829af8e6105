package domain

import "errors"

// Failure classes reported by the seismic API client. Callers match them with errors.Is.
var (
	// ErrNetwork means the request did not complete or the backend answered with a non-success status.
	ErrNetwork = errors.New("network error")

	// ErrDecode means the response body was malformed or had an unexpected shape.
	ErrDecode = errors.New("decode error")

	// ErrNotFound means the backend has no record for the requested id.
	ErrNotFound = errors.New("not found")
)
