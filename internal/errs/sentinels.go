// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates input rejected before any persistence call.
	ErrValidation = errors.New("validation failed")

	// ErrEmptyDeck indicates a study session was requested for a deck with no
	// matching cards (none due, or none at all in drill mode).
	ErrEmptyDeck = errors.New("empty deck")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., duplicate id).
	ErrAlreadyExists = errors.New("already exists")

	// ErrRemoteUnavailable indicates the sync server did not answer the
	// reachability probe or a transport call.
	ErrRemoteUnavailable = errors.New("remote unavailable")

	// ErrSessionFinished indicates an advance past the end of a study session.
	ErrSessionFinished = errors.New("session finished")
)
