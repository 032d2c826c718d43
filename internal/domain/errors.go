package domain

import "errors"

// Caller errors. These are the only errors the orchestrator surfaces to the
// caller; infrastructure failures degrade to a terminal decision instead.
var (
	// ErrSessionNotFound means an unknown or expired session id was supplied.
	// A supplied id always refers to continuation, never creation.
	ErrSessionNotFound = errors.New("session not found or expired")

	// ErrMissingDescription means the request carried no dispute description.
	ErrMissingDescription = errors.New("disputeDescription is required")

	// ErrInvalidEvidence means additionalEvidence was missing its kind or data.
	ErrInvalidEvidence = errors.New("additionalEvidence requires kind and data")
)
