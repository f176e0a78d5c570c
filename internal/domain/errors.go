package domain

import "errors"

var (
	// ErrMissingCredentials is returned when the account name or password is not configured.
	ErrMissingCredentials = errors.New("missing account credentials")

	// ErrNoContinuationToken is returned when an unattended relogin has no steamguard token to use.
	ErrNoContinuationToken = errors.New("no continuation token stored")

	// ErrCorruptCheckpoint is returned when the stored poll data cannot be decoded.
	ErrCorruptCheckpoint = errors.New("corrupt poll checkpoint")

	// ErrSessionExpired is returned by the transport when the platform no longer accepts the session.
	ErrSessionExpired = errors.New("session expired")

	// ErrLoginRejected is returned when the platform refuses the login.
	ErrLoginRejected = errors.New("login rejected")

	// ErrFatal marks errors that leave the session in an unknown state.
	ErrFatal = errors.New("fatal session error")
)
