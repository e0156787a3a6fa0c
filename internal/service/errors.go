package service

import "errors"

// Failure taxonomy shared by all services. Handlers map these onto HTTP
// status codes; anything else is an internal error.
var (
	// ErrConflict marks a duplicate unique field (email, username, token).
	ErrConflict = errors.New("conflict")
	// ErrUnauthenticated covers missing, invalid, expired and revoked
	// credentials. Callers never learn which part was wrong.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden is authenticated-but-not-authorized: wrong owner, expired
	// or deactivated share link, a non-admin on an admin view.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound is an unknown id or token.
	ErrNotFound = errors.New("not found")
	// ErrPayloadInvalid rejects oversized uploads and disallowed file types.
	ErrPayloadInvalid = errors.New("payload invalid")
)

// ClientMeta carries request metadata into audit records.
type ClientMeta struct {
	IP        string
	UserAgent string
}
