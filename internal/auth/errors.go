package auth

import "errors"

// Failure kinds surfaced by the auth package. The HTTP layer maps these to
// status codes; callers must use errors.Is rather than string matching.
var (
	// ErrInvalidCredentials is returned on a password mismatch during login.
	// It deliberately does not distinguish an unknown email from a wrong
	// password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken covers malformed, mis-signed, and expired tokens
	// alike so the response cannot be used as an oracle.
	ErrInvalidToken = errors.New("invalid token")

	// ErrUnauthorized means the token verified but the subject could not be
	// resolved to an active user.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden means the principal is authenticated but lacks the
	// required role.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation flags malformed input to auth operations.
	ErrValidation = errors.New("validation error")
)
