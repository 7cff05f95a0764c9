package service

import "errors"

var (
	// ErrUserNotFound is returned when no user exists for the given
	// identifier or credential.
	ErrUserNotFound = errors.New("user not found")

	// ErrDuplicateLogin is returned on signup when the email is taken.
	ErrDuplicateLogin = errors.New("login already in use")

	// ErrInvalidCredentials is returned when a password check fails.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrRefreshMismatch is returned when the presented refresh token is
	// not the one currently stored for the user, including the case where
	// a concurrent reissue rotated it first.
	ErrRefreshMismatch = errors.New("refresh token mismatch")

	// ErrRefreshExpired is returned when the stored refresh token matched
	// but is past its expiry.
	ErrRefreshExpired = errors.New("refresh token expired")

	// ErrRefreshInvalid is returned when the stored refresh token matched
	// but fails validation for any reason other than expiry.
	ErrRefreshInvalid = errors.New("refresh token invalid")

	// ErrRoleNotEligible is returned when a role transition is requested
	// from a role that cannot make it.
	ErrRoleNotEligible = errors.New("role not eligible")
)
