// Package service implements the identity business logic on top of the
// store and the token primitives in pkg/jwtx and pkg/cryptox.
package service

import "errors"

var (
	// ErrUnauthenticated covers every token verification failure: bad
	// signature, expired window, or revoked jti. Callers get one opaque
	// error so responses never reveal which check failed.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrInvalidCredentials means the password did not match. Kept distinct
	// from ErrUserNotFound internally; the token endpoint collapses both
	// into one wire response.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnauthorized is returned when an authenticated caller lacks the
	// scope required for the operation.
	ErrUnauthorized = errors.New("unauthorized")

	ErrUserNotFound    = errors.New("user not found")
	ErrUserExists      = errors.New("user already exists")
	ErrUsernameInvalid = errors.New("username invalid")
	ErrPasswordInvalid = errors.New("password invalid")

	ErrRoleNotFound       = errors.New("role not found")
	ErrRoleExists         = errors.New("role already exists")
	ErrPermissionNotFound = errors.New("permission not found")
	ErrPermissionExists   = errors.New("permission already exists")
)
