package domain

import "errors"

var (
	ErrValidation         = errors.New("validation failed")
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrToolUsageNotFound  = errors.New("tool usage not found")

	// ErrStoreUnavailable is returned by repositories when the process runs
	// without a usable MongoDB client.
	ErrStoreUnavailable = errors.New("document store unavailable")
)
