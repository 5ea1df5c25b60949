package apperrors

import (
	"errors"
)

var (
	ErrValidation = errors.New("required field is missing or empty")

	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")

	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrTokenInvalid = errors.New("token is invalid")
	ErrTokenExpired = errors.New("token is expired")

	// Presented refresh token is cryptographically valid but no longer the
	// user's current one. Treat as revoked or stolen.
	ErrRefreshTokenReused = errors.New("refresh token revoked or reused")
)
