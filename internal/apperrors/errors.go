package apperrors

import (
	"errors"
)

var (
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")

	// Token secret (its hash) already stored. Recoverable by generating a new secret
	ErrTokenConflict = errors.New("token already exists")

	// Authentication failures. Both must look the same to the end user
	ErrTokenNotFound = errors.New("token not found")
	ErrTokenExpired  = errors.New("token is expired")

	// Token could not be issued after all attempts
	ErrTokenIssuanceFailed = errors.New("token issuance failed")
)
