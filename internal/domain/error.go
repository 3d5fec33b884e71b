package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidExecContext = errors.New("invalid database execution context")
	ErrReadDatabaseRow    = errors.New("failed to read database row")

	// Redemption errors
	ErrInvalidAmount  = errors.New("original amount must be positive")
	ErrInvalidPercent = errors.New("discount percent must be between 0 and 100")
	ErrRateLimited    = errors.New("too many verification attempts")
	ErrForbidden      = errors.New("caller is not allowed to perform this action")
)
