package domain

import "errors"

var (
	// Authentication.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired refresh token")

	// Authorization.
	ErrForbidden = errors.New("access forbidden")

	// Identity management.
	ErrUserNotFound  = errors.New("user not found")
	ErrEmailTaken    = errors.New("email already in use")
	ErrUsernameTaken = errors.New("username already in use")
	ErrRoleNotFound  = errors.New("role not found")
	ErrSiteRequired  = errors.New("operational user must be bound to a concrete site")

	// Ledger validation and policy.
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrInvalidCategory   = errors.New("unrecognized category")
	ErrInvalidType       = errors.New("transaction type must be IN or OUT")
	ErrInvalidTimestamp  = errors.New("timestamp must be a valid RFC 3339 date-time")
	ErrInvalidDays       = errors.New("days must be between 1 and 30")
	ErrInsufficientStock = errors.New("insufficient stock for this category")
)
