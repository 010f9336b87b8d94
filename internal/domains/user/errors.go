package user

import "errors"

// Repository-level errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already exists")
)

// Session authority errors
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountInactive    = errors.New("account is inactive")
	ErrInvalidToken       = errors.New("invalid or expired session")
	ErrForbidden          = errors.New("forbidden: insufficient permissions")
	ErrTooManyAttempts    = errors.New("too many login attempts, please try again later")
	ErrInvalidRole        = errors.New("invalid user role")
	ErrSelfModification   = errors.New("admins cannot change their own role or status")
)
