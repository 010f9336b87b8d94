package user

import (
	"context"

	"github.com/google/uuid"
)

// Authority is the session authority: it issues, verifies and authorizes sessions.
// Every protected route goes through Authorize.
type Authority interface {
	Issue(ctx context.Context, email, password string) (*SessionToken, *User, error)
	Verify(ctx context.Context, token string) (*Principal, error)
	Authorize(ctx context.Context, token string, allowed ...Role) (*Principal, error)
}

// Service định nghĩa business logic layer contract
type Service interface {
	Authority

	Register(ctx context.Context, req RegisterRequest) (*UserDTO, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*UserDTO, error)

	// Admin Functions
	ListUsers(ctx context.Context, req ListUsersRequest) (*ListUsersResponse, error)
	UpdateUserRole(ctx context.Context, actorID, userID uuid.UUID, role Role) error
	SetUserActive(ctx context.Context, actorID, userID uuid.UUID, active bool) error

	// EnsureAdmin bootstraps the first admin account from config
	EnsureAdmin(ctx context.Context, email, password string) error
}
