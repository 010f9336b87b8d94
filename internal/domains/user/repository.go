package user

import (
	"context"

	"github.com/google/uuid"
)

// Repository định nghĩa contract cho data access layer
type Repository interface {
	// Create tạo user mới
	// Returns: ErrEmailAlreadyExists nếu email đã tồn tại (case-insensitive)
	Create(ctx context.Context, user *User) error

	// FindByID returns ErrUserNotFound nếu không tìm thấy
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)

	// FindByEmail tìm user theo email (dùng cho login)
	FindByEmail(ctx context.Context, email string) (*User, error)

	UpdateLastLogin(ctx context.Context, userID uuid.UUID) error

	// Admin
	List(ctx context.Context, req ListUsersRequest) ([]User, int64, error)
	UpdateRole(ctx context.Context, userID uuid.UUID, role Role) error
	UpdateStatus(ctx context.Context, userID uuid.UUID, isActive bool) error

	// CreateAdminIfAbsent dùng cho bootstrap: chỉ insert khi email chưa tồn tại.
	// Row đã có thì giữ nguyên role/is_active/password, trả về created=false.
	CreateAdminIfAbsent(ctx context.Context, user *User) (created bool, err error)
}
