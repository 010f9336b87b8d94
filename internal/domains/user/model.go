package user

import (
	"time"

	"github.com/google/uuid"
)

// User là domain entity - ánh xạ 1:1 với bảng users
type User struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"` // Never expose in JSON
	FullName     string     `db:"full_name" json:"full_name"`
	Role         Role       `db:"role" json:"role"`
	IsActive     bool       `db:"is_active" json:"is_active"`
	LastLoginAt  *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Role - 4 roles của roastery
type Role string

const (
	RoleAdmin    Role = "ADMIN"    // Full system access
	RoleManager  Role = "MANAGER"  // Orders, payments, reports
	RoleTeam     Role = "TEAM"     // Fulfilment staff
	RoleCustomer Role = "CUSTOMER" // Storefront customer
)

// AllRoles returns all valid roles
func AllRoles() []Role {
	return []Role{RoleAdmin, RoleManager, RoleTeam, RoleCustomer}
}

// StaffRoles là các role được vào admin dashboard
func StaffRoles() []Role {
	return []Role{RoleAdmin, RoleManager, RoleTeam}
}

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleTeam, RoleCustomer:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// In kiểm tra role có nằm trong danh sách allowed không
func (r Role) In(allowed ...Role) bool {
	for _, a := range allowed {
		if r == a {
			return true
		}
	}
	return false
}

// Principal là danh tính đã xác thực của một request
type Principal struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	Role   Role      `json:"role"`
}

// SessionToken là token đã ký, trả về client qua cookie
type SessionToken struct {
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (u *User) Principal() *Principal {
	return &Principal{UserID: u.ID, Email: u.Email, Role: u.Role}
}

func (u *User) ToDTO() UserDTO {
	return UserDTO{
		ID:          u.ID,
		Email:       u.Email,
		FullName:    u.FullName,
		Role:        u.Role,
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}
