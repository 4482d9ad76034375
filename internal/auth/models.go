package auth

import (
	"database/sql"
	"time"
)

// Role is a permission held by a user; a user may hold several
type Role string

const (
	RoleRefectoryManager  Role = "refectory_manager"
	RoleMuralManager      Role = "mural_manager"
	RolePermissionManager Role = "permission_manager"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	switch r {
	case RoleRefectoryManager, RoleMuralManager, RolePermissionManager:
		return true
	}
	return false
}

// UserType classifies campus members
type UserType string

const (
	UserTypeStudent         UserType = "student"
	UserTypeEmployeeTae     UserType = "employeeTae"
	UserTypeEmployeeTeacher UserType = "employeeTeacher"
)

// Valid reports whether t is a known user type
func (t UserType) Valid() bool {
	switch t {
	case UserTypeStudent, UserTypeEmployeeTae, UserTypeEmployeeTeacher:
		return true
	}
	return false
}

// User represents an authenticated campus member
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Type      UserType  `json:"type"`
	IsActive  bool      `json:"isActive"`
	Roles     []Role    `json:"roles"`
	CreatedAt time.Time `json:"createdAt"`
}

// HasRole reports whether the user holds role. Permission managers pass every
// role check.
func (u *User) HasRole(role Role) bool {
	for _, r := range u.Roles {
		if r == role || r == RolePermissionManager {
			return true
		}
	}
	return false
}

// Token represents an API token
type Token struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"userId"`
	TokenHash string     `json:"-"` // Never expose
	Label     string     `json:"label"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	RevokedAt *time.Time `json:"revokedAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// TokenWithRaw includes the raw token value (only returned on creation)
type TokenWithRaw struct {
	Token
	RawToken string `json:"token"`
}

// ValidatedToken holds the result of token validation
type ValidatedToken struct {
	Token *Token
	User  *User
}

// TokenCreateRequest represents the request body for creating a token
type TokenCreateRequest struct {
	Label     string     `json:"label" binding:"required"`
	ExpiresAt *time.Time `json:"expiresAt"`
}

// UserCreateRequest represents the request body for creating a user
type UserCreateRequest struct {
	Name  string   `json:"name" binding:"required"`
	Email string   `json:"email" binding:"required,email"`
	Type  UserType `json:"type" binding:"required,oneof=student employeeTae employeeTeacher"`
	Roles []Role   `json:"roles"`
}

// UserUpdateRequest represents the request body for updating a user
type UserUpdateRequest struct {
	Name     *string   `json:"name"`
	Type     *UserType `json:"type" binding:"omitempty,oneof=student employeeTae employeeTeacher"`
	IsActive *bool     `json:"isActive"`
}

// RolesUpdateRequest replaces the full role set of a user
type RolesUpdateRequest struct {
	Roles []Role `json:"roles"`
}

// ScanNullableTime helper for scanning nullable time
func ScanNullableTime(n sql.NullTime) *time.Time {
	if n.Valid {
		return &n.Time
	}
	return nil
}
