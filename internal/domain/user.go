package domain

import "time"

// Role distinguishes regular account holders from administrators.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// ValidRole reports whether the given value is a known role.
func ValidRole(r Role) bool {
	return r == RoleUser || r == RoleAdmin
}

// User is the domain model for drive account holders.
type User struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserWithUsage augments a user with aggregate file statistics for the
// admin listing.
type UserWithUsage struct {
	User
	FileCount  int64
	UsageBytes int64
}
