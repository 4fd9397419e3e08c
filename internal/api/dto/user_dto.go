package dto

import "time"

// UserUpsertRequest payload for admin create/update. Empty fields are
// ignored on update.
type UserUpsertRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// AdminUserResponse is the admin view of an account, including file
// usage aggregates.
type AdminUserResponse struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Username   string    `json:"username,omitempty"`
	Role       string    `json:"role"`
	FileCount  int64     `json:"file_count"`
	UsageBytes int64     `json:"usage_bytes"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
