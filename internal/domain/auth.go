package domain

// Identity is the authenticated caller for the duration of one
// request. It is produced only by successful token verification and
// never persisted.
type Identity struct {
	SubjectID string
	Role      Role
}

// IsAdmin reports whether the identity carries the admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}
