package auth

import (
	"github.com/spec-kit/drive-service/internal/domain"
	apperrors "github.com/spec-kit/drive-service/pkg/util"
)

// Pure authorization decisions. Each returns nil on allow or a
// DomainError carrying the externally visible denial reason. No I/O.

// AuthorizeOwner allows the operation iff the identity owns the
// target. Used for file read, download and delete.
func AuthorizeOwner(identity domain.Identity, targetOwnerID string) error {
	if identity.SubjectID != targetOwnerID {
		return apperrors.NewForbidden("not the owner of this resource")
	}
	return nil
}

// AuthorizeAdmin allows the operation iff the identity carries the
// admin role.
func AuthorizeAdmin(identity domain.Identity) error {
	if !identity.IsAdmin() {
		return apperrors.NewForbidden("admin access required")
	}
	return nil
}

// GuardSelfDeletion denies an admin deleting their own account. This
// is a business rule, not a capability check, so the denial maps to
// an invalid-operation error rather than forbidden.
func GuardSelfDeletion(identity domain.Identity, targetUserID string) error {
	if identity.SubjectID == targetUserID {
		return apperrors.NewInvalidOperation("cannot delete your own account")
	}
	return nil
}
