package auth

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/drive-service/internal/domain"
	apperrors "github.com/spec-kit/drive-service/pkg/util"
)

func TestAuthorizeOwner(t *testing.T) {
	t.Parallel()

	owner := domain.Identity{SubjectID: "u1", Role: domain.RoleUser}

	assert.NoError(t, AuthorizeOwner(owner, "u1"))

	err := AuthorizeOwner(owner, "u2")
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", domainCode(t, err))

	// Admin role grants no ownership bypass for file operations.
	admin := domain.Identity{SubjectID: "a1", Role: domain.RoleAdmin}
	assert.Error(t, AuthorizeOwner(admin, "u1"))
}

func TestAuthorizeAdmin(t *testing.T) {
	t.Parallel()

	err := AuthorizeAdmin(domain.Identity{SubjectID: "u1", Role: domain.RoleUser})
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", domainCode(t, err))

	assert.NoError(t, AuthorizeAdmin(domain.Identity{SubjectID: "a1", Role: domain.RoleAdmin}))
}

func TestGuardSelfDeletion(t *testing.T) {
	t.Parallel()

	admin := domain.Identity{SubjectID: "a1", Role: domain.RoleAdmin}

	err := GuardSelfDeletion(admin, "a1")
	require.Error(t, err)
	assert.Equal(t, "INVALID_OPERATION", domainCode(t, err))

	assert.NoError(t, GuardSelfDeletion(admin, "u1"))
}

func domainCode(t *testing.T, err error) string {
	t.Helper()
	var de *apperrors.DomainError
	require.True(t, errors.As(err, &de))
	return de.Code
}
