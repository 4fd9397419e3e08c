package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword_Roundtrip(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("s3cret", 4)
	require.NoError(t, err)
	assert.NoError(t, ComparePassword(hash, "s3cret"))
	assert.Error(t, ComparePassword(hash, "wrong"))
}

func TestHashPassword_ZeroCostFallsBack(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("s3cret", 0)
	require.NoError(t, err)
	assert.NoError(t, ComparePassword(hash, "s3cret"))
}
