package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMakeObjectKey(t *testing.T) {
	t.Parallel()

	key := MakeObjectKey("u1", "report.pdf")
	assert.True(t, strings.HasPrefix(key, "u1/"))
	assert.True(t, strings.HasSuffix(key, "-report.pdf"))
	assert.NoError(t, ValidateKey(key))

	// The random suffix keeps identical uploads from colliding.
	assert.NotEqual(t, key, MakeObjectKey("u1", "report.pdf"))
}

func TestOwnerOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "u1", OwnerOf(MakeObjectKey("u1", "a.txt")))
	assert.Equal(t, "solo", OwnerOf("solo"))
}

func TestValidateKey(t *testing.T) {
	t.Parallel()

	valid := []string{"u1/abc-file.txt", "u1/nested/deep.bin", "a"}
	for _, key := range valid {
		assert.NoError(t, ValidateKey(key), "key %q", key)
	}

	invalid := []string{"", "/abs", "trailing/", "a//b", "a/../b", "..", "a/."}
	for _, key := range invalid {
		assert.ErrorIs(t, ValidateKey(key), ErrInvalidKey, "key %q", key)
	}
}
