package persistence

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"002_create_files.sql", "001_create_users.sql", "README.md", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("-- x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "archive.sql"), 0o755))

	files, err := migrationFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_create_users.sql", "002_create_files.sql"}, files)
}

func TestMigrationFiles_MissingDir(t *testing.T) {
	t.Parallel()

	_, err := migrationFiles(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
