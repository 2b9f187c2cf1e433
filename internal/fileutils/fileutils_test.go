package fileutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
}

func TestExistence(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.csv")
	writeFile(t, file)

	assert.True(t, FileExists(file))
	assert.False(t, FileExists(dir))
	assert.True(t, DirectoryExists(dir))
	assert.False(t, DirectoryExists(file))
	assert.False(t, FileExists(filepath.Join(dir, "missing")))
}

func TestListFilesWithExtensions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.CSV"))
	writeFile(t, filepath.Join(dir, "a.csv"))
	writeFile(t, filepath.Join(dir, "nested", "c.xml"))
	writeFile(t, filepath.Join(dir, "notes.txt"))

	files, err := ListFilesWithExtensions(dir, ".csv", ".xml")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.csv"),
		filepath.Join(dir, "b.CSV"),
		filepath.Join(dir, "nested", "c.xml"),
	}, files)

	_, err = ListFilesWithExtensions(filepath.Join(dir, "missing"), ".csv")
	assert.Error(t, err)
}

func TestExpandPaths(t *testing.T) {
	dir := t.TempDir()
	single := filepath.Join(dir, "single.xml")
	writeFile(t, single)
	writeFile(t, filepath.Join(dir, "batch", "one.csv"))

	files, err := ExpandPaths([]string{single, filepath.Join(dir, "batch")}, ".csv")
	require.NoError(t, err)
	assert.Equal(t, []string{single, filepath.Join(dir, "batch", "one.csv")}, files)

	_, err = ExpandPaths([]string{filepath.Join(dir, "nope.csv")})
	assert.Error(t, err)
}
