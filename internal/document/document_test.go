package document

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureSeededWritesDefaultContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "alice_doc.txt")

	require.NoError(t, EnsureSeeded(path))
	lines, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, SeedLines, lines)
}

func TestEnsureSeededLeavesExistingFileAlone(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "alice_doc.txt")
	require.NoError(t, Write(path, []string{"custom"}))

	require.NoError(t, EnsureSeeded(path))
	lines, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"custom"}, lines)
}

func TestReadTrimsTrailingBlankLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "alice_doc.txt")
	require.NoError(t, Write(path, []string{"a", "b", "", ""}))

	lines, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, lines)
}

func TestPath(t *testing.T) {
	assert.Equal(t, filepath.Join("dir", "alice_doc.txt"), Path("dir", "alice"))
}
