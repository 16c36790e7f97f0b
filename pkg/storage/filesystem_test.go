package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilesWriteOpenRemove(t *testing.T) {
	dir := t.TempDir()
	files, err := NewFiles(dir)
	require.NoError(t, err)

	rel, err := files.Write(3, "export_3.csv", []byte("a,b\n"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("3", "export_3.csv"), rel)

	file, err := files.Open(rel)
	require.NoError(t, err)
	info, err := file.Stat()
	require.NoError(t, err)
	assert.Equal(t, int64(4), info.Size())
	require.NoError(t, file.Close())

	leftovers, err := filepath.Glob(filepath.Join(dir, "3", ".partial-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)

	require.NoError(t, files.RemoveExport(3))
	_, err = files.Open(rel)
	assert.True(t, os.IsNotExist(err))
	require.NoError(t, files.RemoveExport(3))
}

func TestFilesRejectsEscapingPaths(t *testing.T) {
	files, err := NewFiles(t.TempDir())
	require.NoError(t, err)

	_, err = files.Write(1, "../outside.csv", []byte("x"))
	require.Error(t, err)
	_, err = files.Write(1, "", []byte("x"))
	require.Error(t, err)
	_, err = files.Open("/etc/passwd")
	require.Error(t, err)
	_, err = files.Open("../../etc/passwd")
	require.Error(t, err)
}

func TestFilesPrune(t *testing.T) {
	dir := t.TempDir()
	files, err := NewFiles(dir)
	require.NoError(t, err)

	oldPath, err := files.Write(1, "old.csv", []byte("x"))
	require.NoError(t, err)
	freshPath, err := files.Write(2, "fresh.csv", []byte("y"))
	require.NoError(t, err)

	stale := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, oldPath), stale, stale))

	removed, err := files.Prune(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []string{oldPath}, removed)

	_, err = os.Stat(filepath.Join(dir, "1"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, freshPath))
	assert.NoError(t, err)
}
