package snapshot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "snap")
	w := &Writer{Dir: dir}
	require.NoError(t, w.Write(42, []int64{-3, 1, 1, 9}))

	s, ok, err := Load(dir)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(42), s.Seq)
	assert.Equal(t, []int64{-3, 1, 1, 9}, s.Keys)
	assert.False(t, s.Created.IsZero())
}

func TestWriteReplacesPrevious(t *testing.T) {
	dir := t.TempDir()
	w := &Writer{Dir: dir}
	require.NoError(t, w.Write(1, []int64{1}))
	require.NoError(t, w.Write(2, []int64{1, 2}))

	s, ok, err := Load(dir)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(2), s.Seq)
	assert.Equal(t, []int64{1, 2}, s.Keys)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files are cleaned up")
}

func TestLoadMissing(t *testing.T) {
	_, ok, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoadCorrupt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, fileName), []byte("not gob"), 0o644))
	_, ok, err := Load(dir)
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestLoadReadsWriterDir(t *testing.T) {
	dir := t.TempDir()
	w := &Writer{Dir: dir}
	assert.Equal(t, dir, filepath.Dir(w.Path()))
	require.NoError(t, w.Write(7, []int64{3}))

	_, ok, err := Load(w.Path())
	assert.Error(t, err, "Load takes the directory, not the file")
	assert.False(t, ok)

	s, ok, err := Load(dir)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(7), s.Seq)
}
