package scan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumina/internal/format"
)

func TestIsExcluded_PrefixMatch(t *testing.T) {
	s := &Scanner{excludes: []string{"/library/.trash", "/library/tmp"}}
	assert.True(t, s.isExcluded("/library/.trash/a.jpg"))
	assert.True(t, s.isExcluded("/library/tmp/b.jpg"))
	assert.False(t, s.isExcluded("/library/2024/c.jpg"))
}

func TestIsExcluded_IgnoresEmptyEntries(t *testing.T) {
	s := &Scanner{excludes: []string{"", "/library/tmp"}}
	assert.False(t, s.isExcluded("/library/2024/c.jpg"))
}

func TestUnderAnyRoot(t *testing.T) {
	s := &Scanner{roots: []string{"/library/photos", "/library/videos"}}
	assert.True(t, s.underAnyRoot("/library/photos/a.jpg"))
	assert.True(t, s.underAnyRoot("/library/videos/b.mp4"))
	assert.False(t, s.underAnyRoot("/library/other/c.jpg"))
}

func TestClassFor(t *testing.T) {
	assert.Equal(t, "photo", string(classFor(format.JPEG)))
	assert.Equal(t, "photo", string(classFor(format.HEIF)))
	assert.Equal(t, "photo", string(classFor(format.RAW)))
	assert.Equal(t, "video", string(classFor(format.MP4)))
	assert.Equal(t, "audio", string(classFor(format.MP3)))
	assert.Equal(t, "audio", string(classFor(format.WAV)))
	assert.Equal(t, "pdf", string(classFor(format.PDF)))
	assert.Equal(t, "other", string(classFor(format.UnknownFormat)))
}

func TestHashFile_StableForSameContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello lumina"), 0o644))

	h1, err := hashFile(path)
	require.NoError(t, err)
	h2, err := hashFile(path)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	assert.NotEmpty(t, h1)
}

func TestHashFile_DiffersForDifferentContent(t *testing.T) {
	dir := t.TempDir()
	pathA := filepath.Join(dir, "a.txt")
	pathB := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(pathA, []byte("content a"), 0o644))
	require.NoError(t, os.WriteFile(pathB, []byte("content b"), 0o644))

	hA, err := hashFile(pathA)
	require.NoError(t, err)
	hB, err := hashFile(pathB)
	require.NoError(t, err)
	assert.NotEqual(t, hA, hB)
}

func TestRemoveDerivatives_NoopWithoutDataDir(t *testing.T) {
	s := &Scanner{}
	assert.NotPanics(t, func() { s.removeDerivatives("00000000-0000-0000-0000-000000000000") })
}

func TestRemoveDerivatives_DeletesBothFiles(t *testing.T) {
	dir := t.TempDir()
	thumbPath := filepath.Join(dir, "abc"+thumbSuffix)
	fullPath := filepath.Join(dir, "abc"+fullSuffix)
	require.NoError(t, os.WriteFile(thumbPath, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(fullPath, []byte("x"), 0o644))

	s := &Scanner{dataDir: dir}
	s.removeDerivatives("abc")

	_, err := os.Stat(thumbPath)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(fullPath)
	assert.True(t, os.IsNotExist(err))
}
