package naming

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStamp(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 3, 9, 14, 5, 7, 0, time.Local)
	dir := filepath.Join("tmp", "inbox")

	assert.Equal(t, filepath.Join(dir, "report_20240309_140507.pdf"), Stamp(filepath.Join(dir, "report.pdf"), ts))
	assert.Equal(t, filepath.Join(dir, "README_20240309_140507"), Stamp(filepath.Join(dir, "README"), ts))
	assert.Equal(t, filepath.Join(dir, "archive.tar_20240309_140507.gz"), Stamp(filepath.Join(dir, "archive.tar.gz"), ts))
}

func TestDisambiguate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	target := filepath.Join(dir, "photo.jpg")

	assert.Equal(t, target, Disambiguate(target), "free path is returned unchanged")

	require.NoError(t, os.WriteFile(target, []byte("a"), 0o644))
	assert.Equal(t, filepath.Join(dir, "photo_1.jpg"), Disambiguate(target))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "photo_1.jpg"), []byte("b"), 0o644))
	assert.Equal(t, filepath.Join(dir, "photo_2.jpg"), Disambiguate(target))
}

func TestStampUnique(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ts := time.Date(2023, 12, 31, 23, 59, 59, 0, time.Local)
	stamped := filepath.Join(dir, "notes_20231231_235959.txt")
	require.NoError(t, os.WriteFile(stamped, []byte("x"), 0o644))

	got := StampUnique(filepath.Join(dir, "notes.txt"), ts)
	assert.Equal(t, filepath.Join(dir, "notes_20231231_235959_1.txt"), got)
}

func TestDisambiguateWith(t *testing.T) {
	t.Parallel()

	claimed := map[string]bool{"a.txt": true, "a_1.txt": true}
	got := DisambiguateWith("a.txt", func(p string) bool { return claimed[p] })
	assert.Equal(t, "a_2.txt", got)
}
