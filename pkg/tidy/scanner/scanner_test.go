package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestDir builds:
//
//	root/
//	  a.txt
//	  b.pdf
//	  docs/
//	    c.txt
//	    deep/
//	      d.txt
func createTestDir(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "docs", "deep"), 0o755))

	files := map[string]string{
		"a.txt":           "alpha",
		"b.pdf":           "bravo",
		"docs/c.txt":      "charlie",
		"docs/deep/d.txt": "delta",
	}
	for rel, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(root, filepath.FromSlash(rel)), []byte(content), 0o644))
	}
	return root
}

func TestScan_ImmediateFilesOnly(t *testing.T) {
	t.Parallel()

	root := createTestDir(t)
	records := Scan(root)

	require.Len(t, records, 2)
	assert.Equal(t, "a.txt", records[0].Name)
	assert.Equal(t, filepath.Join(root, "a.txt"), records[0].Path)
	assert.Equal(t, int64(5), records[0].Size)
	assert.False(t, records[0].ModTime.IsZero())
	assert.False(t, records[0].CreateTime.IsZero())
	assert.Empty(t, records[0].Hash)
	assert.Equal(t, "b.pdf", records[1].Name)
}

func TestScan_MissingDirectory(t *testing.T) {
	t.Parallel()

	records := Scan(filepath.Join(t.TempDir(), "missing"))
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestScan_SkipsSymlinks(t *testing.T) {
	t.Parallel()

	root := createTestDir(t)
	if err := os.Symlink(filepath.Join(root, "a.txt"), filepath.Join(root, "link.txt")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	for _, r := range Scan(root) {
		assert.NotEqual(t, "link.txt", r.Name)
	}
}

func TestCount(t *testing.T) {
	t.Parallel()

	root := createTestDir(t)
	assert.Equal(t, 2, Count(root))
	assert.Equal(t, 0, Count(filepath.Join(root, "missing")))
}

func TestWalk_Recursive(t *testing.T) {
	t.Parallel()

	root := createTestDir(t)
	records := Walk(root)

	var rel []string
	for _, r := range records {
		p, err := filepath.Rel(root, r.Path)
		require.NoError(t, err)
		rel = append(rel, filepath.ToSlash(p))
	}

	assert.Equal(t, []string{"a.txt", "b.pdf", "docs/c.txt", "docs/deep/d.txt"}, rel)
}

func TestWalk_MissingRoot(t *testing.T) {
	t.Parallel()

	assert.Empty(t, Walk(filepath.Join(t.TempDir(), "missing")))
}

func TestStat(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "one.txt")
	require.NoError(t, os.WriteFile(path, []byte("12345"), 0o644))

	rec, err := Stat(path)
	require.NoError(t, err)
	assert.Equal(t, "one.txt", rec.Name)
	assert.Equal(t, int64(5), rec.Size)
	assert.False(t, rec.Timestamp().IsZero())

	_, err = Stat(dir)
	assert.Error(t, err)

	_, err = Stat(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}
