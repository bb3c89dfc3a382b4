// Package naming derives collision-free file names from timestamps and
// numeric suffixes. It never looks at file contents.
package naming

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// StampLayout is the time layout inserted by Stamp (YYYYMMDD_HHMMSS).
const StampLayout = "20060102_150405"

// Stamp inserts "_<YYYYMMDD_HHMMSS>" between the base name and extension
// of path.
func Stamp(path string, t time.Time) string {
	dir, stem, ext := split(path)
	return filepath.Join(dir, fmt.Sprintf("%s_%s%s", stem, t.Format(StampLayout), ext))
}

// Disambiguate returns path unchanged when nothing exists there; otherwise
// it appends "_1", "_2", ... until a free name is found.
func Disambiguate(path string) string {
	return DisambiguateWith(path, exists)
}

// DisambiguateWith is Disambiguate with a caller-supplied test for names
// that are already taken.
func DisambiguateWith(path string, taken func(string) bool) string {
	if !taken(path) {
		return path
	}

	dir, stem, ext := split(path)
	for i := 1; ; i++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, i, ext))
		if !taken(candidate) {
			return candidate
		}
	}
}

// StampUnique stamps path with t and disambiguates the result.
func StampUnique(path string, t time.Time) string {
	return Disambiguate(Stamp(path, t))
}

func split(path string) (dir, stem, ext string) {
	name := filepath.Base(path)
	ext = filepath.Ext(name)
	return filepath.Dir(path), strings.TrimSuffix(name, ext), ext
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
