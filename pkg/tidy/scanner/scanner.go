// Package scanner enumerates files for the tidy engine. Scan and Count look
// only at the immediate children of a directory; Walk descends into every
// sub-directory using fastwalk. Per-entry I/O errors are skipped, never
// returned.
package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/charlievieth/fastwalk"
	"github.com/jamesainslie/tidy/pkg/tidy/logging"
	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

var logger = logging.Get("scanner")

// Scan returns the regular files directly inside dir, sorted by name.
// A missing or unreadable directory yields an empty slice.
func Scan(dir string) []types.FileRecord {
	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Debug("scan skipped directory", "dir", dir, "error", err)
		return []types.FileRecord{}
	}

	records := make([]types.FileRecord, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			logger.Debug("skipping unreadable entry", "name", entry.Name(), "error", err)
			continue
		}
		records = append(records, newRecord(filepath.Join(dir, entry.Name()), info))
	}

	return records
}

// Count returns the number of regular files directly inside dir.
func Count(dir string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}

	n := 0
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			n++
		}
	}
	return n
}

// Walk returns every regular file beneath root, including those directly
// in root, sorted by path. Symlinks are not followed.
func Walk(root string) []types.FileRecord {
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return []types.FileRecord{}
	}

	var (
		mu      sync.Mutex
		records []types.FileRecord
	)

	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Debug("walk error", "path", path, "error", err)
			if d != nil && d.IsDir() && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}

		rec := newRecord(path, info)
		mu.Lock()
		records = append(records, rec)
		mu.Unlock()
		return nil
	})
	if err != nil && !errors.Is(err, fastwalk.ErrSkipFiles) {
		logger.Warn("walk ended early", "root", root, "error", err)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Path < records[j].Path
	})
	if records == nil {
		records = []types.FileRecord{}
	}
	return records
}

func newRecord(path string, info os.FileInfo) types.FileRecord {
	return types.FileRecord{
		Path:       path,
		Name:       info.Name(),
		Size:       info.Size(),
		ModTime:    info.ModTime(),
		CreateTime: getCreateTime(path, info),
	}
}

// Stat returns the record for a single regular file.
func Stat(path string) (types.FileRecord, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return types.FileRecord{}, err
	}
	if !info.Mode().IsRegular() {
		return types.FileRecord{}, fmt.Errorf("%s: not a regular file", path)
	}
	return newRecord(path, info), nil
}
