package journal

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Retention bounds how many journals are kept.
type Retention struct {
	// KeepDays removes run journals older than this many days.
	KeepDays int
	// MaxFiles keeps at most this many run journals, newest first.
	MaxFiles int
	// ErrorDays removes error journals older than this many days.
	ErrorDays int
}

// DefaultRetention returns the standard journal retention.
func DefaultRetention() Retention {
	return Retention{KeepDays: 30, MaxFiles: 50, ErrorDays: 90}
}

// Maintain prunes journals in dir according to r and returns the number
// of files removed. Failures are ignored. A zero field disables that rule.
func Maintain(dir string, r Retention) int {
	return maintain(dir, r, time.Now())
}

func maintain(dir string, r Retention, now time.Time) int {
	removed := prune(dir, r.KeepDays, r.MaxFiles, now)
	removed += prune(filepath.Join(dir, ErrorDir), r.ErrorDays, 0, now)
	return removed
}

type logFile struct {
	path    string
	modTime time.Time
}

func prune(dir string, keepDays, maxFiles int, now time.Time) int {
	files := listLogs(dir)
	removed := 0

	if keepDays > 0 {
		cutoff := now.AddDate(0, 0, -keepDays)
		kept := files[:0]
		for _, f := range files {
			if f.modTime.Before(cutoff) {
				if os.Remove(f.path) == nil {
					removed++
				}
				continue
			}
			kept = append(kept, f)
		}
		files = kept
	}

	if maxFiles > 0 && len(files) > maxFiles {
		for _, f := range files[maxFiles:] {
			if os.Remove(f.path) == nil {
				removed++
			}
		}
	}

	return removed
}

// listLogs returns the *.log files in dir, newest first.
func listLogs(dir string) []logFile {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var files []logFile
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".log") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, logFile{path: filepath.Join(dir, e.Name()), modTime: info.ModTime()})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].modTime.After(files[j].modTime)
	})
	return files
}
