// Package journal writes the human-readable per-run operation log and
// prunes old journals.
package journal

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jamesainslie/tidy/pkg/tidy/oplog"
)

const (
	lineLayout = "2006-01-02 15:04:05"
	fileLayout = "20060102_150405"
	dayLayout  = "20060102"

	// ErrorDir is the sub-directory holding daily error journals.
	ErrorDir = "errors"
)

// Journal appends one line per operation record to a run file. ERROR
// records are also appended to the day's error file. It is safe for
// concurrent use and implements oplog.Logger.
type Journal struct {
	mu      sync.Mutex
	file    *os.File
	path    string
	errPath string
	now     func() time.Time
	closed  bool
}

var _ oplog.Logger = (*Journal)(nil)

// Open creates dir if needed and starts a new run journal in it.
func Open(dir string) (*Journal, error) {
	return open(dir, time.Now)
}

func open(dir string, now func() time.Time) (*Journal, error) {
	if err := os.MkdirAll(filepath.Join(dir, ErrorDir), 0o755); err != nil {
		return nil, fmt.Errorf("creating journal directory: %w", err)
	}

	started := now()
	path := filepath.Join(dir, fmt.Sprintf("tidy_%s.log", started.Format(fileLayout)))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}

	return &Journal{
		file:    f,
		path:    path,
		errPath: filepath.Join(dir, ErrorDir, fmt.Sprintf("tidy_errors_%s.log", started.Format(dayLayout))),
		now:     now,
	}, nil
}

// Path returns the run journal's file path.
func (j *Journal) Path() string {
	return j.path
}

// LogOperation appends r. Write failures are dropped; the journal never
// interrupts a run.
func (j *Journal) LogOperation(r oplog.Record) {
	j.write(string(r.Kind), r.Message, r.Kind == oplog.KindError)
}

// Info appends an informational line.
func (j *Journal) Info(msg string) {
	j.write("INFO", msg, false)
}

func (j *Journal) write(level, msg string, isError bool) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return
	}

	line := fmt.Sprintf("[%s] [%s] %s\n", j.now().Format(lineLayout), level, msg)
	_, _ = j.file.WriteString(line)

	if isError {
		f, err := os.OpenFile(j.errPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return
		}
		_, _ = f.WriteString(line)
		_ = f.Close()
	}
}

// Close closes the run journal. Later records are discarded.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return nil
	}
	j.closed = true
	return j.file.Close()
}
