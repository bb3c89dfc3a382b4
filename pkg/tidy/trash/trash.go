// Package trash moves deleted files into the desktop trash where one is
// available, falling back to permanent removal.
package trash

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/jamesainslie/tidy/pkg/tidy/logging"
)

// commandTimeout bounds each external trash command.
const commandTimeout = 30 * time.Second

// ErrNotFile is returned when the target is a directory or other
// non-regular entry.
var ErrNotFile = errors.New("not a regular file")

var logger = logging.Get("trash")

// runner executes an external command. Replaced in tests.
type runner func(ctx context.Context, name string, args ...string) error

func execRunner(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

// Bin removes files, preferring the platform trash.
type Bin struct {
	goos     string
	run      runner
	lookPath func(string) (string, error)
}

// New returns a Bin for the running platform.
func New() *Bin {
	return &Bin{goos: runtime.GOOS, run: execRunner, lookPath: exec.LookPath}
}

// Discard moves the regular file at path to the trash. When no trash
// helper is available or every helper fails, the file is removed
// permanently.
func (b *Bin) Discard(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		return fmt.Errorf("cannot trash %q: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("cannot trash %q: %w", path, ErrNotFile)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("cannot resolve absolute path for %q: %w", path, err)
	}

	for _, cmd := range b.commands(abs) {
		bin, err := b.lookPath(cmd[0])
		if err != nil {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		err = b.run(ctx, bin, cmd[1:]...)
		cancel()
		if err == nil && !exists(abs) {
			return nil
		}
		logger.Debug("trash helper failed", "helper", cmd[0], "path", abs, "error", err)
	}

	return remove(abs)
}

// commands lists candidate helpers in preference order.
func (b *Bin) commands(path string) [][]string {
	switch b.goos {
	case "darwin":
		script := fmt.Sprintf(`tell application "Finder" to delete POSIX file %q`, path)
		return [][]string{{"osascript", "-e", script}}
	case "linux":
		return [][]string{
			{"gio", "trash", path},
			{"trash-put", path},
		}
	default:
		return nil
	}
}

func remove(path string) error {
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to delete %q: %w", path, err)
	}
	return nil
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// MoveToTrash discards path using the platform's trash helpers.
func MoveToTrash(path string) error {
	return New().Discard(path)
}
