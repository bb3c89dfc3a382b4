// Package fileops performs the mutating file operations of an organize run
// and reports each one to an operation logger.
package fileops

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/jamesainslie/tidy/pkg/tidy/oplog"
	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

// ErrExists is returned when a move or rename target is already present.
var ErrExists = errors.New("target already exists")

// Discarder removes a file, for example by moving it to the trash.
type Discarder interface {
	Discard(path string) error
}

// Option configures Ops.
type Option func(*Ops)

// WithDiscarder routes deletions through d instead of removing files
// permanently.
func WithDiscarder(d Discarder) Option {
	return func(o *Ops) {
		if d != nil {
			o.discard = d.Discard
		}
	}
}

// Ops moves, renames and deletes files. The zero value is not usable; use New.
type Ops struct {
	log     oplog.Logger
	discard func(string) error
}

// New returns Ops that report to l. A nil l disables operation logging.
func New(l oplog.Logger, opts ...Option) *Ops {
	o := &Ops{log: oplog.OrNop(l), discard: os.Remove}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Move moves src to dest, creating dest's parent directory. It never
// replaces an existing dest.
func (o *Ops) Move(src, dest string) types.OperationResult {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return o.fail("move", src, err)
	}
	if err := renameNoReplace(src, dest); err != nil {
		return o.fail("move", src, err)
	}

	o.log.LogOperation(oplog.Record{
		Kind:    oplog.KindMove,
		Source:  src,
		Dest:    dest,
		Message: fmt.Sprintf("%s -> %s", src, dest),
	})
	return types.Ok("Moved file.", dest)
}

// Rename renames src to dest within the same directory tree. An existing
// dest is a failure.
func (o *Ops) Rename(src, dest string) types.OperationResult {
	if err := renameNoReplace(src, dest); err != nil {
		return o.fail("rename", src, err)
	}

	o.log.LogOperation(oplog.Record{
		Kind:    oplog.KindRename,
		Source:  src,
		Dest:    dest,
		Message: fmt.Sprintf("%s -> %s", src, dest),
	})
	return types.Ok("Renamed file.", dest)
}

// Delete removes the file at path.
func (o *Ops) Delete(path string) types.OperationResult {
	if err := o.discard(path); err != nil {
		return o.fail("delete", path, err)
	}

	o.log.LogOperation(oplog.Record{
		Kind:    oplog.KindDelete,
		Source:  path,
		Message: "Removed " + path,
	})
	return types.Ok("Deleted file.", "")
}

// Exists reports whether anything is present at path.
func (o *Ops) Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

func (o *Ops) fail(verb, path string, err error) types.OperationResult {
	msg := fmt.Sprintf("failed to %s %s: %v", verb, path, err)
	o.log.LogOperation(oplog.Record{Kind: oplog.KindError, Source: path, Message: msg})
	return types.Fail(msg)
}

// renameFallback checks for dest and then renames. It is racy against
// concurrent writers but refuses the common overwrite case.
func renameFallback(src, dest string) error {
	if _, err := os.Lstat(dest); err == nil {
		return fmt.Errorf("%s: %w", dest, ErrExists)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.Rename(src, dest)
}
