// Package subdirs removes exact duplicates that live in nested folders
// below an organized directory, keeping the oldest copy of each.
package subdirs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/jamesainslie/tidy/pkg/tidy/logging"
	"github.com/jamesainslie/tidy/pkg/tidy/oplog"
	"github.com/jamesainslie/tidy/pkg/tidy/scanner"
	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

// ErrRootNotFound is returned when the root is missing or not a directory.
var ErrRootNotFound = errors.New("root directory not found")

var logger = logging.Get("subdirs")

// BatchHasher computes content digests, omitting unreadable files.
type BatchHasher interface {
	BatchHash(records []types.FileRecord) map[string]string
}

// Deleter removes a single file.
type Deleter interface {
	Delete(path string) types.OperationResult
}

// Cleaner finds and removes nested duplicates.
type Cleaner struct {
	hasher BatchHasher
	ops    Deleter
	log    oplog.Logger
}

// New returns a Cleaner. A nil l disables operation logging.
func New(h BatchHasher, ops Deleter, l oplog.Logger) *Cleaner {
	return &Cleaner{hasher: h, ops: ops, log: oplog.OrNop(l)}
}

// Find returns the duplicate groups among files below root, excluding
// files directly in root. Members are ordered oldest first, so
// Files[0] is the copy that Clean keeps.
func (c *Cleaner) Find(root string) ([]types.DuplicateGroup, error) {
	return c.FindWith(root, nil)
}

// FindWith is Find with incoming counted as nested files too. Dry runs
// pass the root files that categorization would move into category
// folders.
func (c *Cleaner) FindWith(root string, incoming []types.FileRecord) ([]types.DuplicateGroup, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrRootNotFound, root)
	}

	root = filepath.Clean(root)
	var nested []types.FileRecord
	for _, f := range scanner.Walk(root) {
		if filepath.Dir(f.Path) != root {
			nested = append(nested, f)
		}
	}
	nested = append(nested, incoming...)

	hashes := c.hasher.BatchHash(nested)
	byDigest := make(map[string][]types.FileRecord)
	for _, f := range nested {
		digest, ok := hashes[f.Path]
		if !ok {
			continue
		}
		f.Hash = digest
		byDigest[digest] = append(byDigest[digest], f)
	}

	var groups []types.DuplicateGroup
	for digest, files := range byDigest {
		if len(files) < 2 {
			continue
		}
		sort.Slice(files, func(i, j int) bool {
			ti, tj := files[i].Timestamp(), files[j].Timestamp()
			if !ti.Equal(tj) {
				return ti.Before(tj)
			}
			return files[i].Path < files[j].Path
		})
		groups = append(groups, types.DuplicateGroup{Hash: digest, Files: files})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Files[0].Path < groups[j].Files[0].Path })

	return groups, nil
}

// Clean deletes every nested duplicate except the oldest copy. Delete
// failures are logged and skipped.
func (c *Cleaner) Clean(root string) (groups, deleted int, err error) {
	found, err := c.Find(root)
	if err != nil {
		return 0, 0, err
	}

	for _, g := range found {
		keep := g.Files[0]
		for _, dup := range g.Files[1:] {
			res := c.ops.Delete(dup.Path)
			if !res.Success {
				logger.Warn("failed to delete nested duplicate", "path", dup.Path, "error", res.Message)
				continue
			}
			deleted++
		}
		c.log.LogOperation(oplog.Record{
			Kind:    oplog.KindDuplicate,
			Source:  keep.Path,
			Message: "Subfolder duplicates cleaned; kept oldest: " + keep.Path,
		})
	}

	return len(found), deleted, nil
}

// Removable returns the number of files Clean would delete for groups.
func Removable(groups []types.DuplicateGroup) int {
	n := 0
	for _, g := range groups {
		n += len(g.Files) - 1
	}
	return n
}
