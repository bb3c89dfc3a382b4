// Package categorizer routes files into per-category sub-folders by
// extension.
package categorizer

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/jamesainslie/tidy/pkg/tidy/collision"
	"github.com/jamesainslie/tidy/pkg/tidy/logging"
	"github.com/jamesainslie/tidy/pkg/tidy/naming"
	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

var logger = logging.Get("categorizer")

// Mover moves a file, refusing to overwrite.
type Mover interface {
	Move(src, dest string) types.OperationResult
}

// Resolver handles a move onto an occupied destination.
type Resolver interface {
	Resolve(src, dest string) types.OperationResult
	Predict(src, dest string) (collision.Prediction, error)
}

// Categorizer moves files into category folders.
type Categorizer struct {
	ops        Mover
	collisions Resolver
}

// New returns a Categorizer.
func New(ops Mover, r Resolver) *Categorizer {
	return &Categorizer{ops: ops, collisions: r}
}

// CategoryFor returns the category folder for name. Files without an
// extension go to types.Unclassified. An empty result means no category
// claims the extension and the file stays where it is.
func CategoryFor(name string, categories []types.Category) string {
	ext := types.NormalizeExtension(filepath.Ext(name))
	if strings.TrimSpace(ext) == "" {
		return types.Unclassified
	}
	for _, c := range categories {
		if c.Matches(ext) {
			return c.Name
		}
	}
	return ""
}

// CategorizeAll moves each file into targetDir/<category>/. Individual
// failures are recorded and never stop the loop.
func (c *Categorizer) CategorizeAll(files []types.FileRecord, targetDir string, categories []types.Category) types.CategorizationResult {
	var result types.CategorizationResult

	for _, f := range files {
		category := CategoryFor(f.Name, categories)
		if category == "" {
			result.UncategorizedFiles++
			continue
		}

		dest := filepath.Join(targetDir, category, f.Name)
		if !exists(dest) {
			res := c.ops.Move(f.Path, dest)
			if !res.Success {
				result.Errors = append(result.Errors, res.Message)
				continue
			}
			result.FilesMoved++
			continue
		}

		res := c.collisions.Resolve(f.Path, dest)
		switch {
		case !res.Success:
			result.Errors = append(result.Errors, res.Message)
		case res.Destination == "":
			result.DuplicatesRemoved++
		case !strings.EqualFold(res.Destination, dest):
			result.VersionsPreserved++
		default:
			result.FilesMoved++
		}
	}

	logger.Debug("categorization complete",
		"moved", result.FilesMoved,
		"duplicates", result.DuplicatesRemoved,
		"versions", result.VersionsPreserved,
		"uncategorized", result.UncategorizedFiles,
		"errors", len(result.Errors))

	return result
}

// Plan returns the tallies CategorizeAll would produce without touching
// the filesystem.
func (c *Categorizer) Plan(files []types.FileRecord, targetDir string, categories []types.Category) types.CategorizationResult {
	result, _ := c.Project(files, targetDir, categories)
	return result
}

// Project is Plan that also returns the files that would end up inside a
// category folder. Each placed record keeps its current Path so it can
// still be read; Name is the name it would have after the move.
func (c *Categorizer) Project(files []types.FileRecord, targetDir string, categories []types.Category) (types.CategorizationResult, []types.FileRecord) {
	var result types.CategorizationResult
	var placed []types.FileRecord
	planned := make(map[string]string)

	for _, f := range files {
		category := CategoryFor(f.Name, categories)
		if category == "" {
			result.UncategorizedFiles++
			continue
		}

		dest := filepath.Join(targetDir, category, f.Name)
		occupant, earlier := planned[dest]
		if !earlier && !exists(dest) {
			planned[dest] = f.Path
			result.FilesMoved++
			placed = append(placed, f)
			continue
		}
		if !earlier {
			occupant = dest
		}

		// An earlier planned move occupies dest just as a file on disk would.
		p, err := c.collisions.Predict(f.Path, occupant)
		switch {
		case err != nil:
			result.Errors = append(result.Errors, err.Error())
		case p.Outcome == collision.Duplicate:
			result.DuplicatesRemoved++
		default:
			result.VersionsPreserved++
			stamped := p.Destination
			if earlier {
				stamped = naming.Stamp(dest, f.Timestamp())
			}
			planned[stamped] = f.Path
			f.Name = filepath.Base(stamped)
			placed = append(placed, f)
		}
	}

	return result, placed
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
