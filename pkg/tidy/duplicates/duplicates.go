// Package duplicates finds content duplicates among the files directly
// inside a directory and plans which copies to keep, delete or rename.
// Detection is read-only; the organizer applies the plan.
package duplicates

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jamesainslie/tidy/pkg/tidy/logging"
	"github.com/jamesainslie/tidy/pkg/tidy/naming"
	"github.com/jamesainslie/tidy/pkg/tidy/pattern"
	"github.com/jamesainslie/tidy/pkg/tidy/scanner"
	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

var logger = logging.Get("duplicates")

// BatchHasher computes content digests for a set of files, omitting files
// that cannot be read.
type BatchHasher interface {
	BatchHash(records []types.FileRecord) map[string]string
}

// Detector plans duplicate resolution for a directory.
type Detector struct {
	hasher BatchHasher
}

// New returns a Detector that uses h for content digests.
func New(h BatchHasher) *Detector {
	return &Detector{hasher: h}
}

// Detect scans dir and returns the resolution plan for its root-level files.
func (d *Detector) Detect(dir string) types.DetectionResult {
	return d.DetectFiles(scanner.Scan(dir))
}

// DetectFiles plans duplicate resolution for an already scanned file set.
func (d *Detector) DetectFiles(files []types.FileRecord) types.DetectionResult {
	result := types.NewDetectionResult()
	result.TotalFilesScanned = len(files)
	if len(files) == 0 {
		return result
	}

	hashes := d.hasher.BatchHash(files)
	byPath := make(map[string]types.FileRecord, len(files))
	for _, f := range files {
		byPath[f.Path] = f
	}

	p := &planner{result: result, claimed: make(map[string]struct{})}

	for _, g := range groupByDigest(files, hashes) {
		result.DuplicateGroupsFound++

		paths := make([]string, len(g.Files))
		for i, f := range g.Files {
			paths[i] = f.Path
		}
		keep := pattern.SelectCanonical(paths)
		for _, path := range paths {
			if path != keep {
				result.FilesToDelete[path] = struct{}{}
			}
		}

		stripped := pattern.StripMarker(keep)
		if strings.EqualFold(stripped, keep) {
			result.FilesToKeep[keep] = struct{}{}
			continue
		}

		target := stripped
		if p.conflicts(stripped, g.Hash, hashes) {
			target = naming.Stamp(stripped, byPath[keep].Timestamp())
		}
		p.rename(keep, target)
	}

	p.versionRenames(files)

	logger.Debug("duplicate detection complete",
		"scanned", result.TotalFilesScanned,
		"groups", result.DuplicateGroupsFound,
		"delete", len(result.FilesToDelete),
		"rename", len(result.FilesToRename))

	return result
}

// groupByDigest returns the digest groups with more than one member,
// ordered by digest. Members keep scan order.
func groupByDigest(files []types.FileRecord, hashes map[string]string) []types.DuplicateGroup {
	byDigest := make(map[string][]types.FileRecord)
	for _, f := range files {
		digest, ok := hashes[f.Path]
		if !ok {
			continue
		}
		f.Hash = digest
		byDigest[digest] = append(byDigest[digest], f)
	}

	groups := make([]types.DuplicateGroup, 0, len(byDigest))
	for digest, members := range byDigest {
		if len(members) > 1 {
			groups = append(groups, types.DuplicateGroup{Hash: digest, Files: members})
		}
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Hash < groups[j].Hash })
	return groups
}

type planner struct {
	result  types.DetectionResult
	claimed map[string]struct{}
}

// taken reports whether path is on disk or already chosen as a target.
func (p *planner) taken(path string) bool {
	if _, ok := p.claimed[path]; ok {
		return true
	}
	_, err := os.Lstat(path)
	return err == nil
}

// conflicts reports whether a plain rename to target would clash with a
// file of different content or with an earlier rename.
func (p *planner) conflicts(target, digest string, hashes map[string]string) bool {
	if _, ok := p.claimed[target]; ok {
		return true
	}
	if existing, ok := hashes[target]; ok {
		return existing != digest
	}
	_, err := os.Lstat(target)
	return err == nil
}

// rename schedules src to move to a distinct, unclaimed target.
func (p *planner) rename(src, target string) {
	target = naming.DisambiguateWith(target, p.taken)
	p.claimed[target] = struct{}{}
	p.result.FilesToRename[src] = target
}

// versionRenames stamps surviving numbered copies whose base name matches
// a plain file, so "report(1).pdf" next to "report.pdf" becomes
// "report_<timestamp>.pdf".
func (p *planner) versionRenames(files []types.FileRecord) {
	type entry struct {
		file types.FileRecord
		info types.PatternInfo
	}

	var numbered []entry
	plainBases := make(map[string]struct{})
	for _, f := range files {
		if _, deleted := p.result.FilesToDelete[f.Path]; deleted {
			continue
		}
		info := pattern.Detect(f.Name)
		if info.HasPattern {
			numbered = append(numbered, entry{file: f, info: info})
		} else {
			plainBases[strings.ToLower(info.BaseName)] = struct{}{}
		}
	}
	// Canonical copies renamed to their stripped name become plain files
	// in this run, so their numbered siblings are stamped now rather than
	// on the next run.
	for _, target := range p.result.FilesToRename {
		if info := pattern.Detect(filepath.Base(target)); !info.HasPattern {
			plainBases[strings.ToLower(info.BaseName)] = struct{}{}
		}
	}

	for _, e := range numbered {
		if _, ok := plainBases[strings.ToLower(e.info.BaseName)]; !ok {
			continue
		}
		if _, done := p.result.FilesToRename[e.file.Path]; done {
			continue
		}
		p.rename(e.file.Path, naming.Stamp(pattern.StripMarker(e.file.Path), e.file.Timestamp()))
	}
}
