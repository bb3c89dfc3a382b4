// Package organizer runs the full organization pipeline over a directory:
// duplicate resolution, categorization and optional cleanup of nested
// duplicates.
package organizer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/jamesainslie/tidy/pkg/tidy/categorizer"
	"github.com/jamesainslie/tidy/pkg/tidy/collision"
	"github.com/jamesainslie/tidy/pkg/tidy/duplicates"
	"github.com/jamesainslie/tidy/pkg/tidy/fileops"
	"github.com/jamesainslie/tidy/pkg/tidy/hasher"
	"github.com/jamesainslie/tidy/pkg/tidy/logging"
	"github.com/jamesainslie/tidy/pkg/tidy/oplog"
	"github.com/jamesainslie/tidy/pkg/tidy/scanner"
	"github.com/jamesainslie/tidy/pkg/tidy/subdirs"
	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

var (
	// ErrCanceled is returned when the context is canceled between stages.
	ErrCanceled = errors.New("organization canceled")

	// ErrNotDirectory is returned when the target is missing or not a directory.
	ErrNotDirectory = errors.New("not a directory")
)

var logger = logging.Get("organizer")

// Hasher computes content digests.
type Hasher interface {
	Hash(path string) (string, error)
	BatchHash(records []types.FileRecord) map[string]string
}

// Options configures a single run.
type Options struct {
	// Categories is the active category list. It is validated before any
	// file is touched.
	Categories []types.Category

	// DryRun computes the outcome without changing the filesystem.
	DryRun bool

	// ScanSubdirectories enables removal of duplicates in nested folders.
	ScanSubdirectories bool

	// Hasher defaults to MD5.
	Hasher Hasher

	// Logger receives operation records. Nil disables operation logging.
	Logger oplog.Logger

	// Discarder replaces permanent deletion, for example with the trash.
	Discarder fileops.Discarder

	// OnProgress is called at each stage boundary from the running goroutine.
	OnProgress func(types.Progress)
}

// Run organizes dir and returns the aggregated result. Cancellation is
// checked between stages only; a stage in progress always finishes.
func Run(ctx context.Context, dir string, opts Options) (*types.OrganizationResult, error) {
	if err := types.ValidateCategories(opts.Categories); err != nil {
		return nil, err
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, dir)
	}

	return newPipeline(dir, opts).run(ctx)
}

type pipeline struct {
	dir        string
	opts       Options
	categories []types.Category
	log        oplog.Logger

	ops         *fileops.Ops
	detector    *duplicates.Detector
	categorizer *categorizer.Categorizer
	cleaner     *subdirs.Cleaner

	result types.OrganizationResult
	total  int
}

func newPipeline(dir string, opts Options) *pipeline {
	h := opts.Hasher
	if h == nil {
		h = hasher.New(hasher.MD5)
	}
	log := oplog.OrNop(opts.Logger)

	var fopts []fileops.Option
	if opts.Discarder != nil {
		fopts = append(fopts, fileops.WithDiscarder(opts.Discarder))
	}
	ops := fileops.New(log, fopts...)

	return &pipeline{
		dir:         filepath.Clean(dir),
		opts:        opts,
		categories:  types.NormalizeCategories(opts.Categories),
		log:         log,
		ops:         ops,
		detector:    duplicates.New(h),
		categorizer: categorizer.New(ops, collision.New(h, ops, log)),
		cleaner:     subdirs.New(h, ops, log),
		result: types.OrganizationResult{
			Directory: filepath.Clean(dir),
			DryRun:    opts.DryRun,
			StartedAt: time.Now(),
		},
	}
}

func (p *pipeline) run(ctx context.Context) (*types.OrganizationResult, error) {
	p.total = scanner.Count(p.dir)
	p.log.LogOperation(oplog.Record{
		Kind:    oplog.KindScan,
		Source:  p.dir,
		Message: fmt.Sprintf("Pre-scan counted %d files in %s", p.total, p.dir),
	})
	p.progress(types.StageScanning, 0, "Pre-scan complete", 0)
	if err := checkCanceled(ctx); err != nil {
		return nil, err
	}

	p.progress(types.StageDuplicateResolution, 25, "Detecting duplicates", 0)
	files := scanner.Scan(p.dir)
	detection := p.detector.DetectFiles(files)
	p.result.TotalFilesScanned = detection.TotalFilesScanned
	p.result.DuplicateGroupsFound = detection.DuplicateGroupsFound
	if detection.DuplicateGroupsFound > 0 {
		p.log.LogOperation(oplog.Record{
			Kind:    oplog.KindDuplicate,
			Message: fmt.Sprintf("Duplicate groups found: %d", detection.DuplicateGroupsFound),
		})
	}

	var remaining []types.FileRecord
	if p.opts.DryRun {
		remaining = project(files, detection)
		p.result.DuplicatesRemoved = len(detection.FilesToDelete)
		p.result.FilesRenamed = len(detection.FilesToRename)
	} else {
		p.applyDetection(detection)
	}
	if err := checkCanceled(ctx); err != nil {
		return nil, err
	}

	p.progress(types.StageCategorization, 50, "Categorizing files", len(files))
	var (
		cat    types.CategorizationResult
		placed []types.FileRecord
	)
	if p.opts.DryRun {
		cat, placed = p.categorizer.Project(remaining, p.dir, p.categories)
	} else {
		cat = p.categorizer.CategorizeAll(scanner.Scan(p.dir), p.dir, p.categories)
	}
	p.mergeCategorization(cat)
	if err := checkCanceled(ctx); err != nil {
		return nil, err
	}

	if p.opts.ScanSubdirectories {
		p.progress(types.StageSubdirectoryCleanup, 75, "Cleaning subdirectory duplicates", len(files))
		p.cleanSubdirectories(placed)
		if err := checkCanceled(ctx); err != nil {
			return nil, err
		}
	}

	p.progress(types.StageComplete, 100, "Complete", p.total)

	p.result.Duration = time.Since(p.result.StartedAt)
	p.result.Summary = Summarize(&p.result)

	logger.Info("organization complete",
		"dir", p.dir,
		"dry_run", p.opts.DryRun,
		"scanned", p.result.TotalFilesScanned,
		"moved", p.result.FilesMoved,
		"removed", p.result.DuplicatesRemoved,
		"errors", len(p.result.Errors),
		"duration", p.result.Duration)

	res := p.result
	return &res, nil
}

// applyDetection deletes the redundant copies, then renames the kept
// ones. Renames run in source order and never overwrite.
func (p *pipeline) applyDetection(d types.DetectionResult) {
	for _, path := range sortedKeys(d.FilesToDelete) {
		res := p.ops.Delete(path)
		if !res.Success {
			p.result.Errors = append(p.result.Errors, res.Message)
			continue
		}
		p.result.DuplicatesRemoved++
	}

	sources := make([]string, 0, len(d.FilesToRename))
	for src := range d.FilesToRename {
		sources = append(sources, src)
	}
	sort.Strings(sources)

	for _, src := range sources {
		res := p.ops.Rename(src, d.FilesToRename[src])
		if !res.Success {
			p.result.Errors = append(p.result.Errors, res.Message)
			continue
		}
		p.result.FilesRenamed++
	}
}

func (p *pipeline) mergeCategorization(c types.CategorizationResult) {
	p.result.FilesMoved += c.FilesMoved
	p.result.DuplicatesRemoved += c.DuplicatesRemoved
	p.result.VersionsPreserved += c.VersionsPreserved
	p.result.UncategorizedFiles += c.UncategorizedFiles
	p.result.Errors = append(p.result.Errors, c.Errors...)
}

// cleanSubdirectories removes nested duplicates. In a dry run, placed
// holds the root files categorization would have moved below p.dir.
func (p *pipeline) cleanSubdirectories(placed []types.FileRecord) {
	p.result.SubdirectoryCleanup = true

	if p.opts.DryRun {
		groups, err := p.cleaner.FindWith(p.dir, placed)
		if err != nil {
			p.result.Errors = append(p.result.Errors, err.Error())
			return
		}
		p.result.SubfolderDuplicateGroups = len(groups)
		p.result.SubfolderDuplicatesRemoved = subdirs.Removable(groups)
		return
	}

	groups, deleted, err := p.cleaner.Clean(p.dir)
	if err != nil {
		p.result.Errors = append(p.result.Errors, err.Error())
		return
	}
	p.result.SubfolderDuplicateGroups = groups
	p.result.SubfolderDuplicatesRemoved = deleted
}

func (p *pipeline) progress(stage types.Stage, percent int, label string, processed int) {
	logger.Debug("stage", "stage", stage, "percent", percent)
	if p.opts.OnProgress == nil {
		return
	}
	p.opts.OnProgress(types.Progress{
		Stage:          stage,
		Percent:        percent,
		Label:          label,
		FilesProcessed: processed,
		TotalFiles:     p.total,
	})
}

// project applies a detection plan to a scan without touching disk:
// deleted files disappear and renamed files take their target name while
// keeping their source path for hashing.
func project(files []types.FileRecord, d types.DetectionResult) []types.FileRecord {
	out := make([]types.FileRecord, 0, len(files))
	for _, f := range files {
		if _, ok := d.FilesToDelete[f.Path]; ok {
			continue
		}
		if target, ok := d.FilesToRename[f.Path]; ok {
			f.Name = filepath.Base(target)
		}
		out = append(out, f)
	}
	return out
}

func checkCanceled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrCanceled, err)
	}
	return nil
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
