package organizer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jamesainslie/tidy/pkg/tidy/hasher"
	"github.com/jamesainslie/tidy/pkg/tidy/oplog"
	"github.com/jamesainslie/tidy/pkg/tidy/scanner"
	"github.com/jamesainslie/tidy/pkg/tidy/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCategories = []types.Category{
	{Name: "pdf", Extensions: []string{"pdf"}},
	{Name: "images", Extensions: []string{"jpg", "png"}},
	{Name: "docs", Extensions: []string{"txt"}},
}

var fixedTime = time.Date(2024, 2, 3, 4, 5, 6, 0, time.Local)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	require.NoError(t, os.Chtimes(path, fixedTime, fixedTime))
}

// inbox builds a directory with one duplicate group, one numbered
// version of a plain file and an uncategorized file.
func inbox(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "report.pdf"), "report")
	writeFile(t, filepath.Join(dir, "report(1).pdf"), "report")
	writeFile(t, filepath.Join(dir, "notes.txt"), "v1")
	writeFile(t, filepath.Join(dir, "notes(1).txt"), "v2")
	writeFile(t, filepath.Join(dir, "photo.jpg"), "photo")
	writeFile(t, filepath.Join(dir, "README"), "readme")
	writeFile(t, filepath.Join(dir, "setup.exe"), "bin")
	return dir
}

// snapshot maps every file below dir to its content digest.
func snapshot(t *testing.T, dir string) map[string]string {
	t.Helper()
	return hasher.New(hasher.MD5).BatchHash(scanner.Walk(dir))
}

func opts(l oplog.Logger) Options {
	return Options{Categories: testCategories, Logger: l}
}

func TestRun_Organizes(t *testing.T) {
	t.Parallel()

	dir := inbox(t)
	var c oplog.Collector

	res, err := Run(context.Background(), dir, opts(&c))
	require.NoError(t, err)

	assert.Equal(t, 7, res.TotalFilesScanned)
	assert.Equal(t, 1, res.DuplicateGroupsFound)
	assert.Equal(t, 1, res.DuplicatesRemoved)
	assert.Equal(t, 1, res.FilesRenamed)
	assert.Equal(t, 5, res.FilesMoved)
	assert.Equal(t, 1, res.UncategorizedFiles)
	assert.Zero(t, res.VersionsPreserved)
	assert.Empty(t, res.Errors)

	assert.FileExists(t, filepath.Join(dir, "pdf", "report.pdf"))
	assert.FileExists(t, filepath.Join(dir, "docs", "notes.txt"))
	assert.FileExists(t, filepath.Join(dir, "docs", "notes_20240203_040506.txt"))
	assert.FileExists(t, filepath.Join(dir, "images", "photo.jpg"))
	assert.FileExists(t, filepath.Join(dir, types.Unclassified, "README"))
	assert.FileExists(t, filepath.Join(dir, "setup.exe"))
	assert.NoFileExists(t, filepath.Join(dir, "report(1).pdf"))

	assert.Equal(t, 1, c.Count(oplog.KindScan))
	assert.Equal(t, 1, c.Count(oplog.KindDelete))
	assert.Equal(t, 1, c.Count(oplog.KindRename))
	assert.Equal(t, 5, c.Count(oplog.KindMove))
	assert.Contains(t, res.Summary, "Files moved: 5")
	assert.Contains(t, res.Summary, "Files renamed: 1")
}

func TestRun_Idempotent(t *testing.T) {
	t.Parallel()

	dir := inbox(t)
	_, err := Run(context.Background(), dir, opts(nil))
	require.NoError(t, err)

	before := snapshot(t, dir)
	var c oplog.Collector
	res, err := Run(context.Background(), dir, opts(&c))
	require.NoError(t, err)

	assert.Zero(t, res.FilesMoved)
	assert.Zero(t, res.DuplicatesRemoved)
	assert.Zero(t, res.FilesRenamed)
	assert.Zero(t, res.VersionsPreserved)
	assert.Equal(t, 1, res.UncategorizedFiles)
	assert.Zero(t, c.Count(oplog.KindMove)+c.Count(oplog.KindDelete)+c.Count(oplog.KindRename))
	assert.Equal(t, before, snapshot(t, dir))
}

func TestRun_IdempotentWithUncategorizedVersions(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a(1).exe"), "same")
	writeFile(t, filepath.Join(dir, "a(3).exe"), "same")
	writeFile(t, filepath.Join(dir, "a_7.exe"), "other")

	first, err := Run(context.Background(), dir, opts(nil))
	require.NoError(t, err)
	assert.Equal(t, 1, first.DuplicatesRemoved)
	assert.Equal(t, 2, first.FilesRenamed)
	assert.FileExists(t, filepath.Join(dir, "a.exe"))
	assert.FileExists(t, filepath.Join(dir, "a_20240203_040506.exe"))

	before := snapshot(t, dir)
	second, err := Run(context.Background(), dir, opts(nil))
	require.NoError(t, err)
	assert.Zero(t, second.FilesRenamed)
	assert.Zero(t, second.DuplicatesRemoved)
	assert.Equal(t, before, snapshot(t, dir))
}

func TestRun_DryRunMatchesRealRun(t *testing.T) {
	t.Parallel()

	dir := inbox(t)
	writeFile(t, filepath.Join(dir, "pdf", "report.pdf"), "older report")
	before := snapshot(t, dir)

	dry, err := Run(context.Background(), dir, Options{Categories: testCategories, DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, before, snapshot(t, dir), "dry run must not touch the filesystem")
	assert.True(t, dry.DryRun)
	assert.Contains(t, dry.Summary, DryRunNotice)

	applied, err := Run(context.Background(), dir, opts(nil))
	require.NoError(t, err)

	assert.Equal(t, applied.TotalFilesScanned, dry.TotalFilesScanned)
	assert.Equal(t, applied.DuplicateGroupsFound, dry.DuplicateGroupsFound)
	assert.Equal(t, applied.DuplicatesRemoved, dry.DuplicatesRemoved)
	assert.Equal(t, applied.FilesRenamed, dry.FilesRenamed)
	assert.Equal(t, applied.FilesMoved, dry.FilesMoved)
	assert.Equal(t, applied.VersionsPreserved, dry.VersionsPreserved)
	assert.Equal(t, 1, applied.VersionsPreserved)
	assert.Equal(t, applied.UncategorizedFiles, dry.UncategorizedFiles)
}

func TestRun_Canceled(t *testing.T) {
	t.Parallel()

	dir := inbox(t)
	before := snapshot(t, dir)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := Run(ctx, dir, opts(nil))
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, ErrCanceled))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, before, snapshot(t, dir))
}

func TestRun_CanceledMidway(t *testing.T) {
	t.Parallel()

	dir := inbox(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	o := opts(nil)
	o.OnProgress = func(p types.Progress) {
		if p.Stage == types.StageDuplicateResolution {
			cancel()
		}
	}

	_, err := Run(ctx, dir, o)
	require.True(t, errors.Is(err, ErrCanceled))

	// Duplicate resolution finished; categorization never started.
	assert.NoFileExists(t, filepath.Join(dir, "report(1).pdf"))
	assert.FileExists(t, filepath.Join(dir, "report.pdf"))
	assert.NoDirExists(t, filepath.Join(dir, "pdf"))
}

func TestRun_ProgressMilestones(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		subdirs bool
		want    []int
	}{
		{name: "without subdirectory cleanup", want: []int{0, 25, 50, 100}},
		{name: "with subdirectory cleanup", subdirs: true, want: []int{0, 25, 50, 75, 100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var got []int
			var labels []string
			o := opts(nil)
			o.ScanSubdirectories = tt.subdirs
			o.OnProgress = func(p types.Progress) {
				got = append(got, p.Percent)
				labels = append(labels, p.Label)
				assert.Equal(t, 7, p.TotalFiles)
			}

			_, err := Run(context.Background(), inbox(t), o)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, "Pre-scan complete", labels[0])
			assert.Equal(t, "Complete", labels[len(labels)-1])
		})
	}
}

func TestRun_InvalidCategories(t *testing.T) {
	t.Parallel()

	dir := inbox(t)
	before := snapshot(t, dir)

	_, err := Run(context.Background(), dir, Options{
		Categories: []types.Category{{Name: "bad name", Extensions: []string{"pdf"}}},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrInvalidCategories))
	assert.Equal(t, before, snapshot(t, dir))
}

func TestRun_NotDirectory(t *testing.T) {
	t.Parallel()

	_, err := Run(context.Background(), filepath.Join(t.TempDir(), "missing"), opts(nil))
	assert.True(t, errors.Is(err, ErrNotDirectory))
}

func TestRun_SubdirectoryCleanup(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "archive", "2023", "scan.pdf"), "scan")
	writeFile(t, filepath.Join(dir, "archive", "2024", "scan.pdf"), "scan")
	writeFile(t, filepath.Join(dir, "archive", "2024", "other.pdf"), "other")

	o := opts(nil)
	o.ScanSubdirectories = true

	dry := o
	dry.DryRun = true
	planned, err := Run(context.Background(), dir, dry)
	require.NoError(t, err)
	assert.Equal(t, 1, planned.SubfolderDuplicateGroups)
	assert.Equal(t, 1, planned.SubfolderDuplicatesRemoved)
	assert.FileExists(t, filepath.Join(dir, "archive", "2024", "scan.pdf"))

	res, err := Run(context.Background(), dir, o)
	require.NoError(t, err)
	assert.True(t, res.SubdirectoryCleanup)
	assert.Equal(t, 1, res.SubfolderDuplicateGroups)
	assert.Equal(t, 1, res.SubfolderDuplicatesRemoved)
	assert.FileExists(t, filepath.Join(dir, "archive", "2023", "scan.pdf"))
	assert.NoFileExists(t, filepath.Join(dir, "archive", "2024", "scan.pdf"))
	assert.Contains(t, res.Summary, "Subfolder duplicates removed: 1")
}

func TestRun_DryRunSubfolderCountsMatchRealRun(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "x.pdf"), "same")
	writeFile(t, filepath.Join(dir, "pdf", "y.pdf"), "same")
	writeFile(t, filepath.Join(dir, "notes.txt"), "notes")
	writeFile(t, filepath.Join(dir, "docs", "notes.txt"), "notes")

	o := opts(nil)
	o.ScanSubdirectories = true
	dry := o
	dry.DryRun = true

	planned, err := Run(context.Background(), dir, dry)
	require.NoError(t, err)
	applied, err := Run(context.Background(), dir, o)
	require.NoError(t, err)

	assert.Equal(t, 1, applied.SubfolderDuplicateGroups)
	assert.Equal(t, 1, applied.SubfolderDuplicatesRemoved)
	assert.Equal(t, 1, applied.DuplicatesRemoved, "notes.txt collides with docs/notes.txt")
	assert.Equal(t, applied.SubfolderDuplicateGroups, planned.SubfolderDuplicateGroups)
	assert.Equal(t, applied.SubfolderDuplicatesRemoved, planned.SubfolderDuplicatesRemoved)
	assert.Equal(t, applied.DuplicatesRemoved, planned.DuplicatesRemoved)
	assert.Equal(t, applied.FilesMoved, planned.FilesMoved)
}

func TestRun_CanceledDuringSubdirectoryCleanup(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "archive", "2023", "scan.pdf"), "scan")
	writeFile(t, filepath.Join(dir, "archive", "2024", "scan.pdf"), "scan")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var last types.Stage
	o := opts(nil)
	o.ScanSubdirectories = true
	o.OnProgress = func(p types.Progress) {
		last = p.Stage
		if p.Stage == types.StageSubdirectoryCleanup {
			cancel()
		}
	}

	res, err := Run(ctx, dir, o)
	require.True(t, errors.Is(err, ErrCanceled))
	assert.Nil(t, res)
	assert.Equal(t, types.StageSubdirectoryCleanup, last, "Complete must not be reported")
	assert.NoFileExists(t, filepath.Join(dir, "archive", "2024", "scan.pdf"))
}

func TestRun_XXHash(t *testing.T) {
	t.Parallel()

	dir := inbox(t)
	o := opts(nil)
	o.Hasher = hasher.New(hasher.XXHash)

	res, err := Run(context.Background(), dir, o)
	require.NoError(t, err)
	assert.Equal(t, 1, res.DuplicatesRemoved)
}

type recordingDiscarder struct{ paths []string }

func (r *recordingDiscarder) Discard(path string) error {
	r.paths = append(r.paths, path)
	return os.Remove(path)
}

func TestRun_UsesDiscarder(t *testing.T) {
	t.Parallel()

	dir := inbox(t)
	d := &recordingDiscarder{}
	o := opts(nil)
	o.Discarder = d

	_, err := Run(context.Background(), dir, o)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "report(1).pdf")}, d.paths)
}
