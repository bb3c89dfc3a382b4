// Package manifest records the history of organize runs as one JSON file
// per run.
package manifest

import (
	"time"

	"github.com/jamesainslie/tidy/pkg/tidy/oplog"
	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

// Entry represents a single recorded run.
type Entry struct {
	ID         string         `json:"id"`
	Timestamp  time.Time      `json:"timestamp"`
	Directory  string         `json:"directory"`
	DryRun     bool           `json:"dry_run"`
	Duration   time.Duration  `json:"duration"`
	Summary    Summary        `json:"summary"`
	Operations []oplog.Record `json:"operations"`
	Errors     []string       `json:"errors,omitempty"`
}

// Summary holds the counters of a run.
type Summary struct {
	TotalFilesScanned          int `json:"total_files_scanned"`
	DuplicateGroupsFound       int `json:"duplicate_groups_found"`
	DuplicatesRemoved          int `json:"duplicates_removed"`
	VersionsPreserved          int `json:"versions_preserved"`
	FilesMoved                 int `json:"files_moved"`
	FilesRenamed               int `json:"files_renamed"`
	UncategorizedFiles         int `json:"uncategorized_files"`
	SubfolderDuplicateGroups   int `json:"subfolder_duplicate_groups"`
	SubfolderDuplicatesRemoved int `json:"subfolder_duplicates_removed"`
}

// SummaryOf extracts the counters from a run result.
func SummaryOf(r *types.OrganizationResult) Summary {
	return Summary{
		TotalFilesScanned:          r.TotalFilesScanned,
		DuplicateGroupsFound:       r.DuplicateGroupsFound,
		DuplicatesRemoved:          r.DuplicatesRemoved,
		VersionsPreserved:          r.VersionsPreserved,
		FilesMoved:                 r.FilesMoved,
		FilesRenamed:               r.FilesRenamed,
		UncategorizedFiles:         r.UncategorizedFiles,
		SubfolderDuplicateGroups:   r.SubfolderDuplicateGroups,
		SubfolderDuplicatesRemoved: r.SubfolderDuplicatesRemoved,
	}
}

// Changes returns the number of files the run touched.
func (s Summary) Changes() int {
	return s.DuplicatesRemoved + s.VersionsPreserved + s.FilesMoved + s.FilesRenamed + s.SubfolderDuplicatesRemoved
}
