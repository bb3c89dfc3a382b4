// Package types provides the core data types shared by the tidy engine:
// scanned file records, filename pattern information, detection and
// categorization results, and the aggregated organization result.
package types

import (
	"time"
)

// Unclassified is the category assigned to files without an extension.
const Unclassified = "unclassified"

// FileRecord describes a file discovered by a scan.
// Records are rebuilt on every scan and never persisted.
type FileRecord struct {
	// Path is the full path to the file.
	Path string `json:"path"`

	// Name is the base name of the file including its extension.
	Name string `json:"name"`

	// Size is the file size in bytes.
	Size int64 `json:"size"`

	// ModTime is the last modification time of the file.
	ModTime time.Time `json:"mod_time"`

	// CreateTime is the creation time of the file (may equal ModTime on
	// platforms that do not expose a birth time).
	CreateTime time.Time `json:"create_time,omitempty"`

	// Hash is the content digest. It is empty until the file is hashed.
	Hash string `json:"hash,omitempty"`
}

// Timestamp returns the modification time, falling back to the creation
// time when the modification time is unset.
func (f FileRecord) Timestamp() time.Time {
	if f.ModTime.IsZero() {
		return f.CreateTime
	}
	return f.ModTime
}

// PatternInfo is the result of parsing a version marker out of a filename.
type PatternInfo struct {
	// HasPattern reports whether the name ends in a version marker.
	HasPattern bool

	// Number is the parsed marker number, nil when there is no marker.
	Number *int

	// BaseName is the name without extension and without the marker.
	BaseName string
}

// DuplicateGroup is a set of files sharing one content hash.
type DuplicateGroup struct {
	Hash  string
	Files []FileRecord
}

// DetectionResult holds the decisions made by the duplicate detector.
type DetectionResult struct {
	// FilesToKeep contains the canonical file of every duplicate group.
	FilesToKeep map[string]struct{}

	// FilesToDelete contains the non-canonical members of duplicate groups.
	FilesToDelete map[string]struct{}

	// FilesToRename maps source paths to their collision-free targets.
	FilesToRename map[string]string

	// TotalFilesScanned is the number of files seen by the scan.
	TotalFilesScanned int

	// DuplicateGroupsFound is the number of hash groups with more than one member.
	DuplicateGroupsFound int
}

// NewDetectionResult returns an empty result with initialized collections.
func NewDetectionResult() DetectionResult {
	return DetectionResult{
		FilesToKeep:   make(map[string]struct{}),
		FilesToDelete: make(map[string]struct{}),
		FilesToRename: make(map[string]string),
	}
}

// OperationResult reports the outcome of a single file operation.
type OperationResult struct {
	Success bool
	Message string

	// Destination is where the file ended up. Empty when the file was
	// removed instead of moved.
	Destination string
}

// Ok returns a successful result.
func Ok(message, destination string) OperationResult {
	return OperationResult{Success: true, Message: message, Destination: destination}
}

// Fail returns a failed result carrying the given message.
func Fail(message string) OperationResult {
	return OperationResult{Message: message}
}

// CategorizationResult tallies the outcome of categorizing a set of files.
type CategorizationResult struct {
	FilesMoved         int
	DuplicatesRemoved  int
	VersionsPreserved  int
	UncategorizedFiles int
	Errors             []string
}

// OrganizationResult aggregates the outcome of a complete organization run.
type OrganizationResult struct {
	Directory string        `json:"directory" yaml:"directory"`
	DryRun    bool          `json:"dry_run" yaml:"dry_run"`
	StartedAt time.Time     `json:"started_at" yaml:"started_at"`
	Duration  time.Duration `json:"duration" yaml:"duration"`

	TotalFilesScanned    int `json:"total_files_scanned" yaml:"total_files_scanned"`
	DuplicateGroupsFound int `json:"duplicate_groups_found" yaml:"duplicate_groups_found"`
	DuplicatesRemoved    int `json:"duplicates_removed" yaml:"duplicates_removed"`
	VersionsPreserved    int `json:"versions_preserved" yaml:"versions_preserved"`
	FilesMoved           int `json:"files_moved" yaml:"files_moved"`
	FilesRenamed         int `json:"files_renamed" yaml:"files_renamed"`
	UncategorizedFiles   int `json:"uncategorized_files" yaml:"uncategorized_files"`

	// SubdirectoryCleanup reports whether the subdirectory stage ran.
	SubdirectoryCleanup        bool `json:"subdirectory_cleanup" yaml:"subdirectory_cleanup"`
	SubfolderDuplicateGroups   int  `json:"subfolder_duplicate_groups" yaml:"subfolder_duplicate_groups"`
	SubfolderDuplicatesRemoved int  `json:"subfolder_duplicates_removed" yaml:"subfolder_duplicates_removed"`

	Errors  []string `json:"errors,omitempty" yaml:"errors,omitempty"`
	Summary string   `json:"summary" yaml:"summary"`
}

// Stage identifies a step of the organization pipeline.
type Stage int

// Pipeline stages in execution order.
const (
	StageScanning Stage = iota
	StageDuplicateResolution
	StageCategorization
	StageSubdirectoryCleanup
	StageComplete
)

// String returns the display name of the stage.
func (s Stage) String() string {
	switch s {
	case StageScanning:
		return "scanning"
	case StageDuplicateResolution:
		return "duplicate-resolution"
	case StageCategorization:
		return "categorization"
	case StageSubdirectoryCleanup:
		return "subdirectory-cleanup"
	case StageComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Indeterminate is the Progress.Percent value used when no percentage is known.
const Indeterminate = -1

// Progress is a snapshot emitted at each pipeline stage boundary.
type Progress struct {
	Stage          Stage
	Percent        int
	Label          string
	FilesProcessed int
	TotalFiles     int
}
