package output

import (
	"bytes"
	"encoding/json"

	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

// report is the document shape shared by the json and yaml formatters.
type report struct {
	Directory string `json:"directory" yaml:"directory"`
	DryRun    bool   `json:"dry_run" yaml:"dry_run"`
	StartedAt string `json:"started_at" yaml:"started_at"`
	Duration  string `json:"duration" yaml:"duration"`

	TotalFilesScanned          int      `json:"total_files_scanned" yaml:"total_files_scanned"`
	DuplicateGroupsFound       int      `json:"duplicate_groups_found" yaml:"duplicate_groups_found"`
	DuplicatesRemoved          int      `json:"duplicates_removed" yaml:"duplicates_removed"`
	VersionsPreserved          int      `json:"versions_preserved" yaml:"versions_preserved"`
	FilesMoved                 int      `json:"files_moved" yaml:"files_moved"`
	FilesRenamed               int      `json:"files_renamed" yaml:"files_renamed"`
	UncategorizedFiles         int      `json:"uncategorized_files" yaml:"uncategorized_files"`
	SubdirectoryCleanup        bool     `json:"subdirectory_cleanup" yaml:"subdirectory_cleanup"`
	SubfolderDuplicateGroups   int      `json:"subfolder_duplicate_groups" yaml:"subfolder_duplicate_groups"`
	SubfolderDuplicatesRemoved int      `json:"subfolder_duplicates_removed" yaml:"subfolder_duplicates_removed"`
	Errors                     []string `json:"errors" yaml:"errors"`
}

func buildReport(r *types.OrganizationResult) report {
	errs := r.Errors
	if errs == nil {
		errs = []string{}
	}
	started := ""
	if !r.StartedAt.IsZero() {
		started = r.StartedAt.Format("2006-01-02T15:04:05Z07:00")
	}
	return report{
		Directory:                  r.Directory,
		DryRun:                     r.DryRun,
		StartedAt:                  started,
		Duration:                   r.Duration.String(),
		TotalFilesScanned:          r.TotalFilesScanned,
		DuplicateGroupsFound:       r.DuplicateGroupsFound,
		DuplicatesRemoved:          r.DuplicatesRemoved,
		VersionsPreserved:          r.VersionsPreserved,
		FilesMoved:                 r.FilesMoved,
		FilesRenamed:               r.FilesRenamed,
		UncategorizedFiles:         r.UncategorizedFiles,
		SubdirectoryCleanup:        r.SubdirectoryCleanup,
		SubfolderDuplicateGroups:   r.SubfolderDuplicateGroups,
		SubfolderDuplicatesRemoved: r.SubfolderDuplicatesRemoved,
		Errors:                     errs,
	}
}

// JSONFormatter formats output as a single indented JSON object.
type JSONFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONFormatter) Format(w *bytes.Buffer, r *types.OrganizationResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(buildReport(r))
}

func init() {
	Register("json", func() Formatter {
		return &JSONFormatter{}
	})
}

var _ Formatter = (*JSONFormatter)(nil)
