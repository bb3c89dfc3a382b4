package organizer

import (
	"fmt"
	"strings"

	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

// DryRunNotice opens the summary of a dry run.
const DryRunNotice = "Dry run: no files were changed."

// Summarize renders the plain-text summary of a run, one counter per line.
func Summarize(r *types.OrganizationResult) string {
	var b strings.Builder

	if r.DryRun {
		b.WriteString(DryRunNotice + "\n")
	}

	fmt.Fprintf(&b, "Total files scanned: %d\n", r.TotalFilesScanned)
	fmt.Fprintf(&b, "Duplicate groups: %d\n", r.DuplicateGroupsFound)
	fmt.Fprintf(&b, "Duplicates removed: %d\n", r.DuplicatesRemoved)
	fmt.Fprintf(&b, "Versions preserved: %d\n", r.VersionsPreserved)
	fmt.Fprintf(&b, "Files moved: %d\n", r.FilesMoved)
	fmt.Fprintf(&b, "Uncategorized files: %d\n", r.UncategorizedFiles)

	if r.FilesRenamed > 0 {
		fmt.Fprintf(&b, "Files renamed: %d\n", r.FilesRenamed)
	}
	if r.SubdirectoryCleanup && r.SubfolderDuplicateGroups > 0 {
		fmt.Fprintf(&b, "Subfolder duplicate groups: %d\n", r.SubfolderDuplicateGroups)
		fmt.Fprintf(&b, "Subfolder duplicates removed: %d\n", r.SubfolderDuplicatesRemoved)
	}
	if len(r.Errors) > 0 {
		fmt.Fprintf(&b, "Errors: %d\n", len(r.Errors))
	}

	return b.String()
}
