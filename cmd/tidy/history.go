package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jamesainslie/tidy/pkg/tidy/config"
	"github.com/jamesainslie/tidy/pkg/tidy/journal"
	"github.com/jamesainslie/tidy/pkg/tidy/manifest"
	"github.com/jamesainslie/tidy/pkg/tidy/output"
	"github.com/spf13/cobra"
)

// maxShownOperations caps the operations listed by history show.
const maxShownOperations = 50

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View past runs",
	Long: `View the history of organize runs.

Each run records its counters and every operation it performed: moves,
renames, deletions and errors.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show details of a run",
	Long:  `Display a recorded run. A unique prefix of the ID is enough.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove old history entries and journals",
	Args:  cobra.NoArgs,
	RunE:  runHistoryClean,
}

var historyLimit int

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "maximum number of entries to show (0 for all)")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyCleanCmd)
	rootCmd.AddCommand(historyCmd)
}

// getManifest opens the configured history, falling back to the default
// location when the configuration cannot be loaded.
func getManifest() (*manifest.Manifest, error) {
	cfg, err := loadConfig()
	if err != nil {
		printVerbose("Using default history location: %v", err)
		return manifest.New(config.DefaultManifestDir())
	}
	return manifest.New(cfg.Manifest.Path)
}

func runHistory(_ *cobra.Command, _ []string) error {
	m, err := getManifest()
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}

	entries, err := m.List(historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}
	if len(entries) == 0 {
		printInfo("No history entries found.")
		printInfo("Run 'tidy [directory]' to organize a directory.")
		return nil
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		mode := ""
		if e.DryRun {
			mode = "dry run"
		}
		rows = append(rows, []string{
			shortID(e.ID),
			humanize.Time(e.Timestamp),
			truncateString(e.Directory, 40),
			humanize.Comma(int64(e.Summary.TotalFilesScanned)),
			humanize.Comma(int64(e.Summary.Changes())),
			strconv.Itoa(len(e.Errors)),
			mode,
		})
	}
	fmt.Println(renderTable(
		[]string{"ID", "When", "Directory", "Scanned", "Changed", "Errors", "Mode"},
		rows,
		[]columnAlign{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight},
	))
	printInfo("Use 'tidy history show <id>' for details on a specific run.")
	return nil
}

func runHistoryShow(_ *cobra.Command, args []string) error {
	m, err := getManifest()
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}

	entry, err := m.Get(args[0])
	if err != nil {
		return fmt.Errorf("failed to get entry: %w", err)
	}

	fmt.Println("\nRun Details")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("ID:         %s\n", entry.ID)
	fmt.Printf("Timestamp:  %s (%s)\n", entry.Timestamp.Local().Format("2006-01-02 15:04:05 MST"), humanize.Time(entry.Timestamp))
	fmt.Printf("Directory:  %s\n", entry.Directory)
	fmt.Printf("Dry run:    %t\n", entry.DryRun)
	fmt.Printf("Duration:   %s\n", output.FormatDuration(entry.Duration))

	s := entry.Summary
	fmt.Println()
	fmt.Println(renderTable([]string{"Counter", "Value"}, [][]string{
		{"Total files scanned", strconv.Itoa(s.TotalFilesScanned)},
		{"Duplicate groups", strconv.Itoa(s.DuplicateGroupsFound)},
		{"Duplicates removed", strconv.Itoa(s.DuplicatesRemoved)},
		{"Versions preserved", strconv.Itoa(s.VersionsPreserved)},
		{"Files moved", strconv.Itoa(s.FilesMoved)},
		{"Files renamed", strconv.Itoa(s.FilesRenamed)},
		{"Uncategorized files", strconv.Itoa(s.UncategorizedFiles)},
		{"Subfolder duplicate groups", strconv.Itoa(s.SubfolderDuplicateGroups)},
		{"Subfolder duplicates removed", strconv.Itoa(s.SubfolderDuplicatesRemoved)},
	}, []columnAlign{alignLeft, alignRight}))

	if len(entry.Operations) > 0 {
		limit := min(len(entry.Operations), maxShownOperations)
		rows := make([][]string, 0, limit)
		for _, op := range entry.Operations[:limit] {
			rows = append(rows, []string{string(op.Kind), op.Source, op.Dest, op.Message})
		}
		fmt.Println("\nOperations:")
		fmt.Println(renderTable([]string{"Kind", "Source", "Destination", "Message"}, rows, nil))
		if len(entry.Operations) > limit {
			fmt.Printf("\n... and %d more operations\n", len(entry.Operations)-limit)
		}
	}

	if len(entry.Errors) > 0 {
		fmt.Println("\nErrors:")
		for _, e := range entry.Errors {
			fmt.Printf("  - %s\n", e)
		}
	}
	return nil
}

func runHistoryClean(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	m, err := manifest.New(cfg.Manifest.Path)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}

	retentionDays := cfg.Manifest.RetentionDays
	if retentionDays <= 0 {
		retentionDays = config.DefaultRetentionDays
	}
	printInfo("Cleaning history entries older than %d days...", retentionDays)

	removed, err := m.Cleanup(retentionDays)
	if err != nil {
		return fmt.Errorf("failed to clean history: %w", err)
	}

	journals := journal.Maintain(cfg.Journal.Path, journalRetention(cfg))
	printInfo("Removed %d history %s and %d %s.",
		removed, plural(removed, "entry", "entries"),
		journals, plural(journals, "journal", "journals"))
	return nil
}

// shortID returns the first eight characters of a run ID.
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

// truncateString truncates s to maxLen, keeping the tail, which is the
// informative part of a path.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[len(r)-maxLen:])
	}
	return "..." + string(r[len(r)-maxLen+3:])
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
