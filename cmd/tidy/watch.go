package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jamesainslie/tidy/pkg/tidy/config"
	"github.com/jamesainslie/tidy/pkg/tidy/lock"
	"github.com/jamesainslie/tidy/pkg/tidy/logging"
	"github.com/jamesainslie/tidy/pkg/tidy/organizer"
	"github.com/jamesainslie/tidy/pkg/tidy/types"
	"github.com/jamesainslie/tidy/pkg/tidy/watcher"
	"github.com/spf13/cobra"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Organize a directory whenever new files arrive",
	Long: `Watch a directory and organize it each time files are added or
changed. Bursts of events are coalesced: a run starts once the directory
has been quiet for the debounce period.

Watch mode never asks for confirmation. Stop it with Ctrl+C.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watcher.DefaultDebounce, "quiet period before a run")
	rootCmd.AddCommand(watchCmd)
}

var watchLogger = logging.Get("watch")

func runWatch(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	dir, err := resolveDirectory(args, cfg)
	if err != nil {
		return err
	}

	l, err := lock.Acquire(dir)
	if err != nil {
		return err
	}
	defer func() { _ = l.Release() }()

	w, err := watcher.New(dir,
		watcher.WithDebounce(watchDebounce),
		watcher.WithIgnoredNames(categoryFolders(cfg)...),
		watcher.WithInitialRun(),
	)
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	format := outputFormat()
	organize := func(ctx context.Context) error {
		res, err := runPipeline(ctx, cfg, dir, func(p types.Progress) {
			printVerbose("[%3d%%] %s", p.Percent, p.Label)
		})
		if err != nil {
			if !errors.Is(err, organizer.ErrCanceled) {
				watchLogger.Error("run failed", "dir", dir, "error", err)
			}
			return err
		}
		watchLogger.Info("run complete", "dir", dir, "scanned", res.TotalFilesScanned, "errors", len(res.Errors))
		return report(res, nil, format)
	}

	printInfo("Watching %s (debounce %s). Press Ctrl+C to stop.", dir, watchDebounce)
	return watchExit(w.Run(ctx, organize))
}

// watchExit treats an interrupt as a clean stop.
func watchExit(err error) error {
	if err == nil || errors.Is(err, organizer.ErrCanceled) || errors.Is(err, context.Canceled) {
		printInfo("Stopped watching.")
		return nil
	}
	return fmt.Errorf("watch failed: %w", err)
}

// categoryFolders returns the folder names the organizer creates, whose
// own events must not trigger another run.
func categoryFolders(cfg *config.Config) []string {
	names := make([]string, 0, len(cfg.Categories)+1)
	for _, c := range cfg.Categories {
		names = append(names, c.Name)
	}
	return append(names, types.Unclassified)
}
