package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/jamesainslie/tidy/cmd/tidy/tui"
	"github.com/jamesainslie/tidy/pkg/tidy/config"
	"github.com/jamesainslie/tidy/pkg/tidy/hasher"
	"github.com/jamesainslie/tidy/pkg/tidy/journal"
	"github.com/jamesainslie/tidy/pkg/tidy/lock"
	"github.com/jamesainslie/tidy/pkg/tidy/logging"
	"github.com/jamesainslie/tidy/pkg/tidy/manifest"
	"github.com/jamesainslie/tidy/pkg/tidy/oplog"
	"github.com/jamesainslie/tidy/pkg/tidy/organizer"
	"github.com/jamesainslie/tidy/pkg/tidy/output"
	"github.com/jamesainslie/tidy/pkg/tidy/scanner"
	"github.com/jamesainslie/tidy/pkg/tidy/trash"
	"github.com/jamesainslie/tidy/pkg/tidy/types"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ErrConfirmationRequired is returned when confirmation is needed but
// there is no terminal to ask on.
var ErrConfirmationRequired = errors.New("confirmation required: run with --yes or set confirm: false")

// runOrganize is the root command handler.
func runOrganize(_ *cobra.Command, args []string) error {
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	format := outputFormat()
	if useTUI(format) {
		return organizeInteractive(ctx, cfg, dir)
	}
	return organizePlain(ctx, cfg, dir, format)
}

// resolveDirectory picks the directory to organize: the argument, or the
// configured default.
func resolveDirectory(args []string, cfg *config.Config) (string, error) {
	dir := cfg.DefaultDirectory
	if len(args) > 0 {
		dir = args[0]
	}

	expanded, err := config.ExpandPath(dir)
	if err != nil {
		return "", fmt.Errorf("failed to expand path: %w", err)
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("directory does not exist: %s", abs)
		}
		return "", fmt.Errorf("cannot access directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", abs)
	}
	return abs, nil
}

// outputFormat returns the report format. A --template implies the
// template format; an unset format falls back to plain when stdout is not a
// terminal.
func outputFormat() string {
	if viper.GetString("template") != "" {
		return "template"
	}
	format := viper.GetString("output")
	if format == "" {
		format = "pretty"
	}
	if format == "pretty" && !rootCmd.PersistentFlags().Changed("output") && !isTerminal(os.Stdout) {
		format = "plain"
	}
	return format
}

// useTUI reports whether the interactive view should be used.
func useTUI(format string) bool {
	return !viper.GetBool("no_interactive") && !getQuiet() && format == "pretty" &&
		isTerminal(os.Stdout) && isTerminal(os.Stdin)
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// organizeInteractive runs the pipeline inside the TUI and prints the
// report once the TUI has exited.
func organizeInteractive(ctx context.Context, cfg *config.Config, dir string) error {
	if err := initTUILogging(cfg); err != nil {
		return fmt.Errorf("failed to initialize TUI logging: %w", err)
	}

	recent := oplog.NewRing(oplog.DefaultRingSize)
	outcome, err := tui.Run(ctx, tui.Options{
		Directory: dir,
		DryRun:    cfg.DryRun,
		Confirm:   cfg.Confirm && !cfg.DryRun,
		FileCount: scanner.Count(dir),
		Recent:    recent,
		Run: func(ctx context.Context, onProgress func(types.Progress)) (*types.OrganizationResult, error) {
			return runPipeline(ctx, cfg, dir, onProgress, recent)
		},
	})
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	if outcome.Declined {
		printInfo("Nothing changed.")
		return nil
	}
	return report(outcome.Result, outcome.Err, "pretty")
}

// organizePlain asks for confirmation on the terminal if needed, runs the
// pipeline and prints the report.
func organizePlain(ctx context.Context, cfg *config.Config, dir, format string) error {
	if _, err := formatterFor(format); err != nil {
		return err
	}

	if cfg.Confirm && !cfg.DryRun {
		if !isTerminal(os.Stdin) {
			return ErrConfirmationRequired
		}
		prompt := fmt.Sprintf("Organize %d files in %s?", scanner.Count(dir), dir)
		if !confirm(os.Stdin, os.Stdout, prompt) {
			printInfo("Nothing changed.")
			return nil
		}
	}

	res, err := runPipeline(ctx, cfg, dir, func(p types.Progress) {
		printVerbose("[%3d%%] %s", p.Percent, p.Label)
	})
	return report(res, err, format)
}

// confirm asks a yes/no question; anything but y or yes is a no.
func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprintf(out, "%s [y/N] ", prompt)
	line, _ := bufio.NewReader(in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

// report prints the outcome of a run and maps it to an exit status.
func report(res *types.OrganizationResult, runErr error, format string) error {
	if errors.Is(runErr, organizer.ErrCanceled) {
		fmt.Fprintln(os.Stderr, "Organization canceled.")
		return &exitError{code: exitCanceled}
	}
	if runErr != nil {
		return runErr
	}

	if getQuiet() && (format == "pretty" || format == "plain") {
		return nil
	}

	formatter, err := formatterFor(format)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := formatter.Format(&buf, res); err != nil {
		return fmt.Errorf("failed to format report: %w", err)
	}
	fmt.Print(buf.String())
	return nil
}

// formatterFor returns the formatter for format, compiling --template
// when the template format is selected.
func formatterFor(format string) (output.Formatter, error) {
	if format != "template" {
		return output.Get(format)
	}
	f := output.NewTemplateFormatter(viper.GetString("template"))
	if err := f.Compile(); err != nil {
		return nil, err
	}
	return f, nil
}

var opsLogger = logging.Get("ops")

// runPipeline runs the organizer with the configured side outputs: the
// per-run journal, run history and the application log. Records are also
// sent to extra.
func runPipeline(ctx context.Context, cfg *config.Config, dir string, onProgress func(types.Progress), extra ...oplog.Logger) (*types.OrganizationResult, error) {
	s := newSession(cfg)
	defer s.close()
	s.extra = extra

	opts := organizer.Options{
		Categories:         cfg.Categories,
		DryRun:             cfg.DryRun,
		ScanSubdirectories: cfg.ScanSubdirectories,
		Hasher:             hasher.New(cfg.Algorithm()),
		Logger:             s.logger(),
		OnProgress:         onProgress,
	}
	if cfg.UseTrash {
		opts.Discarder = trash.New()
	}

	res, err := organizer.Run(ctx, dir, opts)
	s.finish(res, err)
	return res, err
}

// session holds the operation sinks of one run.
type session struct {
	cfg      *config.Config
	journal  *journal.Journal
	recorder *manifest.Recorder
	extra    []oplog.Logger
}

func newSession(cfg *config.Config) *session {
	s := &session{cfg: cfg}

	if cfg.Journal.Enabled {
		j, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			opsLogger.Warn("journal disabled for this run", "error", err)
		} else {
			s.journal = j
			printVerbose("Journal: %s", j.Path())
		}
	}
	if cfg.Manifest.Enabled {
		s.recorder = manifest.NewRecorder()
	}
	return s
}

// logger fans operation records out to every active sink.
func (s *session) logger() oplog.Logger {
	appLog := oplog.Func(func(r oplog.Record) {
		if r.Kind == oplog.KindError {
			opsLogger.Warn(r.Message, "kind", string(r.Kind), "source", r.Source)
			return
		}
		opsLogger.Debug(r.Message, "kind", string(r.Kind), "source", r.Source, "dest", r.Dest)
	})

	loggers := []oplog.Logger{appLog}
	if s.journal != nil {
		loggers = append(loggers, s.journal)
	}
	if s.recorder != nil {
		loggers = append(loggers, s.recorder)
	}
	return oplog.Multi(append(loggers, s.extra...)...)
}

// finish writes the run outcome to the journal and history.
func (s *session) finish(res *types.OrganizationResult, runErr error) {
	if s.journal != nil {
		switch {
		case errors.Is(runErr, organizer.ErrCanceled):
			s.journal.Info("Organization canceled.")
		case runErr != nil:
			s.journal.Info("Organization failed: " + runErr.Error())
		case res != nil:
			s.journal.Info(strings.ReplaceAll(strings.TrimSpace(res.Summary), "\n", "; "))
		}
	}

	if s.recorder == nil || res == nil {
		return
	}
	m, err := manifest.New(s.cfg.Manifest.Path)
	if err != nil {
		opsLogger.Warn("history disabled", "error", err)
		return
	}
	entry, err := s.recorder.Save(m, res)
	if err != nil {
		opsLogger.Warn("failed to record run history", "error", err)
		return
	}
	printVerbose("History entry: %s", entry.ID)
}

func (s *session) close() {
	if s.journal != nil {
		_ = s.journal.Close()
	}
}
