package main

import (
	"github.com/jamesainslie/tidy/pkg/tidy/config"
	"github.com/jamesainslie/tidy/pkg/tidy/journal"
	"github.com/jamesainslie/tidy/pkg/tidy/logging"
	"github.com/spf13/cobra"
)

// bootstrap initializes logging and prunes old journals before any
// command runs. A broken configuration is reported by the commands that
// need it, so logging falls back to defaults here.
func bootstrap(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		printVerbose("Using default logging: %v", err)
		cfg = nil
	}

	if err := logging.Init(loggingConfig(cfg, getVerbose(), false)); err != nil {
		printVerbose("File logging disabled: %v", err)
	}

	if cfg != nil && cfg.Journal.Enabled {
		if removed := journal.Maintain(cfg.Journal.Path, journalRetention(cfg)); removed > 0 {
			printVerbose("Pruned %d old journal files", removed)
		}
	}
	return nil
}

// initTUILogging re-initializes logging with console output disabled
// because the TUI owns the terminal.
func initTUILogging(cfg *config.Config) error {
	return logging.Init(loggingConfig(cfg, getVerbose(), true))
}

// loggingConfig converts the logging section of cfg. A nil cfg yields
// the defaults.
func loggingConfig(cfg *config.Config, verbose, tui bool) logging.Config {
	lc := logging.DefaultConfig()
	if cfg != nil {
		lc = cfg.LoggingConfig()
	}
	if verbose {
		lc.ConsoleLevel = "debug"
	}
	lc.TUIMode = tui
	return lc
}

// journalRetention converts the journal section of cfg.
func journalRetention(cfg *config.Config) journal.Retention {
	return journal.Retention{
		KeepDays:  cfg.Journal.KeepDays,
		MaxFiles:  cfg.Journal.MaxFiles,
		ErrorDays: cfg.Journal.ErrorDays,
	}
}
