package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Save validates cfg and writes it to path atomically. The previous file
// is rotated into path.backup1, shifting older backups up to BackupCount.
func Save(cfg *Config, path string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := rotateBackups(path); err != nil {
		return err
	}
	return writeAtomic(path, buf.Bytes())
}

// BackupPath returns the path of the n-th config backup.
func BackupPath(path string, n int) string {
	return fmt.Sprintf("%s.backup%d", path, n)
}

func rotateBackups(path string) error {
	current, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config for backup: %w", err)
	}

	_ = os.Remove(BackupPath(path, BackupCount))
	for i := BackupCount - 1; i >= 1; i-- {
		src := BackupPath(path, i)
		if _, err := os.Stat(src); err != nil {
			continue
		}
		if err := os.Rename(src, BackupPath(path, i+1)); err != nil {
			return fmt.Errorf("failed to rotate config backup: %w", err)
		}
	}

	if err := os.WriteFile(BackupPath(path, 1), current, 0o644); err != nil {
		return fmt.Errorf("failed to write config backup: %w", err)
	}
	return nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp config: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp config: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to set config permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to replace config: %w", err)
	}
	return nil
}

// WriteDefault writes a commented default config file to path if none
// exists. It reports whether a file was written.
func WriteDefault(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to check config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}

	categories, err := yaml.Marshal(map[string]any{"categories": DefaultCategories()})
	if err != nil {
		return false, fmt.Errorf("failed to encode default categories: %w", err)
	}

	content := fmt.Sprintf(`# tidy configuration

# Directory organized when none is given on the command line
default_directory: %s

# Preview changes without touching any file
dry_run: false

# Ask before organizing
confirm: true

# Also remove exact duplicates found in nested folders (keeps the oldest)
scan_subdirectories: false

# Move deleted duplicates to the system trash instead of removing them
use_trash: false

# Content digest used for duplicate detection: md5 or xxhash
hash:
  algorithm: %s

# Per-run operation journal
journal:
  enabled: true
  # Empty means use the default: $XDG_STATE_HOME/tidy/journal
  path: ""
  keep_days: %d
  max_files: %d
  error_days: %d

# Run history
manifest:
  enabled: true
  # Empty means use the default: $XDG_DATA_HOME/tidy/history
  path: ""
  retention_days: %d

# Logging configuration
logging:
  # Log level: debug, info, warn, error
  level: info
  # Log file path (empty means use default: $XDG_STATE_HOME/tidy/tidy.log)
  path: ""
  rotation:
    max_size: 10MB
    max_age: 30       # days
    max_backups: 5
    daily: true

# Categories route files by extension into sub-folders. The first
# matching category wins; files without an extension go to "unclassified".
%s`, DefaultDirectory(), DefaultHashAlgorithm,
		DefaultJournalKeepDays, DefaultJournalMaxFiles, DefaultJournalErrorDays,
		DefaultRetentionDays, categories)

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return false, fmt.Errorf("failed to write default config: %w", err)
	}
	return true, nil
}
